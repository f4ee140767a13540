// Package sampler draws posterior samples over rooted clone trees via
// Metropolis-Hastings MCMC. Proposals relocate or swap subtrees, guided by a
// mixture of uniform and relation-model-informed weights; acceptance combines
// the frequency-fit likelihood with the asymmetric forward/reverse proposal
// probabilities. Multiple independent chains run with burn-in and thinning,
// optionally on concurrent workers.
package sampler

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"clonetree/config"
	"clonetree/mutrel"
	"clonetree/tree"
	"clonetree/variants"
)

// Chain seeds are reduced into the valid 32-bit range.
const seedRange = 1 << 32

// Progress is a fire-and-forget signal that a chain has completed one
// iteration. Delivery is best-effort and ordering across chains is
// meaningless.
type Progress struct {
	Chain     int
	Iteration int
}

// Results holds the merged post-burn-in samples from all chains, in
// chain-then-within-chain order. The three lists are parallel: one entry
// per retained sample.
type Results struct {
	Adjs [][][]int
	Phis [][][]float64
	LLHs []float64
}

// Sampler owns the read-only inputs shared by every chain. Chains never
// share mutable state, so no locking is needed regardless of how many
// workers run concurrently.
type Sampler struct {
	cfg           config.Config
	rel           mutrel.Mutrel
	logRel        mutrel.LogMutrel
	svs           []*variants.Supervariant
	superclusters [][]int
	fitter        variants.PhiFitter

	v, n, omega [][]float64

	progress chan<- Progress
}

type Option func(*Sampler)

// WithProgress attaches a channel receiving one signal per chain iteration.
// Sends never block: if the consumer falls behind, signals are dropped.
func WithProgress(ch chan<- Progress) Option {
	return func(s *Sampler) {
		s.progress = ch
	}
}

// New builds a Sampler over the given relation model and aggregated cluster
// variants. The relation model must cover exactly one cluster per
// supervariant, and at least two clusters are needed for tree space to
// contain more than one tree.
func New(rel mutrel.Mutrel, svs []*variants.Supervariant, superclusters [][]int, fitter variants.PhiFitter, cfg config.Config, opts ...Option) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(svs) != rel.NumClusters() {
		return nil, fmt.Errorf("relation model covers %d clusters but %d supervariants given", rel.NumClusters(), len(svs))
	}
	if len(svs) < 2 {
		return nil, fmt.Errorf("need at least 2 clusters to sample trees, got %d", len(svs))
	}
	if fitter == nil {
		return nil, fmt.Errorf("nil phi fitter")
	}

	v, n, omega := variants.BinomParams(svs)
	s := &Sampler{
		cfg:           cfg,
		rel:           rel,
		logRel:        mutrel.MakeLogMutrel(rel),
		svs:           svs,
		superclusters: superclusters,
		fitter:        fitter,
		v:             v,
		n:             n,
		omega:         omega,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SampleTrees runs every configured chain, discards each chain's burn-in
// prefix, and merges the remainders in chain order. For a fixed seed, chain
// count, and iteration count the output is bit-reproducible regardless of
// the parallelism degree, since each chain derives its own generator from
// the base seed alone.
func (s *Sampler) SampleTrees() (Results, error) {
	results := make([]chainResult, s.cfg.Chains)

	if s.cfg.Parallel > 0 {
		var g errgroup.Group
		g.SetLimit(s.cfg.Parallel)
		for c := 0; c < s.cfg.Chains; c++ {
			c := c
			g.Go(func() error {
				res, err := s.runChain(c, s.chainSeed(c))
				if err != nil {
					return fmt.Errorf("chain %d: %w", c, err)
				}
				results[c] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Results{}, err
		}
	} else {
		for c := 0; c < s.cfg.Chains; c++ {
			res, err := s.runChain(c, s.chainSeed(c))
			if err != nil {
				return Results{}, fmt.Errorf("chain %d: %w", c, err)
			}
			results[c] = res
		}
	}

	// Burn-in is measured against the retained list, not raw iterations.
	discard := int(math.Round(s.cfg.Burnin * float64(s.cfg.TreesPerChain)))
	var merged Results
	for _, res := range results {
		d := discard
		if d > len(res.adjs) {
			d = len(res.adjs)
		}
		merged.Adjs = append(merged.Adjs, res.adjs[d:]...)
		merged.Phis = append(merged.Phis, res.phis[d:]...)
		merged.LLHs = append(merged.LLHs, res.llhs[d:]...)
	}
	if len(merged.Adjs) != len(merged.Phis) || len(merged.Adjs) != len(merged.LLHs) {
		panic("merged sample lists diverged in length")
	}
	log.Info().Int("chains", s.cfg.Chains).Int("trees", len(merged.Adjs)).Msg("sampling finished")
	return merged, nil
}

// ScoreTrees bypasses MCMC entirely: it fits phi and computes the
// likelihood for each pre-supplied tree topology. Used for scoring
// externally constructed or ground-truth trees.
func (s *Sampler) ScoreTrees(adjs [][][]int) (Results, error) {
	var out Results
	for i, adj := range adjs {
		if err := tree.Validate(adj); err != nil {
			return Results{}, fmt.Errorf("supplied tree %d: %w", i, err)
		}
		samp, err := s.fitSample(adj)
		if err != nil {
			return Results{}, fmt.Errorf("supplied tree %d: %w", i, err)
		}
		out.Adjs = append(out.Adjs, samp.adj)
		out.Phis = append(out.Phis, samp.phi)
		out.LLHs = append(out.LLHs, samp.llh)
	}
	return out, nil
}

// chainSeed derives a distinct, reproducible seed for chain c. The
// derivation depends only on the base seed and chain index, never on
// scheduling order.
func (s *Sampler) chainSeed(c int) uint64 {
	return (s.cfg.Seed + uint64(c) + 1) % seedRange
}

func (s *Sampler) signalProgress(chain, iter int) {
	if s.progress == nil {
		return
	}
	select {
	case s.progress <- Progress{Chain: chain, Iteration: iter}:
	default:
	}
}
