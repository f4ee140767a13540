package sampler

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"clonetree/tree"
	"clonetree/variants"
)

// sample is one immutable MCMC draw: a tree with its derived matrices, the
// fitted subclonal frequencies, and their log-likelihood. Samples are never
// mutated after creation.
type sample struct {
	adj       [][]int
	anc       [][]int
	depthFrac []float64
	phi       [][]float64
	llh       float64
}

// chainResult is one chain's retained (thinned) samples plus its acceptance
// count. Each chain owns its result exclusively.
type chainResult struct {
	adjs     [][][]int
	phis     [][][]float64
	llhs     []float64
	accepted int
}

// fitSample derives the full sample value for a tree topology: ancestry,
// depth fractions, fitted phi, and likelihood.
func (s *Sampler) fitSample(adj [][]int) (sample, error) {
	phi, _, err := s.fitter.Fit(adj, s.superclusters, s.svs)
	if err != nil {
		return sample{}, err
	}
	return sample{
		adj:       adj,
		anc:       tree.MakeAncestral(adj),
		depthFrac: tree.DepthFractions(adj),
		phi:       phi,
		llh:       variants.LogLikelihood(phi, s.v, s.n, s.omega),
	}, nil
}

// runChain executes one Markov chain for the configured number of
// iterations. Every transition, accepted or not, counts as one iteration;
// the initialization sample is always retained, and
// thereafter the current sample is recorded every round(1/thinned_frac)
// iterations.
func (s *Sampler) runChain(chainIdx int, seed uint64) (chainResult, error) {
	rng := rand.New(rand.NewSource(seed))

	cur, err := s.initChain(rng)
	if err != nil {
		return chainResult{}, err
	}
	s.signalProgress(chainIdx, 0)

	recordEvery := int(math.Round(1 / s.cfg.ThinnedFrac))
	nsamples := s.cfg.TreesPerChain
	expectedTrees := 1 + (nsamples-1)/recordEvery

	res := chainResult{
		adjs: [][][]int{cur.adj},
		phis: [][][]float64{cur.phi},
		llhs: []float64{cur.llh},
	}

	for i := 1; i < nsamples; i++ {
		s.signalProgress(chainIdx, i)

		cand, logFwd, logRev, err := s.propose(cur, rng)
		if err != nil {
			return chainResult{}, err
		}

		logRatio := (cand.llh - cur.llh) + (logRev - logFwd)
		accept := logRatio >= math.Log(rng.Float64())
		if accept {
			cur = cand
			res.accepted++
		}
		if i%recordEvery == 0 {
			res.adjs = append(res.adjs, cur.adj)
			res.phis = append(res.phis, cur.phi)
			res.llhs = append(res.llhs, cur.llh)
		}
	}

	if len(res.adjs) != expectedTrees {
		panic("retained sample count does not match thinning schedule")
	}
	acceptRate := 0.0
	if nsamples > 1 {
		acceptRate = float64(res.accepted) / float64(nsamples-1)
	}
	log.Debug().
		Int("chain", chainIdx).
		Uint64("seed", seed).
		Float64("accept_rate", acceptRate).
		Int("trees", len(res.adjs)).
		Msg("chain finished")
	return res, nil
}

// propose draws one candidate tree and returns it along with the log
// forward and reverse proposal probabilities. The subtree head B and
// destination A are each drawn from a mixture of a uniform and a
// relation-informed distribution; which component governs a draw is decided
// per stage, but both components are always computed, since the acceptance
// ratio needs probabilities under the full mixture. The reverse probability
// is that of selecting B and then B's former parent under the candidate
// tree's own proposal weights.
func (s *Sampler) propose(cur sample, rng *rand.Rand) (cand sample, logFwd, logRev float64, err error) {
	k := len(cur.adj)

	nodesUniform := wNodesUniform(k)
	nodesInformed := wNodesInformed(cur.adj, s.logRel)
	nodesMix := mix(nodesUniform, nodesInformed, s.cfg.Gamma)

	b := 0
	if pickUniform(rng, s.cfg.Gamma) {
		b = sampleCat(rng, nodesUniform)
	} else {
		b = sampleCat(rng, nodesInformed)
	}
	oldParent := tree.Parent(cur.adj, b)

	destsUniform := wDestsUniform(b, oldParent, k)
	destsInformed := wDestsInformed(b, oldParent, cur.adj, cur.anc, s.logRel)
	destsMix := mix(destsUniform, destsInformed, s.cfg.Zeta)

	a := 0
	if pickUniform(rng, s.cfg.Zeta) {
		a = sampleCat(rng, destsUniform)
	} else {
		a = sampleCat(rng, destsInformed)
	}

	newAdj := tree.Modify(cur.adj, cur.anc, a, b)
	cand, err = s.fitSample(newAdj)
	if err != nil {
		return sample{}, 0, 0, err
	}
	newParent := tree.Parent(cand.adj, b)

	revNodesMix := mix(wNodesUniform(k), wNodesInformed(cand.adj, s.logRel), s.cfg.Gamma)
	revDestsMix := mix(
		wDestsUniform(b, newParent, k),
		wDestsInformed(b, newParent, cand.adj, cand.anc, s.logRel),
		s.cfg.Zeta,
	)

	logFwd = math.Log(nodesMix[b]) + math.Log(destsMix[a])
	logRev = math.Log(revNodesMix[b]) + math.Log(revDestsMix[oldParent])
	return cand, logFwd, logRev, nil
}

// pickUniform decides which mixture component governs one draw.
func pickUniform(rng *rand.Rand, wu float64) bool {
	return rng.Float64() < wu
}
