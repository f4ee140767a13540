// Package variants holds the sequencing evidence the sampler scores trees
// against: per-cluster aggregated read counts ("supervariants") and the
// binomial likelihood of a subclonal-frequency matrix.
package variants

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Frequencies are clipped into (epsilon, 1-epsilon) before binomial
// evaluation so the log-PMF stays finite at the boundaries.
const epsilon = 1e-5

// Variant is one sequenced mutation, with one read-count entry per sample.
// OmegaV is the allele-fraction correction factor (e.g. for copy-number or
// sex-chromosome effects).
type Variant struct {
	ID         string
	VarReads   []float64
	RefReads   []float64
	TotalReads []float64
	OmegaV     []float64
}

// Supervariant aggregates the variants of one mutation cluster into a single
// representative, with omega normalized to 0.5.
type Supervariant struct {
	ID         string
	Cluster    int
	VarReads   []float64
	RefReads   []float64
	TotalReads []float64
	OmegaV     []float64
}

// MakeSupervariants aggregates each cluster's variants into one supervariant.
// Variant read counts are corrected to a diploid-heterozygous scale
// (divided by 2*omega and rounded) before summing, so every supervariant's
// omega is exactly 0.5. Empty clusters are skipped.
func MakeSupervariants(clusters [][]int, vars []Variant) []*Supervariant {
	var svs []*Supervariant
	for cidx, cluster := range clusters {
		if len(cluster) == 0 {
			continue
		}
		nsamples := len(vars[cluster[0]].TotalReads)
		sv := &Supervariant{
			ID:         fmt.Sprintf("C%d", len(svs)),
			Cluster:    cidx,
			VarReads:   make([]float64, nsamples),
			RefReads:   make([]float64, nsamples),
			TotalReads: make([]float64, nsamples),
			OmegaV:     make([]float64, nsamples),
		}
		for s := 0; s < nsamples; s++ {
			sv.OmegaV[s] = 0.5
		}
		for _, vidx := range cluster {
			v := vars[vidx]
			for s := range v.TotalReads {
				sv.VarReads[s] += math.Round(v.VarReads[s] / (2 * v.OmegaV[s]))
				sv.TotalReads[s] += v.TotalReads[s]
			}
		}
		for s := range sv.TotalReads {
			// Omega correction can push the corrected count past the total.
			if sv.VarReads[s] > sv.TotalReads[s] {
				sv.VarReads[s] = sv.TotalReads[s]
			}
			sv.RefReads[s] = sv.TotalReads[s] - sv.VarReads[s]
		}
		svs = append(svs, sv)
	}
	return svs
}

// MakeSuperclusters builds the trivial cluster groupings passed through to
// the frequency fitter: an empty group for the root followed by one
// singleton group per supervariant.
func MakeSuperclusters(nsupervars int) [][]int {
	groups := make([][]int, nsupervars+1)
	groups[0] = []int{}
	for i := 0; i < nsupervars; i++ {
		groups[i+1] = []int{i}
	}
	return groups
}

// BinomParams extracts the (K-1) x S variant-read, total-read, and omega
// matrices the likelihood needs.
func BinomParams(svs []*Supervariant) (v, n, omega [][]float64) {
	v = make([][]float64, len(svs))
	n = make([][]float64, len(svs))
	omega = make([][]float64, len(svs))
	for i, sv := range svs {
		v[i] = make([]float64, len(sv.VarReads))
		n[i] = make([]float64, len(sv.VarReads))
		omega[i] = make([]float64, len(sv.VarReads))
		copy(v[i], sv.VarReads)
		copy(omega[i], sv.OmegaV)
		for s := range sv.VarReads {
			n[i][s] = sv.VarReads[s] + sv.RefReads[s]
		}
	}
	return v, n, omega
}

// LogLikelihood scores a K x S subclonal-frequency matrix against observed
// read counts: the sum over clusters and samples of the binomial log-PMF of
// the variant read count given the total read count and the omega-adjusted,
// clipped frequency. Row 0 of phi must be identically 1 (the germline root).
// A NaN or infinite result indicates corrupted state and panics.
func LogLikelihood(phi, v, n, omega [][]float64) float64 {
	k := len(phi)
	if len(v) != k-1 || len(n) != k-1 || len(omega) != k-1 {
		panic(fmt.Sprintf("phi has %d non-root rows but read matrices have %d", k-1, len(v)))
	}
	for s, p := range phi[0] {
		if math.Abs(p-1) > 1e-9 {
			panic(fmt.Sprintf("root frequency in sample %d is %g, want 1", s, p))
		}
	}

	llh := 0.0
	for c := 0; c < k-1; c++ {
		for s := range phi[c+1] {
			p := omega[c][s] * phi[c+1][s]
			p = math.Max(p, epsilon)
			p = math.Min(p, 1-epsilon)
			b := distuv.Binomial{N: n[c][s], P: p}
			llh += b.LogProb(v[c][s])
		}
	}
	if math.IsNaN(llh) || math.IsInf(llh, 0) {
		panic(fmt.Sprintf("phi log-likelihood is %g", llh))
	}
	return llh
}
