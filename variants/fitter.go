package variants

import "math"

// PhiFitter computes a subclonal-frequency matrix for a fixed tree topology.
// The sampler treats implementations as black boxes: any structurally valid
// adjacency must yield a K x S phi matrix with phi[0] identically 1 and all
// entries in [0, 1], plus a same-shaped error estimate.
type PhiFitter interface {
	Fit(adj [][]int, superclusters [][]int, svs []*Supervariant) (phi, eta [][]float64, err error)
}

// VAFFitter is a baseline fitter that projects each cluster's observed
// variant allele frequency through omega, ignoring the tree constraint.
// It stands in for a real constrained optimizer when none is wired up.
type VAFFitter struct{}

func (VAFFitter) Fit(adj [][]int, superclusters [][]int, svs []*Supervariant) (phi, eta [][]float64, err error) {
	k := len(adj)
	nsamples := 0
	if len(svs) > 0 {
		nsamples = len(svs[0].TotalReads)
	}

	phi = make([][]float64, k)
	eta = make([][]float64, k)
	for i := range phi {
		phi[i] = make([]float64, nsamples)
		eta[i] = make([]float64, nsamples)
	}
	for s := 0; s < nsamples; s++ {
		phi[0][s] = 1
	}
	for c, sv := range svs {
		for s := range sv.TotalReads {
			if sv.TotalReads[s] == 0 {
				continue
			}
			f := sv.VarReads[s] / (sv.TotalReads[s] * sv.OmegaV[s])
			phi[c+1][s] = math.Min(1, math.Max(0, f))
		}
	}
	return phi, eta, nil
}
