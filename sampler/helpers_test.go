package sampler

import (
	"clonetree/config"
	"clonetree/mutrel"
	"clonetree/tree"
	"clonetree/variants"
)

// uniformRel spreads all pairwise mass evenly over the three valid relation
// classes, so no tree is preferred by the proposal's informed component.
func uniformRel(k int) mutrel.Mutrel {
	m := mutrel.New(k)
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			if a == b {
				m.Rels[a][b][mutrel.Cocluster] = 1
				continue
			}
			m.Rels[a][b][mutrel.AncDesc] = 1.0 / 3
			m.Rels[a][b][mutrel.DescAnc] = 1.0 / 3
			m.Rels[a][b][mutrel.DiffBranches] = 1.0 / 3
		}
	}
	return m
}

// certainRel puts all mass on the relation classes implied by the given
// tree, making the model maximally opinionated.
func certainRel(adj [][]int) mutrel.Mutrel {
	k := len(adj) - 1
	rels := mutrel.NodeRelations(adj)
	m := mutrel.New(k)
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			if a == b {
				m.Rels[a][b][mutrel.Cocluster] = 1
			} else {
				m.Rels[a][b][rels[a+1][b+1]] = 1
			}
		}
	}
	return m
}

// testSupervariants builds one single-sample supervariant per cluster from
// the given variant read counts, with 10x that many total reads.
func testSupervariants(varReads ...float64) []*variants.Supervariant {
	svs := make([]*variants.Supervariant, len(varReads))
	for i, v := range varReads {
		svs[i] = &variants.Supervariant{
			Cluster:    i,
			VarReads:   []float64{v},
			RefReads:   []float64{10*v - v},
			TotalReads: []float64{10 * v},
			OmegaV:     []float64{0.5},
		}
	}
	return svs
}

func testConfig() config.Config {
	return config.Config{
		TreesPerChain: 100,
		Chains:        1,
		Burnin:        0,
		ThinnedFrac:   1,
		Seed:          1,
		Parallel:      0,
		Gamma:         0.7,
		Zeta:          0.7,
		Theta:         1,
		Kappa:         1,
	}
}

// depthFitter derives phi purely from node depth, so the likelihood depends
// only on topology. It stands in for the external frequency fitter in tests.
type depthFitter struct{}

func (depthFitter) Fit(adj [][]int, _ [][]int, svs []*variants.Supervariant) ([][]float64, [][]float64, error) {
	frac := tree.DepthFractions(adj)
	nsamples := len(svs[0].TotalReads)
	phi := make([][]float64, len(adj))
	eta := make([][]float64, len(adj))
	for i := range phi {
		phi[i] = make([]float64, nsamples)
		eta[i] = make([]float64, nsamples)
		for s := 0; s < nsamples; s++ {
			phi[i][s] = 1 - 0.5*frac[i]
		}
	}
	return phi, eta, nil
}

func mustSampler(rel mutrel.Mutrel, svs []*variants.Supervariant, cfg config.Config, opts ...Option) *Sampler {
	s, err := New(rel, svs, variants.MakeSuperclusters(len(svs)), depthFitter{}, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
