// Package mutrel models pairwise evolutionary relations between mutation
// clusters: for every unordered cluster pair, a probability distribution over
// the five possible relation classes. The log-space variant is what the
// sampler scores candidate trees against.
package mutrel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Relation is the evolutionary relation between an ordered pair of clusters
// (a, b).
type Relation int

const (
	Garbage   Relation = iota // a or b is not a real cluster
	Cocluster                 // a and b are the same cluster
	AncDesc                   // a is an ancestor of b
	DescAnc                   // b is an ancestor of a
	DiffBranches              // a and b lie on different branches

	NumRelations = 5
)

// Dirichlet pseudocount applied when converting to log space, so that a
// cluster pair observed with probability zero for a valid class still has
// nonzero mass there.
const smoothingAlpha = 0.001

var relationNames = [NumRelations]string{
	"garbage", "cocluster", "anc_desc", "desc_anc", "diff_branches",
}

func (r Relation) String() string {
	if r < 0 || r >= NumRelations {
		return fmt.Sprintf("relation(%d)", int(r))
	}
	return relationNames[r]
}

// Mutrel holds, for each ordered pair of mutation clusters, a probability
// distribution over relation classes. Rels[a][b][c] is the probability that
// clusters a and b stand in relation c. Entries are symmetric under swapping
// AncDesc and DescAnc, and diagonal entries are degenerate (cocluster with
// probability 1).
type Mutrel struct {
	Rels [][][]float64
	VIDs []string
}

// New allocates a zeroed Mutrel over nclusters clusters with default
// identifiers S0..S(n-1).
func New(nclusters int) Mutrel {
	rels := make([][][]float64, nclusters)
	vids := make([]string, nclusters)
	for a := range rels {
		rels[a] = make([][]float64, nclusters)
		for b := range rels[a] {
			rels[a][b] = make([]float64, NumRelations)
		}
		vids[a] = fmt.Sprintf("S%d", a)
	}
	return Mutrel{Rels: rels, VIDs: vids}
}

// NumClusters returns the number of clusters the model covers. The sampler's
// trees have one more node than this, for the germline root.
func (m Mutrel) NumClusters() int { return len(m.Rels) }

// LogMutrel is the smoothed log-space form of a Mutrel, used to score trees.
// Off-diagonal pairs have -Inf for garbage and cocluster, and the remaining
// three classes sum to 1 in probability space. Diagonal pairs are degenerate:
// cocluster carries all mass.
type LogMutrel struct {
	Rels [][][]float64
	VIDs []string
}

// MakeLogMutrel converts a Mutrel into its Dirichlet-smoothed log form.
// It panics if the smoothed distributions do not normalize, since a malformed
// relation model would silently corrupt every tree score downstream.
func MakeLogMutrel(m Mutrel) LogMutrel {
	k := m.NumClusters()
	validClasses := []Relation{AncDesc, DescAnc, DiffBranches}
	logNorm := math.Log(1 + float64(len(validClasses))*smoothingAlpha)

	logrels := make([][][]float64, k)
	for a := range logrels {
		logrels[a] = make([][]float64, k)
		for b := range logrels[a] {
			lr := make([]float64, NumRelations)
			for c := range lr {
				lr[c] = math.Inf(-1)
			}
			if a == b {
				lr[Cocluster] = 0
			} else {
				for _, c := range validClasses {
					lr[c] = math.Log(m.Rels[a][b][c]+smoothingAlpha) - logNorm
				}
			}
			if lse := floats.LogSumExp(lr); math.Abs(lse) > 1e-8 {
				panic(fmt.Sprintf("relation distribution for pair (%d,%d) does not normalize: logsumexp=%g", a, b, lse))
			}
			logrels[a][b] = lr
		}
	}

	vids := make([]string, len(m.VIDs))
	copy(vids, m.VIDs)
	return LogMutrel{Rels: logrels, VIDs: vids}
}
