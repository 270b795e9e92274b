// Package emd computes an Earth Mover's Distance between two planar point
// sets as the mean edge cost of a minimum-cost bipartite matching.
package emd

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/user/swarm_analytics_go/internal/parser"
)

// CostMatrix returns the len(a)×len(b) matrix of pairwise Euclidean distances.
func CostMatrix(a, b []parser.Point) *mat.Dense {
	c := mat.NewDense(len(a), len(b), nil)
	for i, pa := range a {
		for j, pb := range b {
			c.Set(i, j, math.Hypot(pa.X-pb.X, pa.Y-pb.Y))
		}
	}
	return c
}

// Distance returns the mean cost of the optimal matching between a and b.
// When the sets differ in size every point of the smaller set is matched to
// a distinct point of the larger one and the mean is taken over the
// min(len(a), len(b)) matched pairs. ok is false when either set is empty
// or a pairwise distance is not finite.
func Distance(a, b []parser.Point) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	cost := CostMatrix(a, b)
	for _, c := range cost.RawMatrix().Data {
		if math.IsInf(c, 0) || math.IsNaN(c) {
			return 0, false
		}
	}
	assignment := Assign(cost)

	total, matched := 0.0, 0
	for i, j := range assignment {
		if j < 0 {
			continue
		}
		total += cost.At(i, j)
		matched++
	}
	if matched == 0 {
		return 0, false
	}
	return total / float64(matched), true
}
