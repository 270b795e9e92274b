package emd

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Assign solves the rectangular linear assignment problem for cost.
// It returns assignment[i] = column matched to row i, or -1 when row i is
// left unmatched (only possible when there are more rows than columns).
// Every row of the smaller dimension is matched and the total cost of the
// matching is minimal.
func Assign(cost mat.Matrix) []int {
	rows, cols := cost.Dims()
	if rows == 0 {
		return nil
	}
	result := make([]int, rows)
	for i := range result {
		result[i] = -1
	}
	if cols == 0 {
		return result
	}

	if rows <= cols {
		copy(result, assignWide(cost))
		return result
	}

	// More rows than columns: solve the transpose and invert the mapping.
	colToRow := assignWide(cost.T())
	for j, i := range colToRow {
		if i >= 0 {
			result[i] = j
		}
	}
	return result
}

// assignWide runs the Kuhn-Munkres algorithm with potentials
// (Jonker-Volgenant shortest augmenting path) on an n×m matrix with n ≤ m.
// Arrays are 1-indexed; column 0 is a virtual column. A row whose reduced
// costs are all +Inf is left unassigned (-1).
func assignWide(cost mat.Matrix) []int {
	n, m := cost.Dims()
	inf := math.Inf(1)

	u := make([]float64, n+1) // row potentials
	v := make([]float64, m+1) // column potentials
	p := make([]int, m+1)     // p[j] = row matched to column j
	way := make([]int, m+1)   // previous column on the augmenting path
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		stuck := false
		for j := 0; j <= m; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				stuck = true
				break
			}

			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		if stuck {
			continue
		}

		// Augment along the path.
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowAssign := make([]int, n)
	for i := range rowAssign {
		rowAssign[i] = -1
	}
	for j := 1; j <= m; j++ {
		if p[j] > 0 {
			rowAssign[p[j]-1] = j - 1
		}
	}
	return rowAssign
}
