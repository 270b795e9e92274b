package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PolyFit returns the least-squares polynomial coefficients of ys against
// xs, lowest order first. The degree is capped at one less than the number
// of distinct x values.
func PolyFit(xs, ys []float64, degree int) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, ErrNoSamples
	}
	if degree < 0 {
		return nil, fmt.Errorf("negative degree %d", degree)
	}
	if d := distinct(xs) - 1; degree > d {
		degree = d
	}

	n, cols := len(xs), degree+1
	a := mat.NewDense(n, cols, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), ys...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least-squares solve failed: %w", err)
		}
	}

	coeffs := make([]float64, cols)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}
	return coeffs, nil
}

// PolyEval evaluates the polynomial with coefficients lowest order first.
func PolyEval(coeffs []float64, x float64) float64 {
	y := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}

// FitLabel names a best-fit curve of the given degree.
func FitLabel(degree int) string {
	switch degree {
	case 1:
		return "Linear Best Fit"
	case 2:
		return "Quadratic Best Fit"
	case 3:
		return "Cubic Best Fit"
	default:
		return "Best Fit"
	}
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
