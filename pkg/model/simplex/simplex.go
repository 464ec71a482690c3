// Package simplex implements the Euclidean projection of a point onto the
// probability simplex, the building block of the sparsemax transformation.
package simplex

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// InvalidInputError is returned when the projection preconditions do not hold.
type InvalidInputError struct {
	Dimension int
	Radius    float64
	Reason    string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("simplex: invalid projection input (d=%d, radius=%g): %s", e.Dimension, e.Radius, e.Reason)
}

// Project computes x = argmin ||x - a||² subject to x >= 0 and sum(x) = radius.
// It returns the projected point, the threshold tau such that
// x = max(a - tau, 0), and the residual 0.5 * ||x - a||².
// The input slice is not modified.
func Project(a []float64, radius float64) ([]float64, float64, float64, error) {
	d := len(a)
	switch {
	case d == 0:
		return nil, 0, 0, &InvalidInputError{Dimension: d, Radius: radius, Reason: "empty vector"}
	case math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0:
		return nil, 0, 0, &InvalidInputError{Dimension: d, Radius: radius, Reason: "radius must be positive and finite"}
	case !finite(a):
		return nil, 0, 0, &InvalidInputError{Dimension: d, Radius: radius, Reason: "vector is not finite"}
	}

	// Argsort orders ascending, so sort the negated values to get a
	// descending order of a.
	sorted := make([]float64, d)
	floats.ScaleTo(sorted, -1, a)
	order := make([]int, d)
	floats.Argsort(sorted, order)
	floats.Scale(-1, sorted)

	cumulative := floats.CumSum(make([]float64, d), sorted)

	rho := -1
	tau := 0.0
	for i := range sorted {
		val := (cumulative[i] - radius) / float64(i+1)
		if sorted[i] > val {
			rho = i
			tau = val
		}
	}
	if rho < 0 {
		return nil, 0, 0, &InvalidInputError{Dimension: d, Radius: radius, Reason: "no support found"}
	}

	x := make([]float64, d)
	residual := 0.0
	for i, v := range a {
		x[i] = math.Max(v-tau, 0)
		diff := x[i] - v
		residual += diff * diff
	}
	return x, tau, 0.5 * residual, nil
}

func finite(a []float64) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Support returns the 0/1 indicator vector of the nonzero entries of v.
func Support(v []float64) []float64 {
	support := make([]float64, len(v))
	for i, value := range v {
		if value != 0 {
			support[i] = 1
		}
	}
	return support
}
