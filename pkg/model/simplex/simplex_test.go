package simplex

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const tolerance = 1e-9

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		radius   float64
		expected []float64
		tau      float64
	}{
		{
			name:     "already on simplex",
			input:    []float64{0.5, 0.5},
			radius:   1,
			expected: []float64{0.5, 0.5},
			tau:      0,
		},
		{
			name:     "single winner",
			input:    []float64{2, 0},
			radius:   1,
			expected: []float64{1, 0},
			tau:      1,
		},
		{
			name:     "ties",
			input:    []float64{1, 1, 1},
			radius:   1,
			expected: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
			tau:      2.0 / 3,
		},
		{
			name:     "full support below simplex",
			input:    []float64{0.1, 0.2, 0.3},
			radius:   1,
			expected: []float64{0.1 + 0.4/3, 0.2 + 0.4/3, 0.3 + 0.4/3},
			tau:      -0.4 / 3,
		},
		{
			name:     "radius two",
			input:    []float64{3, 1},
			radius:   2,
			expected: []float64{2, 0},
			tau:      1,
		},
		{
			name:     "unsorted input keeps order",
			input:    []float64{-1, 4, 0.5, 3.8},
			radius:   1,
			expected: []float64{0, 0.6, 0, 0.4},
			tau:      3.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, tau, residual, err := Project(tt.input, tt.radius)
			require.NoError(t, err)
			require.InDeltaSlice(t, tt.expected, x, tolerance)
			require.InDelta(t, tt.tau, tau, tolerance)
			require.InDelta(t, 0.5*squaredDistance(x, tt.input), residual, tolerance)
		})
	}
}

func TestProjectDoesNotModifyInput(t *testing.T) {
	input := []float64{0.3, -2, 5}
	_, _, _, err := Project(input, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{0.3, -2, 5}, input)
}

func TestProjectInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		radius float64
	}{
		{name: "empty", input: []float64{}, radius: 1},
		{name: "zero radius", input: []float64{1, 2}, radius: 0},
		{name: "negative radius", input: []float64{1, 2}, radius: -1},
		{name: "nan radius", input: []float64{1, 2}, radius: math.NaN()},
		{name: "nan entry", input: []float64{1, math.NaN()}, radius: 1},
		{name: "infinite entry", input: []float64{math.Inf(1), 0}, radius: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Project(tt.input, tt.radius)
			require.Error(t, err)
			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
		})
	}
}

func TestProjectMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		d := 1 + r.Intn(6)
		radius := 0.1 + 3*r.Float64()
		a := make([]float64, d)
		for i := range a {
			a[i] = 4*r.NormFloat64() - 1
		}

		x, tau, _, err := Project(a, radius)
		require.NoError(t, err)

		for i := range x {
			require.True(t, x[i] >= 0)
			require.InDelta(t, math.Max(a[i]-tau, 0), x[i], tolerance)
		}
		require.InDelta(t, radius, floats.Sum(x), 1e-9)

		best := bruteForceProjection(a, radius)
		require.InDeltaSlice(t, best, x, 1e-7)
	}
}

func TestSupport(t *testing.T) {
	require.Equal(t, []float64{0, 1, 1, 0}, Support([]float64{0, 0.2, -3, 0}))
	require.Equal(t, []float64{}, Support([]float64{}))
}

// bruteForceProjection enumerates every candidate support set and keeps the
// feasible point closest to a.
func bruteForceProjection(a []float64, radius float64) []float64 {
	d := len(a)
	var best []float64
	bestDistance := math.Inf(1)
	for mask := 1; mask < 1<<uint(d); mask++ {
		sum, count := 0.0, 0
		for i := 0; i < d; i++ {
			if mask&(1<<uint(i)) != 0 {
				sum += a[i]
				count++
			}
		}
		tau := (sum - radius) / float64(count)
		candidate := make([]float64, d)
		feasible := true
		for i := 0; i < d; i++ {
			if mask&(1<<uint(i)) != 0 {
				candidate[i] = a[i] - tau
				if candidate[i] < 0 {
					feasible = false
					break
				}
			}
		}
		if !feasible {
			continue
		}
		if distance := squaredDistance(candidate, a); distance < bestDistance {
			bestDistance = distance
			best = candidate
		}
	}
	return best
}

func squaredDistance(x, y []float64) float64 {
	return math.Pow(floats.Distance(x, y, 2), 2)
}
