package model

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWeights_MatchesDenseUpdates(t *testing.T) {
	tests := []struct {
		name             string
		rescaleThreshold float64
	}{
		{name: "lazy only", rescaleThreshold: 0},
		{name: "with eager rescaling", rescaleThreshold: 0.5},
		{name: "default threshold", rescaleThreshold: DefaultRescaleThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rand.New(rand.NewSource(3))
			for trial := 0; trial < 50; trial++ {
				numFeatures, numLabels := 1+r.Intn(5), 1+r.Intn(4)
				weights := NewWeights(numFeatures, numLabels)
				weights.RescaleThreshold = tt.rescaleThreshold
				dense := make([][]float64, numFeatures)
				for i := range dense {
					dense[i] = make([]float64, numLabels)
				}

				for op := 0; op < 200; op++ {
					if r.Intn(2) == 0 {
						factor := 0.5 + 0.5*r.Float64()
						weights.Scale(factor)
						for i := range dense {
							for j := range dense[i] {
								dense[i][j] *= factor
							}
						}
						continue
					}
					i := r.Intn(numFeatures)
					delta := make([]float64, numLabels)
					for j := range delta {
						delta[j] = r.NormFloat64()
						dense[i][j] += delta[j]
					}
					require.NoError(t, weights.Add(i, delta))
				}

				for i := range dense {
					require.InDeltaSlice(t, dense[i], weights.Get(i), 1e-9)
				}
			}
		})
	}
}

func TestWeights_Canonicalize(t *testing.T) {
	weights := NewWeights(2, 3)
	require.NoError(t, weights.Add(1, []float64{1, 2, 3}))
	weights.Scale(0.5)
	require.NoError(t, weights.Add(0, []float64{-1, 0, 4}))
	weights.Scale(0.25)

	before := [][]float64{weights.Get(0), weights.Get(1)}
	weights.Canonicalize()
	require.Equal(t, 1.0, weights.Scaling())
	once := weights.ToArray().Data()
	require.InDeltaSlice(t, before[0], weights.Get(0), 1e-12)
	require.InDeltaSlice(t, before[1], weights.Get(1), 1e-12)

	weights.Canonicalize()
	require.Equal(t, once, weights.ToArray().Data())
	require.InDeltaSlice(t, []float64{-0.25, 0, 1, 0.125, 0.25, 0.375}, once, 1e-12)
}

func TestWeights_ToArrayIsSnapshot(t *testing.T) {
	weights := NewWeights(1, 2)
	require.NoError(t, weights.Add(0, []float64{2, 4}))
	weights.Scale(0.5)

	snapshot := weights.ToArray()
	require.Equal(t, []float64{1, 2}, snapshot.Data())
	require.Equal(t, 0.5, weights.Scaling())

	require.NoError(t, weights.Add(0, []float64{1, 1}))
	require.Equal(t, []float64{1, 2}, snapshot.Data())
	require.InDeltaSlice(t, []float64{2, 3}, weights.Get(0), 1e-12)
}

func TestWeights_EagerRescale(t *testing.T) {
	weights := NewWeights(1, 1)
	weights.RescaleThreshold = 0.1
	require.NoError(t, weights.Add(0, []float64{1}))
	weights.Scale(0.5)
	require.Equal(t, 0.5, weights.Scaling())
	weights.Scale(0.1)
	require.Equal(t, 1.0, weights.Scaling())
	require.InDeltaSlice(t, []float64{0.05}, weights.Get(0), 1e-15)
}

func TestWeights_ScalingUnderflow(t *testing.T) {
	weights := NewWeights(2, 2)
	weights.RescaleThreshold = 0
	weights.Scale(1e-200)
	weights.Scale(1e-200)
	require.Equal(t, 0.0, weights.Scaling())

	err := weights.Add(1, []float64{1, 1})
	require.Error(t, err)
	var instability *NumericalInstabilityError
	require.True(t, errors.As(err, &instability))
	require.Equal(t, "weight scaling", instability.Quantity)
}

func TestWeights_AddWrongLength(t *testing.T) {
	weights := NewWeights(2, 2)
	require.Error(t, weights.Add(0, []float64{1}))
}
