package model

import (
	"github.com/nlpodyssey/spago/pkg/mat"
	"gonum.org/v1/gonum/floats"
)

// Feature is one active entry of a sparse document.
type Feature struct {
	ID    int
	Value float64
}

// Model is a frozen classifier: the problem shape and a canonical weight
// snapshot. It is used for evaluation only and never written to disk.
type Model struct {
	MetaData *Metadata
	LossType string
	Weights  *mat.Dense
}

// Scores computes sum(value * W[id, :]) over the active features.
func (m *Model) Scores(features []Feature) []float64 {
	numLabels := m.Weights.Columns()
	data := m.Weights.Data()
	scores := make([]float64, numLabels)
	for _, f := range features {
		floats.AddScaled(scores, f.Value, data[f.ID*numLabels:(f.ID+1)*numLabels])
	}
	return scores
}
