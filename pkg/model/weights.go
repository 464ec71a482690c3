package model

import (
	"math"

	"github.com/nlpodyssey/spago/pkg/mat"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DefaultRescaleThreshold is the scaling magnitude below which Scale folds the
// accumulated factor back into the stored matrix.
const DefaultRescaleThreshold = 1e-9

// Weights is a features x labels matrix stored as raw * scaling, so that a
// global multiplicative shrinkage costs O(1) and a sparse row update costs
// O(labels).
type Weights struct {
	raw     *mat.Dense
	scaling float64

	// RescaleThreshold triggers an eager Canonicalize inside Scale. Zero
	// disables it.
	RescaleThreshold float64
}

func NewWeights(numFeatures, numLabels int) *Weights {
	return &Weights{
		raw:              mat.NewEmptyDense(numFeatures, numLabels),
		scaling:          1,
		RescaleThreshold: DefaultRescaleThreshold,
	}
}

func (w *Weights) NumFeatures() int {
	return w.raw.Rows()
}

func (w *Weights) NumLabels() int {
	return w.raw.Columns()
}

// Scaling returns the pending multiplicative factor.
func (w *Weights) Scaling() float64 {
	return w.scaling
}

// Get returns a copy of the effective row i.
func (w *Weights) Get(i int) []float64 {
	row := make([]float64, w.NumLabels())
	floats.ScaleTo(row, w.scaling, w.row(i))
	return row
}

// Scale multiplies every effective weight by factor.
func (w *Weights) Scale(factor float64) {
	w.scaling *= factor
	if w.RescaleThreshold > 0 && math.Abs(w.scaling) < w.RescaleThreshold {
		w.Canonicalize()
	}
}

// Add adds delta to the effective row i, whatever the accumulated scaling is.
func (w *Weights) Add(i int, delta []float64) error {
	if len(delta) != w.NumLabels() {
		return errors.Errorf("weights: delta has %d entries, expected %d", len(delta), w.NumLabels())
	}
	if !usableScaling(w.scaling) {
		return &NumericalInstabilityError{Quantity: "weight scaling", Value: w.scaling}
	}
	floats.AddScaled(w.row(i), 1/w.scaling, delta)
	return nil
}

// Canonicalize folds the scaling into the stored matrix.
func (w *Weights) Canonicalize() {
	if w.scaling == 1 {
		return
	}
	w.raw.ProdScalarInPlace(w.scaling)
	w.scaling = 1
}

// ToArray returns a fresh copy of the effective matrix.
func (w *Weights) ToArray() *mat.Dense {
	effective := w.raw.Clone().(*mat.Dense)
	if w.scaling != 1 {
		effective.ProdScalarInPlace(w.scaling)
	}
	return effective
}

func (w *Weights) row(i int) []float64 {
	cols := w.NumLabels()
	return w.raw.Data()[i*cols : (i+1)*cols]
}

// smallest positive normal float64; below it 1/scaling loses precision or
// overflows.
const minNormal = 0x1p-1022

func usableScaling(s float64) bool {
	return math.Abs(s) >= minNormal && !math.IsInf(s, 0) && !math.IsNaN(s)
}
