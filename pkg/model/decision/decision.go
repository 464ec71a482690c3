// Package decision implements the output layers of the classifier. Each
// strategy turns a score vector into a probability-like vector, a training
// loss, the loss gradient with respect to the scores, and one predicted label
// set per hyperparameter setting.
package decision

import (
	"fmt"
	"sort"
	"strings"
)

const (
	SoftmaxLoss   = "softmax"
	SparsemaxLoss = "sparsemax"
	LogisticLoss  = "logistic"
)

// Decision is the outcome of running a strategy on one document.
type Decision struct {
	Probs []float64
	Loss  float64

	// Delta is the derivative of Loss with respect to the scores. The
	// gradient for a feature with value v is v * Delta.
	Delta []float64

	// Predicted holds one 0/1 label vector per hyperparameter setting.
	Predicted [][]float64
}

// Strategy is a loss and decision rule over score vectors.
type Strategy interface {
	Name() string

	// Decide evaluates the strategy on scores, given the normalized gold
	// distribution y and its 0/1 support gold.
	Decide(scores, y, gold, settings []float64) (*Decision, error)
}

// Sweep is the ordered list of hyperparameter settings evaluated side by side.
type Sweep struct {
	Name   string
	Values []float64
}

// UnsupportedLossTypeError is returned for an unknown strategy name.
type UnsupportedLossTypeError struct {
	Name string
}

func (e *UnsupportedLossTypeError) Error() string {
	return fmt.Sprintf("unsupported loss type %q (expected one of %s)", e.Name, strings.Join(Names(), ", "))
}

var registry = map[string]func() Strategy{
	SoftmaxLoss:   func() Strategy { return Softmax{} },
	SparsemaxLoss: func() Strategy { return Sparsemax{} },
	LogisticLoss:  func() Strategy { return Logistic{} },
}

// New returns the strategy with the given name.
func New(name string) (Strategy, error) {
	constructor, ok := registry[name]
	if !ok {
		return nil, &UnsupportedLossTypeError{Name: name}
	}
	return constructor(), nil
}

// Names lists the supported strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultSweep returns the settings swept for a strategy when none are
// configured.
func DefaultSweep(name string) (Sweep, error) {
	switch name {
	case SoftmaxLoss:
		return Sweep{Name: "softmax_thres", Values: []float64{.01, .02, .03, .04, .05, .06, .07, .08, .09, .1}}, nil
	case SparsemaxLoss:
		return Sweep{Name: "sparsemax_scale", Values: []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}}, nil
	case LogisticLoss:
		return Sweep{Name: "logistic_thres", Values: []float64{.1, .2, .3, .4, .5, .6, .7}}, nil
	}
	return Sweep{}, &UnsupportedLossTypeError{Name: name}
}

func threshold(probs []float64, settings []float64) [][]float64 {
	predicted := make([][]float64, len(settings))
	for k, thr := range settings {
		labels := make([]float64, len(probs))
		for j, p := range probs {
			if p > thr {
				labels[j] = 1
			}
		}
		predicted[k] = labels
	}
	return predicted
}
