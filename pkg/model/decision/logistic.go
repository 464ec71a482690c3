package decision

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Logistic treats every label as an independent binary decision.
type Logistic struct{}

func (Logistic) Name() string { return LogisticLoss }

func (Logistic) Decide(scores, y, gold, settings []float64) (*Decision, error) {
	probs := make([]float64, len(scores))
	loss := 0.0
	for j, s := range scores {
		probs[j] = 1 / (1 + math.Exp(-s))
		// -log(sigmoid(s)) = softplus(-s), -log(1 - sigmoid(s)) = softplus(s)
		loss += gold[j]*softplus(-s) + (1-gold[j])*softplus(s)
	}

	delta := make([]float64, len(probs))
	floats.SubTo(delta, probs, gold)

	return &Decision{
		Probs:     probs,
		Loss:      loss,
		Delta:     delta,
		Predicted: threshold(probs, settings),
	}, nil
}

func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}
