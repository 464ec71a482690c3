package decision

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax is the multinomial logistic output layer with cross-entropy loss
// against the normalized gold distribution.
type Softmax struct{}

func (Softmax) Name() string { return SoftmaxLoss }

func (Softmax) Decide(scores, y, gold, settings []float64) (*Decision, error) {
	maxScore := floats.Max(scores)
	probs := make([]float64, len(scores))
	for j, s := range scores {
		probs[j] = math.Exp(s - maxScore)
	}
	partition := floats.Sum(probs)
	floats.Scale(1/partition, probs)
	logPartition := maxScore + math.Log(partition)

	delta := make([]float64, len(probs))
	floats.SubTo(delta, probs, y)

	return &Decision{
		Probs:     probs,
		Loss:      -floats.Dot(scores, y) + logPartition,
		Delta:     delta,
		Predicted: threshold(probs, settings),
	}, nil
}
