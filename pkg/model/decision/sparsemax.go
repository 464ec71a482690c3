package decision

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"multilabel/pkg/model/simplex"
)

// Sparsemax projects the scores onto the probability simplex. Predictions at
// scale c are the support of the projection of c * scores.
type Sparsemax struct{}

func (Sparsemax) Name() string { return SparsemaxLoss }

func (Sparsemax) Decide(scores, y, gold, settings []float64) (*Decision, error) {
	probs, tau, _, err := simplex.Project(scores, 1)
	if err != nil {
		return nil, errors.Wrap(err, "sparsemax")
	}
	support := simplex.Support(probs)

	quadratic := 0.0
	for j, s := range scores {
		quadratic += (s*s - tau*tau) * support[j]
	}
	loss := -floats.Dot(scores, y) + 0.5*quadratic + 0.5/floats.Sum(gold)

	delta := make([]float64, len(probs))
	floats.SubTo(delta, probs, y)

	predicted := make([][]float64, len(settings))
	scaled := make([]float64, len(scores))
	for k, scale := range settings {
		floats.ScaleTo(scaled, scale, scores)
		scaledProbs, _, _, err := simplex.Project(scaled, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "sparsemax at scale %g", scale)
		}
		predicted[k] = simplex.Support(scaledProbs)
	}

	return &Decision{
		Probs:     probs,
		Loss:      loss,
		Delta:     delta,
		Predicted: predicted,
	}, nil
}
