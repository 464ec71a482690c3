package pkg

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"multilabel/pkg/io"
	"multilabel/pkg/model"
	"multilabel/pkg/model/decision"
)

// LossTolerance is the most negative per-document loss accepted as rounding
// noise.
const LossTolerance = 1e-9

type TrainingParameters struct {
	LossType       string
	NumEpochs      int
	LearningRate   float64
	Regularization float64

	// Sweep overrides the default hyperparameter settings of the loss type.
	Sweep []float64

	Shuffle        bool
	RndSeed        int64
	PrintAllLabels bool
}

// EpochResult summarizes one pass over the training data.
type EpochResult struct {
	Epoch int

	// Loss is the mean training loss per document.
	Loss           float64
	Regularization float64

	// Accuracy holds the training micro accuracy of every sweep setting.
	Accuracy []float64
	Elapsed  time.Duration
}

type Trainer struct {
	params   TrainingParameters
	strategy decision.Strategy
	sweep    decision.Sweep
	metaData *model.Metadata
	weights  *model.Weights

	// t counts the documents processed across all epochs.
	t     int
	epoch int
}

func NewTrainer(params TrainingParameters, metaData *model.Metadata) (*Trainer, error) {
	strategy, err := decision.New(params.LossType)
	if err != nil {
		return nil, err
	}
	sweep, err := decision.DefaultSweep(params.LossType)
	if err != nil {
		return nil, err
	}
	if len(params.Sweep) > 0 {
		sweep.Values = params.Sweep
	}

	switch {
	case params.NumEpochs < 0:
		return nil, errors.Errorf("number of epochs must not be negative, got %d", params.NumEpochs)
	case !(params.LearningRate > 0) || math.IsInf(params.LearningRate, 0):
		return nil, errors.Errorf("learning rate must be positive, got %g", params.LearningRate)
	case !(params.Regularization >= 0) || math.IsInf(params.Regularization, 0):
		return nil, errors.Errorf("regularization constant must not be negative, got %g", params.Regularization)
	case metaData.NumLabels == 0:
		return nil, errors.New("no labels to train")
	}

	return &Trainer{
		params:   params,
		strategy: strategy,
		sweep:    sweep,
		metaData: metaData,
		weights:  model.NewWeights(metaData.NumFeatures, metaData.NumLabels),
	}, nil
}

func (t *Trainer) Sweep() decision.Sweep {
	return t.sweep
}

// TrainEpoch runs one stochastic gradient pass over data.
func (t *Trainer) TrainEpoch(data *io.DataSet) (*EpochResult, error) {
	tic := time.Now()
	t.epoch++
	counts := newCounts(len(t.sweep.Values), t.metaData.NumLabels)

	loss := 0.0
	for doc := data.Next(); doc != nil; doc = data.Next() {
		docLoss, err := t.trainDocument(doc, counts)
		if err != nil {
			return nil, err
		}
		loss += docLoss
	}

	t.weights.Canonicalize()
	w := t.weights.ToArray().Data()

	result := &EpochResult{
		Epoch:          t.epoch,
		Loss:           safeDiv(loss, float64(data.Size()), nil),
		Regularization: 0.5 * t.params.Regularization * floats.Dot(w, w),
		Accuracy:       make([]float64, len(counts)),
	}
	for k, c := range counts {
		result.Accuracy[k] = c.accuracy()
	}
	result.Elapsed = time.Since(tic)
	return result, nil
}

func (t *Trainer) trainDocument(doc *io.Document, counts []*counts) (float64, error) {
	y, gold := doc.LabelDistribution(t.metaData.NumLabels)
	eta := t.params.LearningRate / math.Sqrt(float64(t.t+1))
	t.t++

	scores := make([]float64, t.metaData.NumLabels)
	for _, f := range doc.Features {
		floats.AddScaled(scores, f.Value, t.weights.Get(f.ID))
	}

	d, err := t.strategy.Decide(scores, y, gold, t.sweep.Values)
	if err != nil {
		return 0, errors.Wrapf(err, "document at line %d", doc.Line)
	}
	if d.Loss < -LossTolerance || math.IsNaN(d.Loss) {
		return 0, &model.NumericalInstabilityError{Quantity: t.strategy.Name() + " loss", Value: d.Loss, Line: doc.Line}
	}

	for k, predicted := range d.Predicted {
		counts[k].observe(gold, predicted)
	}

	if shrinkage := eta * t.params.Regularization; shrinkage >= 1 {
		return 0, &model.NumericalInstabilityError{Quantity: "learning rate * regularization", Value: shrinkage, Line: doc.Line}
	}
	t.weights.Scale(1 - eta*t.params.Regularization)

	gradient := make([]float64, len(d.Delta))
	for _, f := range doc.Features {
		floats.ScaleTo(gradient, -eta*f.Value, d.Delta)
		if err := t.weights.Add(f.ID, gradient); err != nil {
			return 0, errors.Wrapf(err, "document at line %d, feature %d", doc.Line, f.ID)
		}
	}
	return d.Loss, nil
}

// Model returns a frozen snapshot of the current weights.
func (t *Trainer) Model() *model.Model {
	t.weights.Canonicalize()
	return &model.Model{
		MetaData: t.metaData,
		LossType: t.strategy.Name(),
		Weights:  t.weights.ToArray(),
	}
}

// TrainResult collects everything reported during a run.
type TrainResult struct {
	Model  *model.Model
	Epochs []*EpochResult
	Dev    []*Evaluation
	Test   *Evaluation
}

// Train learns a classifier on trainFile. The dev file, if any, is evaluated
// after every epoch and the test file, if any, once training is over.
func Train(trainFile, devFile, testFile, outputFile string, trainingParams TrainingParameters) (*TrainResult, error) {
	metaData, data, err := io.LoadData(io.DataParameters{DataFile: trainFile}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error reading training data")
	}
	if len(data) == 0 {
		return nil, errors.Errorf("no data to train in %s", trainFile)
	}
	log.Info().Str("File", trainFile).Int("Documents", len(data)).
		Int("Features", metaData.NumFeatures).Int("Labels", metaData.NumLabels).Msg("loaded training data")

	t, err := NewTrainer(trainingParams, metaData)
	if err != nil {
		return nil, err
	}

	dataSet := io.NewDataSet(data, rand.New(rand.NewSource(trainingParams.RndSeed)))
	order := io.OriginalOrder
	if trainingParams.Shuffle {
		order = io.RandomOrder
	}

	result := &TrainResult{}
	for epoch := 0; epoch < trainingParams.NumEpochs; epoch++ {
		dataSet.ResetOrder(order)
		epochResult, err := t.TrainEpoch(dataSet)
		if err != nil {
			return nil, errors.Wrapf(err, "epoch %d", epoch+1)
		}
		result.Epochs = append(result.Epochs, epochResult)
		logEpoch(epochResult, t.sweep)

		if devFile != "" {
			evaluation, err := timedTest(t.Model(), t.sweep, devFile, "", trainingParams.PrintAllLabels)
			if err != nil {
				return nil, err
			}
			result.Dev = append(result.Dev, evaluation)
		}
	}

	result.Model = t.Model()
	if testFile != "" {
		log.Info().Msg("Running on the test set")
		result.Test, err = timedTest(result.Model, t.sweep, testFile, outputFile, trainingParams.PrintAllLabels)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func timedTest(m *model.Model, sweep decision.Sweep, fileName, outputFile string, printAllLabels bool) (*Evaluation, error) {
	tic := time.Now()
	evaluation, err := Test(m, sweep, fileName, outputFile)
	if err != nil {
		return nil, err
	}
	evaluation.LogMetrics(printAllLabels)
	log.Info().Dur("TimeToTest", time.Since(tic)).Msg("")
	return evaluation, nil
}

func logEpoch(r *EpochResult, sweep decision.Sweep) {
	log.Info().Int("Epoch", r.Epoch).
		Float64("Reg", r.Regularization).
		Float64("Loss", r.Loss).
		Float64("RegLoss", r.Regularization+r.Loss).
		Dur("Time", r.Elapsed).
		Msg("")
	for k, value := range sweep.Values {
		log.Info().Float64(sweep.Name, value).Float64("AccTrain", r.Accuracy[k]).Msg("")
	}
}
