package pkg

import (
	"fmt"
	gio "io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"multilabel/pkg/io"
	"multilabel/pkg/model"
	"multilabel/pkg/model/decision"
)

type NoopWriter struct{}

func (x NoopWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// Evaluation is the outcome of classifying one dataset with frozen weights.
type Evaluation struct {
	Name         string
	NumDocuments int

	// SquaredLoss is the mean over (document, label) pairs of (probs - y)².
	SquaredLoss float64

	Sweep    decision.Sweep
	Settings []SettingMetrics
}

// Test classifies the documents of inputFileName and, when outputFileName is
// set, writes the gold and predicted labels of every document to it.
func Test(m *model.Model, sweep decision.Sweep, inputFileName, outputFileName string) (*Evaluation, error) {
	_, data, err := io.LoadData(io.DataParameters{DataFile: inputFileName}, m.MetaData)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading data from %s", inputFileName)
	}

	var outputWriter gio.Writer = NoopWriter{}
	if outputFileName != "" {
		outputFile, err := os.Create(outputFileName)
		if err != nil {
			return nil, errors.Wrapf(err, "error opening output file %s", outputFileName)
		}
		defer outputFile.Close()
		outputWriter = outputFile
	}

	evaluation, err := Evaluate(m, sweep, data, outputWriter)
	if err != nil {
		return nil, errors.Wrapf(err, "error evaluating %s", inputFileName)
	}
	evaluation.Name = inputFileName
	return evaluation, nil
}

// Evaluate classifies documents with the frozen weights of m and computes the
// metrics of every setting of sweep.
func Evaluate(m *model.Model, sweep decision.Sweep, data []*io.Document, outputWriter gio.Writer) (*Evaluation, error) {
	strategy, err := decision.New(m.LossType)
	if err != nil {
		return nil, err
	}

	evaluator := newMultiLabelEvaluator(m, strategy, sweep, outputWriter)
	for _, doc := range data {
		if err := evaluator.EvaluateDocument(doc); err != nil {
			return nil, err
		}
	}
	return evaluator.Result(), nil
}

type multiLabelEvaluator struct {
	model        *model.Model
	strategy     decision.Strategy
	sweep        decision.Sweep
	counts       []*counts
	squaredLoss  float64
	numDocuments int
	outputWriter gio.Writer
}

func newMultiLabelEvaluator(m *model.Model, strategy decision.Strategy, sweep decision.Sweep, outputWriter gio.Writer) *multiLabelEvaluator {
	return &multiLabelEvaluator{
		model:        m,
		strategy:     strategy,
		sweep:        sweep,
		counts:       newCounts(len(sweep.Values), m.MetaData.NumLabels),
		outputWriter: outputWriter,
	}
}

func (e *multiLabelEvaluator) EvaluateDocument(doc *io.Document) error {
	y, gold := doc.LabelDistribution(e.model.MetaData.NumLabels)
	scores := e.model.Scores(doc.Features)

	d, err := e.strategy.Decide(scores, y, gold, e.sweep.Values)
	if err != nil {
		return errors.Wrapf(err, "document at line %d", doc.Line)
	}

	diff := make([]float64, len(y))
	floats.SubTo(diff, d.Probs, y)
	e.squaredLoss += floats.Dot(diff, diff)

	for k, predicted := range d.Predicted {
		e.counts[k].observe(gold, predicted)
	}
	e.numDocuments++

	columns := make([]string, 0, len(d.Predicted)+1)
	columns = append(columns, formatLabels(gold))
	for _, predicted := range d.Predicted {
		columns = append(columns, formatLabels(predicted))
	}
	fmt.Fprintln(e.outputWriter, strings.Join(columns, "\t"))
	return nil
}

func (e *multiLabelEvaluator) Result() *Evaluation {
	result := &Evaluation{
		NumDocuments: e.numDocuments,
		SquaredLoss:  safeDiv(e.squaredLoss, float64(e.numDocuments*e.model.MetaData.NumLabels), nil),
		Sweep:        e.sweep,
		Settings:     make([]SettingMetrics, len(e.sweep.Values)),
	}
	for k, value := range e.sweep.Values {
		result.Settings[k] = e.counts[k].metrics(value)
	}
	return result
}

// LogMetrics logs one line per setting and, if requested, one line per label.
func (r *Evaluation) LogMetrics(printAllLabels bool) {
	log.Info().Str("File", r.Name).Int("Documents", r.NumDocuments).Float64("SqLoss", r.SquaredLoss).Msg("")
	for _, s := range r.Settings {
		log.Info().Float64(r.Sweep.Name, s.Value).
			Float64("Acc", s.Accuracy).
			Float64("Hamming", s.Hamming).
			Float64("P", s.Precision).
			Float64("R", s.Recall).
			Float64("F1", s.F1).
			Float64("MacroP", s.MacroPrecision).
			Float64("MacroR", s.MacroRecall).
			Float64("MacroF1", s.MacroF1).
			Msg("")
		if s.Degenerate > 0 {
			log.Warn().Float64(r.Sweep.Name, s.Value).Int("Ratios", s.Degenerate).Msg("degenerate metric, zero denominators reported as 0")
		}
		if printAllLabels {
			for _, l := range s.Labels {
				log.Info().Int("Label", l.Label).
					Float64(r.Sweep.Name, s.Value).
					Float64("P", l.Precision).
					Float64("R", l.Recall).
					Float64("F1", l.F1).
					Msg("")
			}
		}
	}
}

func formatLabels(support []float64) string {
	var labels []string
	for l, v := range support {
		if v == 1 {
			labels = append(labels, strconv.Itoa(l))
		}
	}
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(labels, ",")
}
