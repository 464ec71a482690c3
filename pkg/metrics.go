package pkg

import (
	"gonum.org/v1/gonum/stat"
)

// counts accumulates the label statistics of one hyperparameter setting over
// one pass. Training only reads matched and union.
type counts struct {
	matched   float64
	union     float64
	correct   float64
	total     float64
	predicted float64
	gold      float64

	matchedByLabel   []float64
	predictedByLabel []float64
	goldByLabel      []float64
}

func newCounts(numSettings, numLabels int) []*counts {
	result := make([]*counts, numSettings)
	for k := range result {
		result[k] = &counts{
			matchedByLabel:   make([]float64, numLabels),
			predictedByLabel: make([]float64, numLabels),
			goldByLabel:      make([]float64, numLabels),
		}
	}
	return result
}

// observe adds one document given its 0/1 gold and predicted label vectors.
func (c *counts) observe(gold, predicted []float64) {
	for l := range gold {
		isGold, isPredicted := gold[l] == 1, predicted[l] == 1
		if isPredicted {
			c.predictedByLabel[l]++
			c.predicted++
			if isGold {
				c.matchedByLabel[l]++
				c.matched++
			}
		}
		if isGold {
			c.goldByLabel[l]++
			c.gold++
		}
		if isGold || isPredicted {
			c.union++
		}
		if isGold == isPredicted {
			c.correct++
		}
		c.total++
	}
}

// accuracy is the Jaccard-style micro accuracy sum(matched) / sum(union).
func (c *counts) accuracy() float64 {
	return safeDiv(c.matched, c.union, nil)
}

type LabelMetrics struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
}

// SettingMetrics holds the evaluation metrics of one hyperparameter setting.
type SettingMetrics struct {
	Value float64

	Accuracy  float64
	Hamming   float64
	Precision float64
	Recall    float64
	F1        float64

	MacroPrecision float64
	MacroRecall    float64
	MacroF1        float64

	Labels []LabelMetrics

	// Degenerate counts the ratios that had a zero denominator and were
	// reported as 0.
	Degenerate int
}

func (c *counts) metrics(value float64) SettingMetrics {
	m := SettingMetrics{Value: value}
	m.Accuracy = safeDiv(c.matched, c.union, &m.Degenerate)
	m.Hamming = safeDiv(c.correct, c.total, &m.Degenerate)
	m.Precision = safeDiv(c.matched, c.predicted, &m.Degenerate)
	m.Recall = safeDiv(c.matched, c.gold, &m.Degenerate)
	m.F1 = f1(m.Precision, m.Recall, &m.Degenerate)

	numLabels := len(c.goldByLabel)
	precisions := make([]float64, numLabels)
	recalls := make([]float64, numLabels)
	m.Labels = make([]LabelMetrics, numLabels)
	for l := 0; l < numLabels; l++ {
		precisions[l] = safeDiv(c.matchedByLabel[l], c.predictedByLabel[l], &m.Degenerate)
		recalls[l] = safeDiv(c.matchedByLabel[l], c.goldByLabel[l], &m.Degenerate)
		m.Labels[l] = LabelMetrics{
			Label:     l,
			Precision: precisions[l],
			Recall:    recalls[l],
			F1:        f1(precisions[l], recalls[l], nil),
		}
	}

	// Undefined per-label ratios count as 0 and stay in the mean. Macro F1 is
	// the harmonic mean of macro precision and macro recall, not the mean of
	// the per-label F1 scores.
	if numLabels > 0 {
		m.MacroPrecision = stat.Mean(precisions, nil)
		m.MacroRecall = stat.Mean(recalls, nil)
	}
	m.MacroF1 = f1(m.MacroPrecision, m.MacroRecall, &m.Degenerate)
	return m
}

// safeDiv returns num/den, or 0 when den is 0. Zero denominators are counted
// in degenerate when it is not nil.
func safeDiv(num, den float64, degenerate *int) float64 {
	if den == 0 {
		if degenerate != nil {
			*degenerate++
		}
		return 0
	}
	return num / den
}

func f1(precision, recall float64, degenerate *int) float64 {
	return safeDiv(2*precision*recall, precision+recall, degenerate)
}
