package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"multilabel/pkg/model"
)

const maxLineSize = 64 * 1024 * 1024

// Document is a sparse bag of features with its gold labels.
type Document struct {
	// Features are kept in file order. Ids are unique within a document.
	Features []model.Feature
	Labels   []int

	// Line is the 1-based line number in the source file.
	Line int
}

// LabelDistribution returns the uniform distribution over the gold labels and
// its 0/1 support.
func (d *Document) LabelDistribution(numLabels int) ([]float64, []float64) {
	gold := make([]float64, numLabels)
	for _, label := range d.Labels {
		gold[label] = 1
	}
	count := 0.0
	for _, g := range gold {
		count += g
	}
	y := make([]float64, numLabels)
	for j, g := range gold {
		y[j] = g / count
	}
	return y, gold
}

type DataParameters struct {
	DataFile string
}

// MalformedRecordError reports a dataset line that cannot be parsed.
type MalformedRecordError struct {
	File   string
	Line   int
	Token  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record at %q: %s", e.File, e.Line, e.Token, e.Reason)
}

// LoadData reads a multi-label dataset. When metaData is nil the vocabulary
// and label set are derived from the file; otherwise feature ids outside the
// vocabulary are mapped to the UNK feature and unknown labels are rejected.
func LoadData(p DataParameters, metaData *model.Metadata) (*model.Metadata, []*Document, error) {
	inputFile, err := os.Open(p.DataFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error opening file")
	}
	defer inputFile.Close()

	return ReadData(inputFile, p.DataFile, metaData)
}

// ReadData is LoadData over an arbitrary reader; name is used in errors.
func ReadData(input io.Reader, name string, metaData *model.Metadata) (*model.Metadata, []*Document, error) {
	newMetadata := false
	if metaData == nil {
		metaData = model.NewMetadata()
		newMetadata = true
	}

	var result []*Document
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	currentLine := 0
	for scanner.Scan() {
		currentLine++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		doc, err := ParseLine(line)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				malformed.File = name
				malformed.Line = currentLine
			}
			return nil, nil, err
		}
		doc.Line = currentLine

		if newMetadata {
			for _, f := range doc.Features {
				metaData.AddFeature(f.ID)
			}
			for _, label := range doc.Labels {
				metaData.AddLabel(label)
			}
		} else {
			for _, label := range doc.Labels {
				if !metaData.ContainsLabel(label) {
					return nil, nil, &MalformedRecordError{
						File:   name,
						Line:   currentLine,
						Token:  strconv.Itoa(label),
						Reason: fmt.Sprintf("label outside the %d known labels", metaData.NumLabels),
					}
				}
			}
			doc.Features = remapUnknown(metaData, doc.Features)
		}
		result = append(result, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "error reading %s", name)
	}

	return metaData, result, nil
}

// ParseLine parses "l1,l2,... id:value id:value ...".
func ParseLine(line string) (*Document, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &MalformedRecordError{Reason: "empty line"}
	}

	labels, err := parseLabels(fields[0])
	if err != nil {
		return nil, err
	}

	features := make([]model.Feature, 0, len(fields)-1)
	seen := make(map[int]struct{}, len(fields)-1)
	for _, field := range fields[1:] {
		nameValue := strings.Split(field, ":")
		if len(nameValue) != 2 {
			return nil, &MalformedRecordError{Token: field, Reason: "expected id:value"}
		}
		id, err := strconv.Atoi(nameValue[0])
		if err != nil {
			return nil, &MalformedRecordError{Token: field, Reason: "feature id is not an integer"}
		}
		if id <= 0 {
			return nil, &MalformedRecordError{Token: field, Reason: "feature id must be positive, 0 is reserved for UNK"}
		}
		value, err := strconv.ParseFloat(nameValue[1], 64)
		if err != nil {
			return nil, &MalformedRecordError{Token: field, Reason: "feature value is not a number"}
		}
		if _, ok := seen[id]; ok {
			return nil, &MalformedRecordError{Token: field, Reason: "duplicate feature id"}
		}
		seen[id] = struct{}{}
		features = append(features, model.Feature{ID: id, Value: value})
	}

	return &Document{Features: features, Labels: labels}, nil
}

func parseLabels(field string) ([]int, error) {
	var labels []int
	seen := map[int]struct{}{}
	for _, token := range strings.Split(field, ",") {
		label, err := strconv.Atoi(token)
		if err != nil {
			return nil, &MalformedRecordError{Token: field, Reason: "labels must be comma separated integers"}
		}
		if label < 0 {
			return nil, &MalformedRecordError{Token: field, Reason: "labels must be non-negative"}
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels, nil
}

// remapUnknown sends out-of-vocabulary ids to UNK. Several unknown features
// collapse into one UNK entry holding the last value seen.
func remapUnknown(metaData *model.Metadata, features []model.Feature) []model.Feature {
	result := features[:0]
	unknown := -1
	for _, f := range features {
		f.ID = metaData.FeatureIndex(f.ID)
		if f.ID == model.UnknownFeature {
			if unknown >= 0 {
				result[unknown].Value = f.Value
				continue
			}
			unknown = len(result)
		}
		result = append(result, f)
	}
	return result
}
