package model

// UnknownFeature is the feature id every out-of-vocabulary feature maps to.
const UnknownFeature = 0

// Metadata describes the shape of the problem as learned from the training
// data.
type Metadata struct {
	// NumFeatures is the vocabulary size including the UNK id.
	NumFeatures int

	// NumLabels is the number of output labels.
	NumLabels int
}

func NewMetadata() *Metadata {
	return &Metadata{NumFeatures: 1}
}

// AddFeature grows the vocabulary so that id is in range.
func (d *Metadata) AddFeature(id int) {
	if id >= d.NumFeatures {
		d.NumFeatures = id + 1
	}
}

// AddLabel grows the label set so that label is in range.
func (d *Metadata) AddLabel(label int) {
	if label >= d.NumLabels {
		d.NumLabels = label + 1
	}
}

// FeatureIndex maps a feature id to its weight row, sending ids outside the
// vocabulary to UnknownFeature.
func (d *Metadata) FeatureIndex(id int) int {
	if id >= d.NumFeatures {
		return UnknownFeature
	}
	return id
}

func (d *Metadata) ContainsLabel(label int) bool {
	return label >= 0 && label < d.NumLabels
}
