package io

import (
	"math/rand"
)

// DataSet iterates over documents one at a time in a configurable order.
type DataSet struct {
	Data         []*Document
	Rand         *rand.Rand
	currentOrder []int
	currentIndex int
}

type DatasetOrder int

const (
	OriginalOrder DatasetOrder = iota
	RandomOrder
)

func (d *DataSet) ResetOrder(order DatasetOrder) {
	if d.currentOrder == nil {
		d.currentOrder = make([]int, len(d.Data))
	}
	switch order {
	case OriginalOrder:
		for i := range d.currentOrder {
			d.currentOrder[i] = i
		}
	case RandomOrder:
		copy(d.currentOrder, d.Rand.Perm(len(d.currentOrder)))
	}

	d.currentIndex = 0
}

// Next returns the next document, or nil once the pass is over.
func (d *DataSet) Next() *Document {
	if d.currentIndex >= len(d.currentOrder) {
		return nil
	}
	doc := d.Data[d.currentOrder[d.currentIndex]]
	d.currentIndex++
	return doc
}

func (d *DataSet) Size() int {
	return len(d.Data)
}

func NewDataSet(data []*Document, rnd *rand.Rand) *DataSet {
	ds := &DataSet{Data: data, Rand: rnd}
	ds.ResetOrder(OriginalOrder)
	return ds
}
