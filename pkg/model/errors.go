package model

import "fmt"

// NumericalInstabilityError signals a quantity that left the range where
// training is well defined, e.g. a negative loss or a shrinkage factor that
// is not positive.
type NumericalInstabilityError struct {
	Quantity string
	Value    float64

	// Line is the dataset line of the offending document, 0 when the failure
	// is not tied to a document.
	Line int
}

func (e *NumericalInstabilityError) Error() string {
	if e.Line <= 0 {
		return fmt.Sprintf("numerical instability: %s = %g", e.Quantity, e.Value)
	}
	return fmt.Sprintf("numerical instability at line %d: %s = %g", e.Line, e.Quantity, e.Value)
}
