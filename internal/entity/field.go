package entity

// Field is an extracted value with the extractor's confidence in [0,1].
// Confidence 0 means not found.
type Field[T any] struct {
	Value      *T      `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
}

func Found[T any](v T, confidence float64) Field[T] {
	return Field[T]{Value: &v, Confidence: confidence}
}

func Missing[T any]() Field[T] {
	return Field[T]{}
}

// Present reports whether a value was extracted.
func (f Field[T]) Present() bool {
	return f.Value != nil && f.Confidence > 0
}

// ValueOr returns the value or def when absent.
func (f Field[T]) ValueOr(def T) T {
	if f.Value == nil {
		return def
	}
	return *f.Value
}
