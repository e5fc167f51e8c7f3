package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrModelNotComparable is returned when a model cannot act as part of a map
// key. Bind pointers (to structs or Records) instead of values.
var ErrModelNotComparable = errors.New("model: model type is not comparable")

// FieldIdentifier identifies one bindable field: the model instance that
// owns it plus the field's dotted path within that model.
type FieldIdentifier struct {
	Model any
	Field string
}

// NewFieldIdentifier validates the model reference and trims the field path.
func NewFieldIdentifier(model any, field string) (FieldIdentifier, error) {
	if model == nil {
		return FieldIdentifier{}, errors.New("model: field identifier requires a model")
	}
	if err := CheckComparable(model); err != nil {
		return FieldIdentifier{}, err
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return FieldIdentifier{}, errors.New("model: field identifier requires a field name")
	}
	return FieldIdentifier{Model: model, Field: field}, nil
}

// CheckComparable returns ErrModelNotComparable for maps, slices, funcs and
// structs containing them.
func CheckComparable(model any) error {
	t := reflect.TypeOf(model)
	if t == nil || !t.Comparable() {
		return fmt.Errorf("%w: %v", ErrModelNotComparable, t)
	}
	return nil
}

// IsZero reports whether the identifier is unset.
func (id FieldIdentifier) IsZero() bool {
	return id.Model == nil && id.Field == ""
}

func (id FieldIdentifier) String() string {
	return fmt.Sprintf("%T.%s", id.Model, id.Field)
}
