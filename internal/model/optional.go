package model

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent field from an explicit null and from a value.
// The zero Optional is absent.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// Ptr returns nil unless a value is present.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON is only invoked for keys present in the document,
// so reaching it always means Set.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var zero T
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	o.Value = zero
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
