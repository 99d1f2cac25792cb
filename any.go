package packing

import (
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// Any adapts d to a Descriptor of interface values, for use as a Struct field or in dynamically built trees.
// Encoding a value that isn't a T returns an Error wrapping ErrBadType.
func Any[T any](d Descriptor[T]) Descriptor[any] {
	if d == nil {
		panic(encio.NewError(encio.ErrBadConfig, "nil Descriptor", "packing.Any"))
	}
	if a, ok := any(d).(Descriptor[any]); ok {
		return a
	}
	return &anyDescriptor[T]{d: d}
}

type anyDescriptor[T any] struct {
	d Descriptor[T]
}

// Size implements Sized.
func (e *anyDescriptor[T]) Size() int {
	return SizeOf(e.d)
}

// Unwrap returns the adapted Descriptor.
func (e *anyDescriptor[T]) Unwrap() any {
	return e.d
}

func (e *anyDescriptor[T]) Encode(v any, w io.Writer) error {
	t, ok := v.(T)
	if !ok {
		var want T
		return encio.NewError(encio.ErrBadType, fmt.Sprintf("got %T but want %T", v, want), "packing.Any")
	}
	return e.d.Encode(t, w)
}

func (e *anyDescriptor[T]) Decode(r io.Reader) (any, error) {
	return e.d.Decode(r)
}
