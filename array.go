package packing

import (
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// NewArray returns a new length-prefixed array Descriptor with elements encoded by elem.
// It panics if elem is nil or length.Width is out of range.
func NewArray[T any](elem Descriptor[T], length LengthField) *Array[T] {
	if elem == nil {
		panic(encio.NewError(encio.ErrBadConfig, "nil element Descriptor", "packing.NewArray"))
	}
	length.check()

	return &Array[T]{
		elem:   elem,
		length: length,
	}
}

// Array is a Descriptor for homogeneous sequences.
// The element count is written first, followed by each element back to back.
//
// Nil and empty slices both encode as a zero count; decoding always returns a non-nil slice.
type Array[T any] struct {
	elem   Descriptor[T]
	length LengthField
}

// Elem returns the element Descriptor.
func (e *Array[T]) Elem() Descriptor[T] { return e.elem }

// Length returns the Array's length field configuration.
func (e *Array[T]) Length() LengthField { return e.length }

// Encode implements Descriptor.
func (e *Array[T]) Encode(v []T, w io.Writer) error {
	if err := e.length.encode(len(v), w); err != nil {
		return err
	}

	for i := range v {
		if err := e.elem.Encode(v[i], w); err != nil {
			return encio.AtPath(err, fmt.Sprintf("[%v]", i))
		}
	}
	return nil
}

// Decode implements Descriptor.
// The first element error aborts decoding; no partial result is returned.
func (e *Array[T]) Decode(r io.Reader) ([]T, error) {
	n, err := e.length.decode(r)
	if err != nil {
		return nil, err
	}

	v := make([]T, 0, encio.CapHint(n))
	for i := uint64(0); i < n; i++ {
		elem, err := e.elem.Decode(r)
		if err != nil {
			return nil, encio.AtPath(err, fmt.Sprintf("[%v]", i))
		}
		v = append(v, elem)
	}
	return v, nil
}
