package packing

import (
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// NewStruct returns a new fixed-arity struct Descriptor with the given field Descriptors, in order.
// Heterogeneous fields are adapted with Any.
// It panics if a field is nil.
func NewStruct(fields ...Descriptor[any]) *Struct {
	for i, f := range fields {
		if f == nil {
			panic(encio.NewError(encio.ErrBadConfig, fmt.Sprintf("nil Descriptor for field %v", i), "packing.NewStruct"))
		}
	}

	return &Struct{
		fields: append([]Descriptor[any](nil), fields...),
	}
}

// Struct is a Descriptor for fixed-size tuples of heterogeneous fields.
// Fields are written back to back in declared order. The arity is never written;
// it is a contract shared by both ends.
type Struct struct {
	fields []Descriptor[any]
}

// Arity returns the number of fields.
func (e *Struct) Arity() int { return len(e.fields) }

// Field returns the Descriptor for field i.
func (e *Struct) Field(i int) Descriptor[any] { return e.fields[i] }

// Size implements Sized.
func (e *Struct) Size() int {
	size := 0
	for _, f := range e.fields {
		fs := SizeOf(f)
		if fs < 0 {
			return -1
		}
		size += fs
	}
	return size
}

// Encode implements Descriptor.
// A tuple of the wrong length returns an Error wrapping ErrArity, and nothing is written.
func (e *Struct) Encode(v []any, w io.Writer) error {
	if len(v) != len(e.fields) {
		return encio.NewError(encio.ErrArity, fmt.Sprintf("got %v fields but struct has %v", len(v), len(e.fields)), "packing.Struct")
	}

	for i, f := range e.fields {
		if err := f.Encode(v[i], w); err != nil {
			return encio.AtPath(err, fmt.Sprint(i))
		}
	}
	return nil
}

// Decode implements Descriptor.
func (e *Struct) Decode(r io.Reader) ([]any, error) {
	v := make([]any, len(e.fields))
	for i, f := range e.fields {
		field, err := f.Decode(r)
		if err != nil {
			return nil, encio.AtPath(err, fmt.Sprint(i))
		}
		v[i] = field
	}
	return v, nil
}
