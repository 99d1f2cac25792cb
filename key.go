package packing

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/stewi1014/packing/encio"
)

// Freeze returns a Descriptor with the same layout as array, whose values are comparable Tuples instead of slices.
// It is how sequences are used as Map keys; decoded keys are materialised as immutable Tuples.
//
// Tuples compare equal when they hold the same elements and come from the same Array,
// so element Descriptors must encode deterministically (anything but Map).
func Freeze[T any](array *Array[T]) *Frozen[T] {
	if array == nil {
		panic(encio.NewError(encio.ErrBadConfig, "nil Array", "packing.Freeze"))
	}
	return &Frozen[T]{array: array}
}

// Frozen is a Descriptor for Tuples, laid out exactly as its Array.
type Frozen[T any] struct {
	array *Array[T]
}

// Array returns the underlying Array Descriptor.
func (e *Frozen[T]) Array() *Array[T] { return e.array }

// Tuple builds a Tuple holding elems.
// It fails if elems cannot be encoded by the underlying Array.
func (e *Frozen[T]) Tuple(elems ...T) (Tuple[T], error) {
	var buff bytes.Buffer
	if err := e.array.Encode(elems, &buff); err != nil {
		return Tuple[T]{}, err
	}

	return Tuple[T]{
		wire:  buff.String(),
		n:     len(elems),
		array: e.array,
	}, nil
}

// Encode implements Descriptor.
func (e *Frozen[T]) Encode(v Tuple[T], w io.Writer) error {
	if v.array == e.array {
		return encio.Write([]byte(v.wire), w)
	}
	return e.array.Encode(v.Elems(), w)
}

// Decode implements Descriptor.
func (e *Frozen[T]) Decode(r io.Reader) (Tuple[T], error) {
	elems, err := e.array.Decode(r)
	if err != nil {
		return Tuple[T]{}, err
	}

	// Re-encoding gives the canonical form, so equal elements always make equal Tuples.
	return e.Tuple(elems...)
}

// Tuple is an immutable, comparable sequence of T.
// The zero Tuple is empty.
type Tuple[T any] struct {
	wire  string
	n     int
	array *Array[T]
}

// Len returns the number of elements.
func (t Tuple[T]) Len() int { return t.n }

// Elems returns a new slice holding the Tuple's elements.
func (t Tuple[T]) Elems() []T {
	if t.array == nil {
		return []T{}
	}

	elems, err := t.array.Decode(strings.NewReader(t.wire))
	if err != nil {
		// wire was produced by the same Array.
		panic(encio.NewError(err, "decoding frozen tuple", "packing.Tuple"))
	}
	return elems
}

// Index returns element i. It panics if i is out of range.
func (t Tuple[T]) Index(i int) T {
	if i < 0 || i >= t.n {
		panic(fmt.Sprintf("packing: tuple index %v out of range [0:%v]", i, t.n))
	}
	return t.Elems()[i]
}

// String implements fmt.Stringer.
func (t Tuple[T]) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range t.Elems() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, elem)
	}
	b.WriteByte(')')
	return b.String()
}
