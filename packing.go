// Package packing provides composable binary Descriptors with explicit, caller-controlled byte layouts.
//
// A Descriptor knows how to encode one shape of value to an io.Writer and decode it back from an io.Reader.
// Descriptors are built once, possibly nested, and then used for many values:
//
//	point := packing.NewStruct(
//		packing.Any[int64](packing.NewInt(packing.IntConfig{Width: 2, Signed: true})),
//		packing.Any[[]byte](packing.NewBytes(packing.LengthField{Width: 1})),
//	)
//
//	err := point.Encode([]any{int64(-3), []byte("hi")}, w)
//
// The format is schema-on-both-ends; nothing about the shape is written, so the same Descriptor tree must be used to decode.
// All multi-byte integers have a configured width and endianness (little endian by default), and no padding is ever inserted.
//
// Descriptors hold no per-call state and are safe for concurrent use, as long as each call has its own io.Writer or io.Reader.
// On failure, a call may have partially written to or read from its stream; use Marshal to buffer output before committing it.
//
// packing/encio provides the byte level primitives and error types.
package packing

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// Descriptor is an Encoder and Decoder for one shape of value.
//
// Encode writes v to w, returning an error if v cannot be represented.
// Decode reads exactly what Encode wrote from r; no extra data is read.
//
// Errors are encio.Error or encio.IOError values wrapping one of encio's sentinel errors,
// with a Path naming the failing field inside composite Descriptors.
type Descriptor[T any] interface {
	Encode(v T, w io.Writer) error
	Decode(r io.Reader) (T, error)
}

// Sized is implemented by Descriptors that encode to a bounded size.
type Sized interface {
	// Size returns the maximum encoded size of the Descriptor.
	// If Size returns <0, size is undefined.
	Size() int
}

// SizeOf returns the maximum encoded size of d, or -1 if it isn't bounded.
func SizeOf(d any) int {
	if s, ok := d.(Sized); ok {
		return s.Size()
	}
	return -1
}

// Marshal encodes v with d into a new buffer.
// Nothing is returned on failure, so callers writing to a shared stream can commit the bytes only once encoding succeeds.
func Marshal[T any](d Descriptor[T], v T) ([]byte, error) {
	var buff bytes.Buffer
	if size := SizeOf(d); size > 0 {
		buff.Grow(size)
	}

	if err := d.Encode(v, &buff); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Unmarshal decodes a single value with d from data.
// data must hold exactly one value; trailing bytes are reported as ErrMalformed.
func Unmarshal[T any](d Descriptor[T], data []byte) (T, error) {
	r := bytes.NewReader(data)
	v, err := d.Decode(r)
	if err != nil {
		return v, err
	}

	if r.Len() != 0 {
		var zero T
		return zero, encio.NewError(encio.ErrMalformed, fmt.Sprintf("%v trailing bytes after value", r.Len()), "packing.Unmarshal")
	}
	return v, nil
}

// Unpack decodes a single value with d from buff, starting at pos.
// It returns the value and the position just after it; buff is never modified,
// so independent values can be decoded out of one buffer by threading the position through.
// On error, the given position is returned.
func Unpack[T any](d Descriptor[T], buff []byte, pos int) (T, int, error) {
	var zero T
	if pos < 0 || pos > len(buff) {
		return zero, pos, encio.NewError(encio.ErrMalformed, fmt.Sprintf("position %v is outside of a %v byte buffer", pos, len(buff)), "packing.Unpack")
	}

	r := bytes.NewReader(buff[pos:])
	v, err := d.Decode(r)
	if err != nil {
		return zero, pos, err
	}
	return v, len(buff) - r.Len(), nil
}
