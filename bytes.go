package packing

import (
	"io"

	"github.com/stewi1014/packing/encio"
)

// NewBytes returns a new length-prefixed byte string Descriptor.
// It panics if length.Width is out of range.
func NewBytes(length LengthField) *Bytes {
	length.check()
	return &Bytes{length: length}
}

// Bytes is a Descriptor for raw byte strings, prefixed by their byte count.
// It is the byte special case of Array, without per-element overhead.
//
// Nil and empty slices both encode as a zero length; decoding always returns a non-nil slice.
type Bytes struct {
	length LengthField
}

// Length returns the Bytes' length field configuration.
func (e *Bytes) Length() LengthField { return e.length }

// Encode implements Descriptor.
func (e *Bytes) Encode(v []byte, w io.Writer) error {
	if err := e.length.encode(len(v), w); err != nil {
		return err
	}
	return encio.Write(v, w)
}

// Decode implements Descriptor.
func (e *Bytes) Decode(r io.Reader) ([]byte, error) {
	n, err := e.length.decode(r)
	if err != nil {
		return nil, err
	}
	return encio.ReadN(r, n)
}

// NewString returns a new length-prefixed string Descriptor.
// It panics if length.Width is out of range.
func NewString(length LengthField) *String {
	length.check()
	return &String{bytes: Bytes{length: length}}
}

// String is a Descriptor with the same layout as Bytes, but its values are strings.
// Being comparable, they can be used as Map keys.
// The payload is not checked for valid UTF-8.
type String struct {
	bytes Bytes
}

// Length returns the String's length field configuration.
func (e *String) Length() LengthField { return e.bytes.length }

// Encode implements Descriptor.
func (e *String) Encode(v string, w io.Writer) error {
	return e.bytes.Encode([]byte(v), w)
}

// Decode implements Descriptor.
func (e *String) Decode(r io.Reader) (string, error) {
	b, err := e.bytes.Decode(r)
	return string(b), err
}
