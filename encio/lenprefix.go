package encio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Length-prefixed byte strings are written as
//
//	[length: width bytes, unsigned little endian][payload: length bytes]
//
// Sequences of them carry a count of the same form in front.

// chunkSize is the largest read buffer allocated up front for a decoded length.
// Longer payloads are read incrementally so a corrupt length can't force a large allocation for a short source.
const chunkSize = 1 << 16

// ReadN reads exactly n bytes from r.
// It returns an IOError wrapping ErrTruncated if r ends early,
// and an Error wrapping ErrMalformed if n exceeds TooBig.
func ReadN(r io.Reader, n uint64) ([]byte, error) {
	if n > TooBig {
		return nil, NewError(ErrMalformed, fmt.Sprintf("length of %v bytes is too big", n), "encio.ReadN")
	}

	if n <= chunkSize {
		buff := make([]byte, n)
		return buff, Read(buff, r)
	}

	var buff bytes.Buffer
	buff.Grow(chunkSize)
	got, err := io.CopyN(&buff, r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrTruncated
		}
		return nil, NewIOError(err, fmt.Sprintf("want %v bytes but only got %v", n, got))
	}
	return buff.Bytes(), nil
}

// WriteLengthPrefixed writes len(payload) as an unsigned little endian integer of width bytes, followed by payload.
// If the length doesn't fit in width bytes, an Error wrapping ErrRange is returned and nothing is written.
func WriteLengthPrefixed(w io.Writer, payload []byte, width int) error {
	if err := CheckWidth(width); err != nil {
		return err
	}
	if err := WriteUint(w, uint64(len(payload)), width, false); err != nil {
		return err
	}
	return Write(payload, w)
}

// ReadLengthPrefixed reads a byte string written by WriteLengthPrefixed.
func ReadLengthPrefixed(r io.Reader, width int) ([]byte, error) {
	if err := CheckWidth(width); err != nil {
		return nil, err
	}
	n, err := ReadUint(r, width, false)
	if err != nil {
		return nil, err
	}
	return ReadN(r, n)
}

// AppendLengthPrefixed appends the length-prefixed form of payload to dst.
func AppendLengthPrefixed(dst, payload []byte, width int) ([]byte, error) {
	if err := CheckWidth(width); err != nil {
		return dst, err
	}
	if !WideUint(uint64(len(payload))).FitsUnsigned(width) {
		return dst, NewError(ErrRange, fmt.Sprintf("length %v does not fit in %v unsigned bytes", len(payload), width), "encio.AppendLengthPrefixed")
	}

	var head [MaxWidth]byte
	PutUint(head[:width], uint64(len(payload)), false)
	dst = append(dst, head[:width]...)
	return append(dst, payload...), nil
}

// UnpackLengthPrefixed extracts a length-prefixed byte string from buff starting at pos.
// It returns the payload, which aliases buff, and the position just after it.
// buff is never modified, so many values can be unpacked from one buffer by threading the returned position.
func UnpackLengthPrefixed(buff []byte, width int, pos int) ([]byte, int, error) {
	if err := CheckWidth(width); err != nil {
		return nil, pos, err
	}
	if pos < 0 || pos > len(buff) {
		return nil, pos, NewError(ErrMalformed, fmt.Sprintf("position %v is outside of a %v byte buffer", pos, len(buff)), "encio.UnpackLengthPrefixed")
	}

	end := pos + width
	if end > len(buff) {
		return nil, pos, NewIOError(ErrTruncated, fmt.Sprintf("want %v length bytes at %v but buffer is %v bytes", width, pos, len(buff)))
	}

	n := Uint(buff[pos:end], false)
	if n > uint64(len(buff)-end) {
		return nil, pos, NewIOError(ErrTruncated, fmt.Sprintf("want %v bytes at %v but buffer is %v bytes", n, end, len(buff)))
	}

	next := end + int(n)
	return buff[end:next:next], next, nil
}

// WriteSequence writes len(items) as an unsigned little endian integer of countWidth bytes,
// then each item as a length-prefixed byte string with itemWidth length bytes.
// Every length is checked before anything is written.
func WriteSequence(w io.Writer, items [][]byte, countWidth, itemWidth int) error {
	if err := CheckWidth(countWidth); err != nil {
		return err
	}
	if err := CheckWidth(itemWidth); err != nil {
		return err
	}
	for i, item := range items {
		if !WideUint(uint64(len(item))).FitsUnsigned(itemWidth) {
			return AtPath(NewError(ErrRange, fmt.Sprintf("length %v does not fit in %v unsigned bytes", len(item), itemWidth), "encio.WriteSequence"), fmt.Sprintf("[%v]", i))
		}
	}

	if err := WriteUint(w, uint64(len(items)), countWidth, false); err != nil {
		return err
	}
	for i, item := range items {
		if err := WriteLengthPrefixed(w, item, itemWidth); err != nil {
			return AtPath(err, fmt.Sprintf("[%v]", i))
		}
	}
	return nil
}

// ReadSequence reads a sequence written by WriteSequence.
func ReadSequence(r io.Reader, countWidth, itemWidth int) ([][]byte, error) {
	if err := CheckWidth(countWidth); err != nil {
		return nil, err
	}
	n, err := ReadUint(r, countWidth, false)
	if err != nil {
		return nil, err
	}
	if n > TooBig {
		return nil, NewError(ErrMalformed, fmt.Sprintf("sequence of %v items is too big", n), "encio.ReadSequence")
	}

	items := make([][]byte, 0, CapHint(n))
	for i := uint64(0); i < n; i++ {
		item, err := ReadLengthPrefixed(r, itemWidth)
		if err != nil {
			return nil, AtPath(err, fmt.Sprintf("[%v]", i))
		}
		items = append(items, item)
	}
	return items, nil
}

// CapHint returns a safe initial capacity for a collection of n decoded elements.
func CapHint(n uint64) int {
	if n > chunkSize {
		return chunkSize
	}
	return int(n)
}
