package packing

import (
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// LengthField configures the unsigned count or byte-length prefix of a collection.
//
// The stored field is the collection's length minus Bias,
// which lets e.g. a 0-based stored count represent a collection that always has at least one element.
type LengthField struct {
	// Width is the field size in bytes, from 1 to encio.MaxWidth.
	Width int

	// Bias is subtracted from the length before it is stored. A length smaller than Bias cannot be encoded.
	Bias int64

	// BigEndian stores the most significant byte first. The default is little endian.
	BigEndian bool
}

func (l LengthField) check() {
	if err := encio.CheckWidth(l.Width); err != nil {
		panic(err)
	}
}

// encode writes the length field for a collection of n elements.
// Nothing is written if it doesn't fit.
func (l LengthField) encode(n int, w io.Writer) error {
	stored := encio.WideInt(int64(n)).Sub(l.Bias)
	if stored.Hi < 0 {
		return encio.NewError(encio.ErrRange, fmt.Sprintf("length %v is less than bias %v", n, l.Bias), "packing.LengthField")
	}
	if !stored.FitsUnsigned(l.Width) {
		return encio.NewError(encio.ErrRange, fmt.Sprintf("length %v stored as %v does not fit in %v bytes", n, stored, l.Width), "packing.LengthField")
	}

	var buff [encio.MaxWidth]byte
	encio.PutUint(buff[:l.Width], stored.Lo, l.BigEndian)
	return encio.Write(buff[:l.Width], w)
}

// decode reads a length field, returning the biased length.
func (l LengthField) decode(r io.Reader) (uint64, error) {
	u, err := encio.ReadUint(r, l.Width, l.BigEndian)
	if err != nil {
		return 0, err
	}

	n, ok := encio.WideUint(u).Add(l.Bias).Int64()
	if !ok || n < 0 {
		return 0, encio.NewError(encio.ErrMalformed, fmt.Sprintf("stored length %v with bias %v is not a valid length", u, l.Bias), "packing.LengthField")
	}
	if uint64(n) > encio.TooBig {
		return 0, encio.NewError(encio.ErrMalformed, fmt.Sprintf("length %v is too big", n), "packing.LengthField")
	}
	return uint64(n), nil
}
