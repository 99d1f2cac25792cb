package packing

import (
	"fmt"
	"io"

	"github.com/stewi1014/packing/encio"
)

// IntConfig configures a fixed-width integer field.
//
// IntConfig *must* be the same for Encoder and Decoder.
type IntConfig struct {
	// Width is the field size in bytes, from 1 to encio.MaxWidth.
	Width int

	// Bias is subtracted from values before they are stored, and added back when decoding.
	Bias int64

	// Signed stores values in two's complement.
	Signed bool

	// BigEndian stores the most significant byte first. The default is little endian.
	BigEndian bool
}

// String returns a short description of the config, i.e. "u16le" or "i8be+100".
func (c IntConfig) String() string {
	str := "u"
	if c.Signed {
		str = "i"
	}
	str += fmt.Sprint(8 * c.Width)
	if c.BigEndian {
		str += "be"
	} else {
		str += "le"
	}
	if c.Bias != 0 {
		str += fmt.Sprintf("%+d", c.Bias)
	}
	return str
}

// NewInt returns a new fixed-width integer Descriptor.
// It panics if config.Width is out of range.
func NewInt(config IntConfig) *Int {
	if err := encio.CheckWidth(config.Width); err != nil {
		panic(err)
	}
	return &Int{config: config}
}

// Int is a Descriptor for fixed-width integers.
// The stored field is the value minus Bias, which must fit the field's width and signedness.
type Int struct {
	config IntConfig
}

// Config returns the Int's configuration.
func (e *Int) Config() IntConfig { return e.config }

// Size implements Sized.
func (e *Int) Size() int { return e.config.Width }

// Encode implements Descriptor.
// If the stored value doesn't fit, an Error wrapping ErrRange is returned and nothing is written.
func (e *Int) Encode(v int64, w io.Writer) error {
	stored := encio.WideInt(v).Sub(e.config.Bias)

	if e.config.Signed {
		if !stored.FitsSigned(e.config.Width) {
			return e.rangeError(v, stored)
		}
	} else if !stored.FitsUnsigned(e.config.Width) {
		return e.rangeError(v, stored)
	}

	var buff [encio.MaxWidth]byte
	encio.PutUint(buff[:e.config.Width], stored.Lo, e.config.BigEndian)
	return encio.Write(buff[:e.config.Width], w)
}

func (e *Int) rangeError(v int64, stored encio.Wide) error {
	return encio.NewError(
		encio.ErrRange,
		fmt.Sprintf("%v stored as %v does not fit %v", v, stored, e.config),
		"packing.Int",
	)
}

// Decode implements Descriptor.
func (e *Int) Decode(r io.Reader) (int64, error) {
	u, err := encio.ReadUint(r, e.config.Width, e.config.BigEndian)
	if err != nil {
		return 0, err
	}

	stored := encio.WideUint(u)
	if e.config.Signed {
		stored = encio.WideInt(encio.SignExtend(u, e.config.Width))
	}

	v, ok := stored.Add(e.config.Bias).Int64()
	if !ok {
		return 0, encio.NewError(
			encio.ErrRange,
			fmt.Sprintf("stored %v plus bias %v overflows int64", stored, e.config.Bias),
			"packing.Int",
		)
	}
	return v, nil
}
