package encio

import (
	"fmt"
	"io"
	"math/bits"
)

// MaxWidth is the widest integer field, in bytes, that can be encoded.
const MaxWidth = 8

// CheckWidth returns an error wrapping ErrBadConfig if width is not a usable integer field width.
func CheckWidth(width int) error {
	if width < 1 || width > MaxWidth {
		return NewError(ErrBadConfig, fmt.Sprintf("integer width %v is not between 1 and %v bytes", width, MaxWidth), "encio.CheckWidth")
	}
	return nil
}

// PutUint writes the low len(buff) bytes of n to buff.
func PutUint(buff []byte, n uint64, bigEndian bool) {
	if bigEndian {
		for i := len(buff) - 1; i >= 0; i-- {
			buff[i] = uint8(n)
			n >>= 8
		}
		return
	}

	for i := range buff {
		buff[i] = uint8(n)
		n >>= 8
	}
}

// Uint reads an unsigned integer from all of buff.
func Uint(buff []byte, bigEndian bool) (n uint64) {
	if bigEndian {
		for _, b := range buff {
			n = n<<8 | uint64(b)
		}
		return n
	}

	for i := len(buff) - 1; i >= 0; i-- {
		n = n<<8 | uint64(buff[i])
	}
	return n
}

// SignExtend interprets the low width bytes of n as a two's complement integer.
func SignExtend(n uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(n<<shift) >> shift
}

// Wide is a 128 bit two's complement integer.
// It holds the sum or difference of any two int64s or uint64s exactly,
// so value/bias arithmetic can be range checked after the fact.
type Wide struct {
	Hi int64
	Lo uint64
}

// WideInt returns n as a Wide.
func WideInt(n int64) Wide {
	return Wide{Hi: n >> 63, Lo: uint64(n)}
}

// WideUint returns n as a Wide.
func WideUint(n uint64) Wide {
	return Wide{Lo: n}
}

// Add returns a + n.
func (a Wide) Add(n int64) Wide {
	b := WideInt(n)
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	return Wide{Hi: a.Hi + b.Hi + int64(carry), Lo: lo}
}

// Sub returns a - n.
func (a Wide) Sub(n int64) Wide {
	b := WideInt(n)
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	return Wide{Hi: a.Hi - b.Hi - int64(borrow), Lo: lo}
}

// Int64 returns a as an int64, and whether it fits.
func (a Wide) Int64() (int64, bool) {
	return int64(a.Lo), a.Hi == int64(a.Lo)>>63
}

// FitsUnsigned reports whether a can be stored as an unsigned integer of width bytes.
func (a Wide) FitsUnsigned(width int) bool {
	if a.Hi != 0 {
		return false
	}
	return width >= 8 || a.Lo < 1<<(8*uint(width))
}

// FitsSigned reports whether a can be stored as a two's complement integer of width bytes.
func (a Wide) FitsSigned(width int) bool {
	n, ok := a.Int64()
	if !ok {
		return false
	}
	if width >= 8 {
		return true
	}
	limit := int64(1) << (8*uint(width) - 1)
	return n >= -limit && n < limit
}

// String implements fmt.Stringer.
func (a Wide) String() string {
	if n, ok := a.Int64(); ok {
		return fmt.Sprint(n)
	}
	if a.Hi == 0 {
		return fmt.Sprint(a.Lo)
	}
	return fmt.Sprintf("0x%x_%016x", a.Hi, a.Lo)
}

// WriteUint writes n to w as an unsigned integer of width bytes.
// If n doesn't fit, an Error wrapping ErrRange is returned and nothing is written.
func WriteUint(w io.Writer, n uint64, width int, bigEndian bool) error {
	if !WideUint(n).FitsUnsigned(width) {
		return NewError(ErrRange, fmt.Sprintf("%v does not fit in %v unsigned bytes", n, width), "encio.WriteUint")
	}

	var buff [MaxWidth]byte
	PutUint(buff[:width], n, bigEndian)
	return Write(buff[:width], w)
}

// ReadUint reads an unsigned integer of width bytes from r.
func ReadUint(r io.Reader, width int, bigEndian bool) (uint64, error) {
	var buff [MaxWidth]byte
	if err := Read(buff[:width], r); err != nil {
		return 0, err
	}
	return Uint(buff[:width], bigEndian), nil
}
