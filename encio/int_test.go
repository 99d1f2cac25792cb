package encio_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/stewi1014/packing/encio"
)

func TestUint(t *testing.T) {
	testCases := []uint64{
		0, 1, 2, 3, 4,
		246, 247, 248, 249, 250, 251, 252, 253, 254, 255, 256, 257,
		1 << 8, 1 << 16, 1 << 24, 1<<32 - 1, 1 << 40, 1<<64 - 1,
	}

	for width := 1; width <= encio.MaxWidth; width++ {
		for _, bigEndian := range []bool{false, true} {
			for _, tC := range testCases {
				if !encio.WideUint(tC).FitsUnsigned(width) {
					continue
				}

				t.Run(fmt.Sprintf("%v/%v/%v", width, bigEndian, tC), func(t *testing.T) {
					buff := new(bytes.Buffer)

					if err := encio.WriteUint(buff, tC, width, bigEndian); err != nil {
						t.Fatal(err)
					}
					td.Cmp(t, buff.Len(), width)

					n, err := encio.ReadUint(buff, width, bigEndian)
					if err != nil {
						t.Fatal(err)
					}

					if n != tC {
						t.Fatalf("Wrong number, wanted: %v, got %v", tC, n)
					}

					if buff.Len() != 0 {
						t.Fatalf("data remaining in buffer %v", buff.Bytes())
					}
				})
			}
		}
	}
}

func TestPutUint(t *testing.T) {
	buff := make([]byte, 3)

	encio.PutUint(buff, 0x010203, false)
	td.Cmp(t, buff, []byte{3, 2, 1})
	td.Cmp(t, encio.Uint(buff, false), uint64(0x010203))

	encio.PutUint(buff, 0x010203, true)
	td.Cmp(t, buff, []byte{1, 2, 3})
	td.Cmp(t, encio.Uint(buff, true), uint64(0x010203))
}

func TestWriteUintRange(t *testing.T) {
	buff := new(bytes.Buffer)
	err := encio.WriteUint(buff, 256, 1, false)
	td.CmpTrue(t, errors.Is(err, encio.ErrRange))
	td.Cmp(t, buff.Len(), 0)
}

func TestSignExtend(t *testing.T) {
	td.Cmp(t, encio.SignExtend(0xFF, 1), int64(-1))
	td.Cmp(t, encio.SignExtend(0x7F, 1), int64(127))
	td.Cmp(t, encio.SignExtend(0xFFCE, 2), int64(-50))
	td.Cmp(t, encio.SignExtend(0x800000, 3), int64(-1<<23))
	td.Cmp(t, encio.SignExtend(1<<63, 8), int64(math.MinInt64))
}

func TestWide(t *testing.T) {
	testCases := []struct {
		desc     string
		n        encio.Wide
		unsigned int // smallest width that fits, or 0 for none
		signed   int
	}{
		{
			desc:     "Zero",
			n:        encio.WideInt(0),
			unsigned: 1,
			signed:   1,
		},
		{
			desc:     "255",
			n:        encio.WideInt(255),
			unsigned: 1,
			signed:   2,
		},
		{
			desc:   "-128",
			n:      encio.WideInt(-128),
			signed: 1,
		},
		{
			desc:   "-129",
			n:      encio.WideInt(-129),
			signed: 2,
		},
		{
			desc:     "MaxUint64",
			n:        encio.WideUint(math.MaxUint64),
			unsigned: 8,
		},
		{
			desc: "MaxInt64 + 1 - MinInt64",
			n:    encio.WideInt(math.MaxInt64).Add(1).Sub(math.MinInt64),
		},
		{
			desc: "MinInt64 - 1",
			n:    encio.WideInt(math.MinInt64).Sub(1),
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			for width := 1; width <= encio.MaxWidth; width++ {
				td.Cmp(t, tC.n.FitsUnsigned(width), fits(tC.unsigned, width), "unsigned width %v", width)
				td.Cmp(t, tC.n.FitsSigned(width), fits(tC.signed, width), "signed width %v", width)
			}
		})
	}
}

func fits(smallest, width int) bool {
	return smallest != 0 && width >= smallest
}

func TestWideArithmetic(t *testing.T) {
	n, ok := encio.WideInt(math.MaxInt64).Add(math.MaxInt64).Sub(math.MaxInt64).Int64()
	td.CmpTrue(t, ok)
	td.Cmp(t, n, int64(math.MaxInt64))

	_, ok = encio.WideInt(math.MaxInt64).Add(1).Int64()
	td.CmpFalse(t, ok)

	td.Cmp(t, encio.WideUint(math.MaxUint64).String(), "18446744073709551615")
	td.Cmp(t, encio.WideInt(-5).String(), "-5")
}

func TestCheckWidth(t *testing.T) {
	td.CmpNoError(t, encio.CheckWidth(1))
	td.CmpNoError(t, encio.CheckWidth(8))
	td.CmpTrue(t, errors.Is(encio.CheckWidth(0), encio.ErrBadConfig))
	td.CmpTrue(t, errors.Is(encio.CheckWidth(9), encio.ErrBadConfig))
}
