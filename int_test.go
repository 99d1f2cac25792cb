package packing_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/stewi1014/packing"
	"github.com/stewi1014/packing/encio"
)

func TestIntRoundTrip(t *testing.T) {
	testCases := []struct {
		config packing.IntConfig
		values []int64
	}{
		{packing.IntConfig{Width: 1}, []int64{0, 1, 127, 128, 255}},
		{packing.IntConfig{Width: 1, Signed: true}, []int64{-128, -1, 0, 1, 127}},
		{packing.IntConfig{Width: 2, BigEndian: true}, []int64{0, 1, 256, 1<<16 - 1}},
		{packing.IntConfig{Width: 3}, []int64{0, 1<<24 - 1}},
		{packing.IntConfig{Width: 3, Signed: true, BigEndian: true}, []int64{-1 << 23, -1, 1<<23 - 1}},
		{packing.IntConfig{Width: 4, Bias: -5}, []int64{-5, 0, 1<<32 - 6}},
		{packing.IntConfig{Width: 8, Signed: true}, []int64{math.MinInt64, -1, 0, math.MaxInt64}},
		{packing.IntConfig{Width: 8}, []int64{0, math.MaxInt64}},
		{packing.IntConfig{Width: 8, Bias: math.MinInt64}, []int64{math.MinInt64, 0, math.MaxInt64}},
		{packing.IntConfig{Width: 8, Signed: true, Bias: math.MaxInt64}, []int64{-1, 0, math.MaxInt64}},
	}

	for _, tC := range testCases {
		d := packing.NewInt(tC.config)
		for _, v := range tC.values {
			t.Run(fmt.Sprintf("%v/%v", tC.config, v), func(t *testing.T) {
				encoded := testRoundTrip[int64](t, d, v)
				td.Cmp(t, len(encoded), tC.config.Width)
			})
		}
	}
}

func TestIntBoundary(t *testing.T) {
	d := packing.NewInt(packing.IntConfig{Width: 1})

	for _, v := range []int64{0, 255} {
		data, err := packing.Marshal[int64](d, v)
		td.CmpNoError(t, err)
		td.Cmp(t, data, []byte{byte(v)})
	}

	for _, v := range []int64{256, -1} {
		buff := new(bytes.Buffer)
		err := d.Encode(v, buff)
		td.CmpTrue(t, errors.Is(err, encio.ErrRange), "encoding %v", v)
		td.Cmp(t, buff.Len(), 0, "nothing written for %v", v)
	}
}

func TestIntSignedBias(t *testing.T) {
	d := packing.NewInt(packing.IntConfig{Width: 2, Signed: true, Bias: 100})

	data, err := packing.Marshal[int64](d, 50)
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{0xCE, 0xFF})

	v, err := packing.Unmarshal[int64](d, []byte{0xCE, 0xFF})
	td.CmpNoError(t, err)
	td.Cmp(t, v, int64(50))

	_, err = packing.Marshal[int64](d, 100+math.MaxInt16+1)
	td.CmpTrue(t, errors.Is(err, encio.ErrRange))

	_, err = packing.Marshal[int64](d, 100+math.MinInt16)
	td.CmpNoError(t, err)
}

func TestIntEndianness(t *testing.T) {
	little := packing.NewInt(packing.IntConfig{Width: 4})
	big := packing.NewInt(packing.IntConfig{Width: 4, BigEndian: true})

	data, err := packing.Marshal[int64](little, 0x0A0B0C0D)
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{0x0D, 0x0C, 0x0B, 0x0A})

	data, err = packing.Marshal[int64](big, 0x0A0B0C0D)
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{0x0A, 0x0B, 0x0C, 0x0D})
}

func TestIntWideRange(t *testing.T) {
	// Unsigned 8 byte fields hold values above math.MaxInt64 when the bias brings them back into range.
	d := packing.NewInt(packing.IntConfig{Width: 8, Bias: -10})

	data, err := packing.Marshal[int64](d, math.MaxInt64)
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{9, 0, 0, 0, 0, 0, 0, 0x80})

	// A stored value whose logical value overflows int64.
	_, err = packing.Unmarshal[int64](packing.NewInt(packing.IntConfig{Width: 8}), []byte{0, 0, 0, 0, 0, 0, 0, 0x80})
	td.CmpTrue(t, errors.Is(err, encio.ErrRange))

	// Difference overflows int64, but still fits the field.
	d = packing.NewInt(packing.IntConfig{Width: 8, Bias: math.MinInt64})
	data, err = packing.Marshal[int64](d, math.MaxInt64)
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
}

func TestIntTruncated(t *testing.T) {
	d := packing.NewInt(packing.IntConfig{Width: 4})
	_, err := d.Decode(bytes.NewReader([]byte{1, 2}))
	td.CmpTrue(t, errors.Is(err, encio.ErrTruncated))
}

func TestIntBadConfig(t *testing.T) {
	for _, width := range []int{0, 9, -1} {
		td.CmpPanic(t, func() { packing.NewInt(packing.IntConfig{Width: width}) }, td.Isa((*encio.Error)(nil)), "width %v", width)
	}
}
