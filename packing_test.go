package packing_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/stewi1014/packing"
	"github.com/stewi1014/packing/encio"
)

// testRoundTrip encodes v, checks it decodes back to v with nothing left over, and returns the encoded bytes.
func testRoundTrip[T any](t *testing.T, d packing.Descriptor[T], v T) []byte {
	t.Helper()
	buff := new(bytes.Buffer)

	if err := d.Encode(v, buff); err != nil {
		t.Fatal(err)
	}
	encoded := append([]byte(nil), buff.Bytes()...)

	got, err := d.Decode(buff)
	if err != nil {
		t.Fatal(err)
	}

	td.Cmp(t, got, v)

	if buff.Len() != 0 {
		t.Fatalf("data remaining in buffer %v", buff.Bytes())
	}
	return encoded
}

func u8() *packing.Int {
	return packing.NewInt(packing.IntConfig{Width: 1})
}

func TestMarshal(t *testing.T) {
	d := packing.NewStruct(
		packing.Any[int64](packing.NewInt(packing.IntConfig{Width: 4, BigEndian: true})),
		packing.Any[string](packing.NewString(packing.LengthField{Width: 2})),
	)

	data, err := packing.Marshal[[]any](d, []any{int64(0x01020304), "abc"})
	td.CmpNoError(t, err)
	td.Cmp(t, data, []byte{1, 2, 3, 4, 3, 0, 'a', 'b', 'c'})

	v, err := packing.Unmarshal[[]any](d, data)
	td.CmpNoError(t, err)
	td.Cmp(t, v, []any{int64(0x01020304), "abc"})

	_, err = packing.Unmarshal[[]any](d, append(data, 0))
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))

	_, err = packing.Marshal[[]any](d, []any{int64(1)})
	td.CmpTrue(t, errors.Is(err, encio.ErrArity))
}

func TestUnpack(t *testing.T) {
	d := packing.NewBytes(packing.LengthField{Width: 1})
	buff := []byte{2, 'h', 'i', 0, 3, 'a', 'b', 'c'}
	orig := append([]byte(nil), buff...)

	var got [][]byte
	pos := 0
	for pos < len(buff) {
		v, next, err := packing.Unpack[[]byte](d, buff, pos)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		pos = next
	}

	td.Cmp(t, got, [][]byte{[]byte("hi"), {}, []byte("abc")})
	td.Cmp(t, buff, orig)

	_, pos, err := packing.Unpack[[]byte](d, []byte{5, 'a'}, 0)
	td.CmpTrue(t, errors.Is(err, encio.ErrTruncated))
	td.Cmp(t, pos, 0)

	_, _, err = packing.Unpack[[]byte](d, buff, 9)
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
}

func TestSizeOf(t *testing.T) {
	td.Cmp(t, packing.SizeOf(u8()), 1)
	td.Cmp(t, packing.SizeOf(packing.NewBytes(packing.LengthField{Width: 1})), -1)

	fixed := packing.NewStruct(
		packing.Any[int64](u8()),
		packing.Any[int64](packing.NewInt(packing.IntConfig{Width: 8})),
	)
	td.Cmp(t, packing.SizeOf(fixed), 9)

	open := packing.NewStruct(
		packing.Any[int64](u8()),
		packing.Any[[]byte](packing.NewBytes(packing.LengthField{Width: 1})),
	)
	td.Cmp(t, packing.SizeOf(open), -1)
}

func TestNestedErrorPath(t *testing.T) {
	d := packing.NewArray[[]any](
		packing.NewStruct(
			packing.Any[int64](u8()),
			packing.Any[int64](u8()),
		),
		packing.LengthField{Width: 1},
	)

	buff := new(bytes.Buffer)
	err := d.Encode([][]any{{int64(1), int64(2)}, {int64(3), int64(300)}}, buff)
	td.CmpTrue(t, errors.Is(err, encio.ErrRange))

	var encErr *encio.Error
	if !errors.As(err, &encErr) {
		t.Fatalf("%v is not an encio.Error", err)
	}
	td.Cmp(t, encErr.Path, []string{"[1]", "1"})
	td.Cmp(t, err.Error(), td.Contains("[1].1"))

	_, err = d.Decode(bytes.NewReader([]byte{2, 1, 2, 3}))
	td.CmpTrue(t, errors.Is(err, encio.ErrTruncated))

	var ioErr *encio.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("%v is not an encio.IOError", err)
	}
	td.Cmp(t, ioErr.Path, []string{"[1]", "1"})
}

func TestConcurrentUse(t *testing.T) {
	d := packing.NewArray[int64](packing.NewInt(packing.IntConfig{Width: 2, Signed: true}), packing.LengthField{Width: 1})
	want := []int64{-3, 0, 1000}

	done := make(chan error)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				data, err := packing.Marshal[[]int64](d, want)
				if err != nil {
					done <- err
					return
				}
				if _, err := packing.Unmarshal[[]int64](d, data); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}

	for i := 0; i < 8; i++ {
		td.CmpNoError(t, <-done)
	}
}
