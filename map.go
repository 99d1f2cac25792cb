package packing

import (
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/stewi1014/packing/encio"
)

// MapConfig configures a Map.
//
// MapConfig *must* be the same for Encoder and Decoder.
type MapConfig struct {
	// Length configures the pair count prefix.
	Length LengthField

	// Strict makes decoding a key that has already been seen an error wrapping ErrDuplicateKey.
	// By default the last pair for a key wins.
	Strict bool
}

// NewMap returns a new length-prefixed map Descriptor.
// Keys must be comparable; sequence keys are built with Freeze and byte string keys with String.
// It panics if key or val is nil, or config.Length.Width is out of range.
func NewMap[K comparable, V any](key Descriptor[K], val Descriptor[V], config MapConfig) *Map[K, V] {
	if key == nil || val == nil {
		panic(encio.NewError(encio.ErrBadConfig, "nil key or value Descriptor", "packing.NewMap"))
	}
	config.Length.check()

	return &Map[K, V]{
		key:    key,
		val:    val,
		config: config,
	}
}

// Map is a Descriptor for maps.
// The pair count is written first, followed by each key and its value, pair by pair.
//
// The wire format carries no ordering; Encode writes pairs in Go's map iteration order,
// so encoding the same map twice may give different bytes. Use EncodeSorted when deterministic output is needed.
type Map[K comparable, V any] struct {
	key    Descriptor[K]
	val    Descriptor[V]
	config MapConfig
}

// Pair is a single map entry.
type Pair[K comparable, V any] struct {
	Key K
	Val V
}

// Key returns the key Descriptor.
func (e *Map[K, V]) Key() Descriptor[K] { return e.key }

// Val returns the value Descriptor.
func (e *Map[K, V]) Val() Descriptor[V] { return e.val }

// Config returns the Map's configuration.
func (e *Map[K, V]) Config() MapConfig { return e.config }

// Encode implements Descriptor.
func (e *Map[K, V]) Encode(v map[K]V, w io.Writer) error {
	if err := e.config.Length.encode(len(v), w); err != nil {
		return err
	}

	i := 0
	for key, val := range v {
		if err := e.encodePair(i, key, val, w); err != nil {
			return err
		}
		i++
	}
	return nil
}

// EncodeSorted encodes v like Encode, but writes pairs in the order of their keys under cmp.
func (e *Map[K, V]) EncodeSorted(v map[K]V, cmp func(a, b K) int, w io.Writer) error {
	keys := make([]K, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, cmp)

	pairs := make([]Pair[K, V], len(keys))
	for i, key := range keys {
		pairs[i] = Pair[K, V]{Key: key, Val: v[key]}
	}
	return e.EncodePairs(pairs, w)
}

// EncodePairs writes pairs in the given order.
// Keys are not checked for uniqueness.
func (e *Map[K, V]) EncodePairs(pairs []Pair[K, V], w io.Writer) error {
	if err := e.config.Length.encode(len(pairs), w); err != nil {
		return err
	}

	for i, p := range pairs {
		if err := e.encodePair(i, p.Key, p.Val, w); err != nil {
			return err
		}
	}
	return nil
}

func (e *Map[K, V]) encodePair(i int, key K, val V, w io.Writer) error {
	if err := e.key.Encode(key, w); err != nil {
		return encio.AtPath(err, fmt.Sprintf("[%v].key", i))
	}
	if err := e.val.Encode(val, w); err != nil {
		return encio.AtPath(err, fmt.Sprintf("[%v].value", i))
	}
	return nil
}

// Decode implements Descriptor.
func (e *Map[K, V]) Decode(r io.Reader) (map[K]V, error) {
	n, err := e.config.Length.decode(r)
	if err != nil {
		return nil, err
	}

	m := make(map[K]V, encio.CapHint(n))
	for i := uint64(0); i < n; i++ {
		key, val, err := e.decodePair(i, r)
		if err != nil {
			return nil, err
		}

		if _, dup := m[key]; dup {
			if e.config.Strict {
				return nil, encio.AtPath(
					encio.NewError(encio.ErrDuplicateKey, fmt.Sprintf("key %v", key), "packing.Map"),
					fmt.Sprintf("[%v].key", i),
				)
			}
			encio.Logger().Debug("duplicate map key, keeping last value",
				zap.Uint64("pair", i),
				zap.Any("key", key),
			)
		}
		m[key] = val
	}
	return m, nil
}

// DecodePairs reads a map as the ordered list of pairs in the stream, duplicates included.
func (e *Map[K, V]) DecodePairs(r io.Reader) ([]Pair[K, V], error) {
	n, err := e.config.Length.decode(r)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair[K, V], 0, encio.CapHint(n))
	for i := uint64(0); i < n; i++ {
		key, val, err := e.decodePair(i, r)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair[K, V]{Key: key, Val: val})
	}
	return pairs, nil
}

func (e *Map[K, V]) decodePair(i uint64, r io.Reader) (key K, val V, err error) {
	key, err = e.key.Decode(r)
	if err != nil {
		return key, val, encio.AtPath(err, fmt.Sprintf("[%v].key", i))
	}
	val, err = e.val.Decode(r)
	if err != nil {
		return key, val, encio.AtPath(err, fmt.Sprintf("[%v].value", i))
	}
	return key, val, nil
}
