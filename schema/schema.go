// Package schema builds packing Descriptor trees from YAML documents.
//
// A schema is a tree of nodes, each naming a Descriptor kind and its configuration:
//
//	kind: map
//	length: {width: 2}
//	key:
//	  kind: array
//	  length: {width: 1}
//	  elem: {kind: int, width: 1}
//	value:
//	  kind: struct
//	  fields:
//	    - {kind: int, width: 4, signed: true, big_endian: true}
//	    - {kind: bytes, length: {width: 1, bias: 1}}
//
// The tree is built once, by Parse or Load, and the resulting Schema is itself a packing.Descriptor[any].
// Values are int64 for int nodes, []byte for bytes, string for string, []any for array and struct nodes,
// and map[any]any for map nodes.
// Map keys are made comparable when the tree is built: array keys decode as packing.Tuple[any] and bytes keys as string.
package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stewi1014/packing"
	"github.com/stewi1014/packing/encio"
)

// Node kinds.
const (
	KindInt    = "int"
	KindBytes  = "bytes"
	KindString = "string"
	KindArray  = "array"
	KindStruct = "struct"
	KindMap    = "map"

	// kindTuple is an array used as a map key.
	kindTuple = "tuple"
)

// Node is a single Descriptor in a schema document.
type Node struct {
	Kind string `yaml:"kind"`

	// Name is an optional label used in error messages and struct field paths.
	Name string `yaml:"name,omitempty"`

	// int
	Width     int   `yaml:"width,omitempty"`
	Bias      int64 `yaml:"bias,omitempty"`
	Signed    bool  `yaml:"signed,omitempty"`
	BigEndian bool  `yaml:"big_endian,omitempty"`

	// bytes, string, array and map
	Length *Length `yaml:"length,omitempty"`

	// array
	Elem *Node `yaml:"elem,omitempty"`

	// struct
	Fields []*Node `yaml:"fields,omitempty"`

	// map
	Key    *Node `yaml:"key,omitempty"`
	Value  *Node `yaml:"value,omitempty"`
	Strict bool  `yaml:"strict,omitempty"`
}

// Length configures a length field. See packing.LengthField.
type Length struct {
	Width     int   `yaml:"width"`
	Bias      int64 `yaml:"bias,omitempty"`
	BigEndian bool  `yaml:"big_endian,omitempty"`
}

// Schema is a Descriptor built from a schema document.
// Like every Descriptor, it is immutable and safe for concurrent use.
type Schema struct {
	root *compiled
}

var _ packing.Descriptor[any] = (*Schema)(nil)

// compiled is a Node with its built Descriptor and children.
type compiled struct {
	kind   string
	node   *Node
	desc   packing.Descriptor[any]
	elem   *compiled
	fields []*compiled
	key    *compiled
	value  *compiled
	frozen *packing.Frozen[any]

	// fromBytes marks a bytes node built as a String because it is a map key.
	fromBytes bool
}

// Parse builds a Schema from a YAML document.
func Parse(data []byte) (*Schema, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	return New(&root)
}

// Load reads and builds the Schema in the file at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema")
	}

	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %v", path)
	}
	return s, nil
}

// New builds a Schema from a Node tree.
// Configuration errors wrap encio.ErrBadConfig and name the offending node.
func New(root *Node) (*Schema, error) {
	c, err := build(root, "root", false)
	if err != nil {
		return nil, err
	}
	return &Schema{root: c}, nil
}

// Descriptor returns the root Descriptor.
func (s *Schema) Descriptor() packing.Descriptor[any] { return s.root.desc }

// Size implements packing.Sized.
func (s *Schema) Size() int { return packing.SizeOf(s.root.desc) }

// Encode implements packing.Descriptor.
func (s *Schema) Encode(v any, w io.Writer) error { return s.root.desc.Encode(v, w) }

// Decode implements packing.Descriptor.
func (s *Schema) Decode(r io.Reader) (any, error) { return s.root.desc.Decode(r) }

func badConfig(path, format string, args ...any) error {
	return errors.Wrapf(encio.ErrBadConfig, "%v: %v", path, fmt.Sprintf(format, args...))
}

func (n *Node) label(path string) string {
	if n.Name != "" {
		return fmt.Sprintf("%v(%v)", path, n.Name)
	}
	return path
}

func buildLength(l *Length, path string) (packing.LengthField, error) {
	if l == nil {
		return packing.LengthField{}, badConfig(path, "missing length")
	}
	if err := encio.CheckWidth(l.Width); err != nil {
		return packing.LengthField{}, badConfig(path, "length width %v is not between 1 and %v", l.Width, encio.MaxWidth)
	}
	return packing.LengthField{Width: l.Width, Bias: l.Bias, BigEndian: l.BigEndian}, nil
}

// build compiles n. asKey is set when n is a map key, where values must be comparable.
func build(n *Node, path string, asKey bool) (*compiled, error) {
	if n == nil {
		return nil, badConfig(path, "missing node")
	}
	path = n.label(path)
	c := &compiled{kind: n.Kind, node: n}

	switch n.Kind {
	case KindInt:
		if err := encio.CheckWidth(n.Width); err != nil {
			return nil, badConfig(path, "int width %v is not between 1 and %v", n.Width, encio.MaxWidth)
		}
		c.desc = packing.Any[int64](packing.NewInt(packing.IntConfig{
			Width:     n.Width,
			Bias:      n.Bias,
			Signed:    n.Signed,
			BigEndian: n.BigEndian,
		}))

	case KindBytes, KindString:
		length, err := buildLength(n.Length, path)
		if err != nil {
			return nil, err
		}
		if n.Kind == KindString || asKey {
			c.fromBytes = n.Kind == KindBytes
			c.kind = KindString
			c.desc = packing.Any[string](packing.NewString(length))
		} else {
			c.desc = packing.Any[[]byte](packing.NewBytes(length))
		}

	case KindArray:
		length, err := buildLength(n.Length, path)
		if err != nil {
			return nil, err
		}
		// Elements of a frozen key live inside its encoding, so they needn't be comparable themselves.
		c.elem, err = build(n.Elem, path+".elem", false)
		if err != nil {
			return nil, err
		}
		array := packing.NewArray[any](c.elem.desc, length)
		if asKey {
			c.kind = kindTuple
			c.frozen = packing.Freeze(array)
			c.desc = packing.Any[packing.Tuple[any]](c.frozen)
		} else {
			c.desc = packing.Any[[]any](array)
		}

	case KindStruct:
		if asKey {
			return nil, badConfig(path, "struct values can't be map keys; use an array")
		}
		descs := make([]packing.Descriptor[any], len(n.Fields))
		for i, f := range n.Fields {
			field, err := build(f, fmt.Sprintf("%v.%v", path, i), false)
			if err != nil {
				return nil, err
			}
			c.fields = append(c.fields, field)
			descs[i] = field.desc
		}
		c.desc = packing.Any[[]any](packing.NewStruct(descs...))

	case KindMap:
		if asKey {
			return nil, badConfig(path, "map values can't be map keys")
		}
		length, err := buildLength(n.Length, path)
		if err != nil {
			return nil, err
		}
		if c.key, err = build(n.Key, path+".key", true); err != nil {
			return nil, err
		}
		if c.value, err = build(n.Value, path+".value", false); err != nil {
			return nil, err
		}
		c.desc = packing.Any[map[any]any](packing.NewMap[any, any](c.key.desc, c.value.desc, packing.MapConfig{
			Length: length,
			Strict: n.Strict,
		}))

	case "":
		return nil, badConfig(path, "missing kind")

	default:
		return nil, badConfig(path, "unknown kind %q", n.Kind)
	}

	return c, nil
}
