package schema

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stewi1014/packing"
	"github.com/stewi1014/packing/encio"
)

// FromNode converts a YAML value into a value for the Schema's Descriptor.
//
// Ints are YAML integers, bytes and strings are YAML strings (!!binary strings are base64 decoded into bytes),
// arrays and structs are sequences, and maps are mappings, whose keys may be sequences for array keys:
//
//	? [1, 2]
//	: hello
func (s *Schema) FromNode(node *yaml.Node) (any, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, errors.New("empty document")
		}
		node = node.Content[0]
	}
	return s.root.fromNode(node, "root")
}

func wrongNode(node *yaml.Node, path, want string) error {
	return errors.Wrapf(encio.ErrBadType, "%v: line %v: want %v but got %v", path, node.Line, want, node.ShortTag())
}

// bytesFromNode reads a !!str or base64 encoded !!binary scalar.
func bytesFromNode(node *yaml.Node, path string) ([]byte, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, wrongNode(node, path, "a string")
	}

	switch node.ShortTag() {
	case "!!str":
		return []byte(node.Value), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(node.Value)
		if err != nil {
			return nil, errors.Wrapf(encio.ErrMalformed, "%v: line %v: %v", path, node.Line, err)
		}
		return b, nil
	default:
		return nil, wrongNode(node, path, "a string or !!binary")
	}
}

func (c *compiled) fromNode(node *yaml.Node, path string) (any, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	path = c.node.label(path)

	switch c.kind {
	case KindInt:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
			return nil, wrongNode(node, path, "an integer")
		}
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, errors.Wrapf(encio.ErrRange, "%v: line %v: %v", path, node.Line, err)
		}
		return n, nil

	case KindBytes:
		return bytesFromNode(node, path)

	case KindString:
		if c.fromBytes {
			b, err := bytesFromNode(node, path)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
		if node.Kind != yaml.ScalarNode {
			return nil, wrongNode(node, path, "a string")
		}
		return node.Value, nil

	case KindArray, kindTuple:
		if node.Kind != yaml.SequenceNode {
			return nil, wrongNode(node, path, "a sequence")
		}
		elems := make([]any, len(node.Content))
		for i, n := range node.Content {
			v, err := c.elem.fromNode(n, fmt.Sprintf("%v[%v]", path, i))
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		if c.kind == kindTuple {
			t, err := c.frozen.Tuple(elems...)
			if err != nil {
				return nil, errors.Wrap(err, path)
			}
			return t, nil
		}
		return elems, nil

	case KindStruct:
		if node.Kind != yaml.SequenceNode {
			return nil, wrongNode(node, path, "a sequence")
		}
		if len(node.Content) != len(c.fields) {
			return nil, errors.Wrapf(encio.ErrArity, "%v: line %v: got %v fields but struct has %v", path, node.Line, len(node.Content), len(c.fields))
		}
		fields := make([]any, len(c.fields))
		for i, f := range c.fields {
			v, err := f.fromNode(node.Content[i], fmt.Sprintf("%v.%v", path, i))
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return fields, nil

	case KindMap:
		if node.Kind != yaml.MappingNode {
			return nil, wrongNode(node, path, "a mapping")
		}
		m := make(map[any]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := c.key.fromNode(node.Content[i], fmt.Sprintf("%v[%v].key", path, i/2))
			if err != nil {
				return nil, err
			}
			val, err := c.value.fromNode(node.Content[i+1], fmt.Sprintf("%v[%v].value", path, i/2))
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		return m, nil
	}

	panic("impossible")
}

// ToNode converts a value decoded by the Schema's Descriptor into YAML.
// Map pairs are sorted by key so output is stable. The result can be read back by FromNode.
func (s *Schema) ToNode(v any) (*yaml.Node, error) {
	return s.root.toNode(v, "root")
}

func wrongValue(v any, path, want string) error {
	return errors.Wrapf(encio.ErrBadType, "%v: want %v but got %T", path, want, v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// bytesNode writes b as a plain string when it is valid UTF-8, and as !!binary otherwise.
func bytesNode(b []byte) *yaml.Node {
	if utf8.Valid(b) {
		return scalar("!!str", string(b))
	}
	return scalar("!!binary", base64.StdEncoding.EncodeToString(b))
}

func (c *compiled) toNode(v any, path string) (*yaml.Node, error) {
	path = c.node.label(path)

	switch c.kind {
	case KindInt:
		n, ok := v.(int64)
		if !ok {
			return nil, wrongValue(v, path, "int64")
		}
		return scalar("!!int", strconv.FormatInt(n, 10)), nil

	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, wrongValue(v, path, "[]byte")
		}
		return bytesNode(b), nil

	case KindString:
		str, ok := v.(string)
		if !ok {
			return nil, wrongValue(v, path, "string")
		}
		if c.fromBytes {
			return bytesNode([]byte(str)), nil
		}
		return scalar("!!str", str), nil

	case KindArray, kindTuple:
		var elems []any
		switch t := v.(type) {
		case []any:
			elems = t
		case packing.Tuple[any]:
			elems = t.Elems()
		default:
			return nil, wrongValue(v, path, "[]any")
		}

		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for i, elem := range elems {
			n, err := c.elem.toNode(elem, fmt.Sprintf("%v[%v]", path, i))
			if err != nil {
				return nil, err
			}
			if n.Kind != yaml.ScalarNode {
				seq.Style = 0
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil

	case KindStruct:
		fields, ok := v.([]any)
		if !ok {
			return nil, wrongValue(v, path, "[]any")
		}
		if len(fields) != len(c.fields) {
			return nil, errors.Wrapf(encio.ErrArity, "%v: got %v fields but struct has %v", path, len(fields), len(c.fields))
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, f := range c.fields {
			n, err := f.toNode(fields[i], fmt.Sprintf("%v.%v", path, i))
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil

	case KindMap:
		m, ok := v.(map[any]any)
		if !ok {
			return nil, wrongValue(v, path, "map[any]any")
		}

		type pair struct {
			key, val *yaml.Node
			sortKey  string
		}
		pairs := make([]pair, 0, len(m))
		for key, val := range m {
			kn, err := c.key.toNode(key, path+".key")
			if err != nil {
				return nil, err
			}
			vn, err := c.value.toNode(val, fmt.Sprintf("%v[%v]", path, key))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair{key: kn, val: vn, sortKey: sortKey(key)})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].sortKey < pairs[j].sortKey })

		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range pairs {
			mapping.Content = append(mapping.Content, p.key, p.val)
		}
		return mapping, nil
	}

	panic("impossible")
}

// sortKey orders map keys; integers numerically, everything else by its string form.
func sortKey(key any) string {
	if n, ok := key.(int64); ok {
		// Flip the sign bit so unsigned order matches signed order.
		return fmt.Sprintf("%016x", uint64(n)^(1<<63))
	}
	return fmt.Sprint(key)
}

// ToPlain converts a value decoded by the Schema's Descriptor into plain values for generic encoders such as JSON or CBOR.
// Bytes stay []byte, tuples become []any, and maps become sorted lists of [key, value] pairs, since keys may not be strings.
func (s *Schema) ToPlain(v any) (any, error) {
	return s.root.toPlain(v, "root")
}

func (c *compiled) toPlain(v any, path string) (any, error) {
	path = c.node.label(path)

	switch c.kind {
	case KindString:
		// Keys declared as bytes go out as bytes, since they needn't be valid UTF-8.
		if str, ok := v.(string); ok && c.fromBytes {
			return []byte(str), nil
		}
		return v, nil

	case KindInt, KindBytes:
		return v, nil

	case KindArray, kindTuple:
		var elems []any
		switch t := v.(type) {
		case []any:
			elems = t
		case packing.Tuple[any]:
			elems = t.Elems()
		default:
			return nil, wrongValue(v, path, "[]any")
		}
		out := make([]any, len(elems))
		for i, elem := range elems {
			p, err := c.elem.toPlain(elem, fmt.Sprintf("%v[%v]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil

	case KindStruct:
		fields, ok := v.([]any)
		if !ok || len(fields) != len(c.fields) {
			return nil, wrongValue(v, path, fmt.Sprintf("%v fields", len(c.fields)))
		}
		out := make([]any, len(fields))
		for i, f := range c.fields {
			p, err := f.toPlain(fields[i], fmt.Sprintf("%v.%v", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil

	case KindMap:
		m, ok := v.(map[any]any)
		if !ok {
			return nil, wrongValue(v, path, "map[any]any")
		}
		keys := make([]any, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return sortKey(keys[i]) < sortKey(keys[j]) })

		out := make([]any, len(keys))
		for i, key := range keys {
			kp, err := c.key.toPlain(key, path+".key")
			if err != nil {
				return nil, err
			}
			vp, err := c.value.toPlain(m[key], fmt.Sprintf("%v[%v]", path, key))
			if err != nil {
				return nil, err
			}
			out[i] = []any{kp, vp}
		}
		return out, nil
	}

	panic("impossible")
}

// ParseValue parses a YAML document holding a single value for the Schema.
func (s *Schema) ParseValue(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing value")
	}
	return s.FromNode(&doc)
}

// FormatValue formats a decoded value as a YAML document.
func (s *Schema) FormatValue(v any) ([]byte, error) {
	node, err := s.ToNode(v)
	if err != nil {
		return nil, err
	}

	var buff bytes.Buffer
	enc := yaml.NewEncoder(&buff)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, errors.Wrap(err, "formatting value")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "formatting value")
	}
	return buff.Bytes(), nil
}
