package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Node is an immutable JSON tree. Objects keep their key order so a report
// re-serializes in the order the model wrote it.
type Node struct {
	Kind   Kind
	fields []field
	items  []Node
	text   string // string value or number literal
	flag   bool
}

type field struct {
	key   string
	value Node
}

// Null, String, Number, Bool build scalar nodes.
func Null() Node           { return Node{} }
func String(s string) Node { return Node{Kind: KindString, text: s} }
func Number(n string) Node { return Node{Kind: KindNumber, text: n} }
func Bool(b bool) Node     { return Node{Kind: KindBool, flag: b} }

// Array builds an array node.
func Array(items ...Node) Node {
	return Node{Kind: KindArray, items: append([]Node(nil), items...)}
}

// Object builds an object node from fields in order.
func Object(fs ...Field) Node {
	n := Node{Kind: KindObject}
	for _, f := range fs {
		n = n.With(f.Key, f.Value)
	}
	return n
}

// Field is a key/value pair used to build objects.
type Field struct {
	Key   string
	Value Node
}

// F is shorthand for Field{Key: k, Value: v}.
func F(k string, v Node) Field { return Field{Key: k, Value: v} }

// IsNull reports whether the node is JSON null (or the zero Node).
func (n Node) IsNull() bool { return n.Kind == KindNull }

// Get returns the value stored under key in an object node.
func (n Node) Get(key string) (Node, bool) {
	if n.Kind != KindObject {
		return Node{}, false
	}
	for _, f := range n.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return Node{}, false
}

// Keys returns the keys of an object node in order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n.fields))
	for _, f := range n.fields {
		keys = append(keys, f.key)
	}
	return keys
}

// Items returns a copy of the elements of an array node.
func (n Node) Items() []Node {
	return append([]Node(nil), n.items...)
}

// Len returns the number of fields or items.
func (n Node) Len() int {
	switch n.Kind {
	case KindObject:
		return len(n.fields)
	case KindArray:
		return len(n.items)
	default:
		return 0
	}
}

// Text returns the raw text of a string or number node.
func (n Node) Text() string { return n.text }

// BoolValue returns the value of a bool node.
func (n Node) BoolValue() bool { return n.flag }

// With returns a copy of the object with key set to v. Existing keys keep
// their position.
func (n Node) With(key string, v Node) Node {
	out := Node{Kind: KindObject, fields: make([]field, 0, len(n.fields)+1)}
	replaced := false
	for _, f := range n.fields {
		if f.key == key {
			out.fields = append(out.fields, field{key: key, value: v})
			replaced = true
			continue
		}
		out.fields = append(out.fields, f)
	}
	if !replaced {
		out.fields = append(out.fields, field{key: key, value: v})
	}
	return out
}

// Equal reports whether two trees hold the same values. Object key order is
// ignored; number literals compare by value.
func (n Node) Equal(o Node) bool {
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindNull:
		return true
	case KindBool:
		return n.flag == o.flag
	case KindString:
		return n.text == o.text
	case KindNumber:
		if n.text == o.text {
			return true
		}
		a, errA := strconv.ParseFloat(n.text, 64)
		b, errB := strconv.ParseFloat(o.text, 64)
		return errA == nil && errB == nil && a == b
	case KindArray:
		if len(n.items) != len(o.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(n.fields) != len(o.fields) {
			return false
		}
		for _, f := range n.fields {
			ov, ok := o.Get(f.key)
			if !ok || !f.value.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Merge overlays parsed onto defaults and returns a new tree. Where both
// sides are objects the merge recurses key by key; otherwise the parsed
// value wins unless it is null or absent. Keys only present in parsed are
// kept after the default keys.
func Merge(defaults, parsed Node) Node {
	if parsed.IsNull() {
		return defaults.clone()
	}
	if defaults.Kind != KindObject || parsed.Kind != KindObject {
		return parsed.clone()
	}
	out := Node{Kind: KindObject, fields: make([]field, 0, len(defaults.fields)+len(parsed.fields))}
	for _, f := range defaults.fields {
		pv, ok := parsed.Get(f.key)
		if !ok {
			out.fields = append(out.fields, field{key: f.key, value: f.value.clone()})
			continue
		}
		out.fields = append(out.fields, field{key: f.key, value: Merge(f.value, pv)})
	}
	for _, f := range parsed.fields {
		if _, ok := defaults.Get(f.key); !ok {
			out.fields = append(out.fields, field{key: f.key, value: f.value.clone()})
		}
	}
	return out
}

// overlay places top over base: top's keys come first and win, base-only
// keys follow. Used to lay normalized values over the model's raw tree.
func overlay(base, top Node) Node {
	if base.Kind != KindObject || top.Kind != KindObject {
		return top.clone()
	}
	out := Node{Kind: KindObject}
	for _, f := range top.fields {
		if bv, ok := base.Get(f.key); ok {
			out.fields = append(out.fields, field{key: f.key, value: overlay(bv, f.value)})
			continue
		}
		out.fields = append(out.fields, field{key: f.key, value: f.value.clone()})
	}
	for _, f := range base.fields {
		if _, ok := top.Get(f.key); !ok {
			out.fields = append(out.fields, field{key: f.key, value: f.value.clone()})
		}
	}
	return out
}

func (n Node) clone() Node {
	out := n
	if n.fields != nil {
		out.fields = make([]field, len(n.fields))
		for i, f := range n.fields {
			out.fields[i] = field{key: f.key, value: f.value.clone()}
		}
	}
	if n.items != nil {
		out.items = make([]Node, len(n.items))
		for i, it := range n.items {
			out.items[i] = it.clone()
		}
	}
	return out
}

// ParseNode decodes exactly one JSON value. Trailing non-whitespace input is
// an error.
func ParseNode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := parseValue(dec)
	if err != nil {
		return Node{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return Node{}, fmt.Errorf("trailing data: %w", err)
	}
	return n, nil
}

func parseValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Node{Kind: KindObject}
			index := map[string]int{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Node{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Node{}, fmt.Errorf("object key is %T, not string", kt)
				}
				v, err := parseValue(dec)
				if err != nil {
					return Node{}, err
				}
				// A repeated key keeps its first position and the last value.
				if i, dup := index[key]; dup {
					obj.fields[i].value = v
					continue
				}
				index[key] = len(obj.fields)
				obj.fields = append(obj.fields, field{key: key, value: v})
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return obj, nil
		case '[':
			arr := Node{Kind: KindArray, items: []Node{}}
			for dec.More() {
				v, err := parseValue(dec)
				if err != nil {
					return Node{}, err
				}
				arr.items = append(arr.items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return arr, nil
		default:
			return Node{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Node{}, fmt.Errorf("unexpected token %T", tok)
	}
}

// FromAny converts a decoded Go value (map[string]any, []any, string,
// json.Number, float64, int, bool, nil) into a Node. Map keys are sorted so
// the result is deterministic.
func FromAny(v any) Node {
	switch t := v.(type) {
	case nil:
		return Null()
	case Node:
		return t.clone()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Node{Kind: KindObject, fields: make([]field, 0, len(keys))}
		for _, k := range keys {
			obj.fields = append(obj.fields, field{key: k, value: FromAny(t[k])})
		}
		return obj
	case []any:
		arr := Node{Kind: KindArray, items: make([]Node, 0, len(t))}
		for _, it := range t {
			arr.items = append(arr.items, FromAny(it))
		}
		return arr
	case []string:
		arr := Node{Kind: KindArray, items: make([]Node, 0, len(t))}
		for _, s := range t {
			arr.items = append(arr.items, String(s))
		}
		return arr
	case string:
		return String(t)
	case json.Number:
		return Number(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Null()
		}
		return Number(strconv.FormatFloat(t, 'f', -1, 64))
	case float32:
		return FromAny(float64(t))
	case int:
		return Number(strconv.Itoa(t))
	case int64:
		return Number(strconv.FormatInt(t, 10))
	case bool:
		return Bool(t)
	default:
		return String(fmt.Sprint(t))
	}
}

// ToAny converts the tree back into plain Go values. Numbers come back as
// json.Number.
func (n Node) ToAny() any {
	switch n.Kind {
	case KindObject:
		m := make(map[string]any, len(n.fields))
		for _, f := range n.fields {
			m[f.key] = f.value.ToAny()
		}
		return m
	case KindArray:
		out := make([]any, 0, len(n.items))
		for _, it := range n.items {
			out = append(out, it.ToAny())
		}
		return out
	case KindString:
		return n.text
	case KindNumber:
		return json.Number(n.text)
	case KindBool:
		return n.flag
	default:
		return nil
	}
}

// MarshalJSON writes the tree in key order without HTML escaping.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) encode(buf *bytes.Buffer) error {
	switch n.Kind {
	case KindObject:
		buf.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, f.key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindString:
		return encodeString(buf, n.text)
	case KindNumber:
		if n.text == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(n.text)
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.flag))
	default:
		buf.WriteString("null")
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
