// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind tags the scalar held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single property value: a string, a number, a bool, or null.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns a numeric Value for an integer. Integers beyond 2^53 lose
// precision, matching JSON number semantics.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null returns the null Value.
func Null() Value { return Value{} }

// ValueOf converts a Go value into a Value. Strings, bools, numeric kinds,
// json.Number and nil map onto their natural kinds; anything else is
// JSON-encoded and stored as a string.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case fmt.Stringer:
		return String(x.String())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprintf("%v", v))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return String(s)
	}
	return String(string(raw))
}

// Kind reports the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the normalized text form used for equality comparison.
// Null has no text form.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// String implements fmt.Stringer. Null renders as "null".
func (v Value) String() string {
	if s, ok := v.Text(); ok {
		return s
	}
	return "null"
}

// Interface returns v as a plain Go value (string, float64, bool or nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

func (v Value) validate() error {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return fmt.Errorf("number %v is not representable", v.num)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON scalar. Objects and arrays are kept as a
// string holding their compact JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty property value")
	}

	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = String(buf.String())
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decoding property value %q: %w", data, err)
	}
	*v = Number(f)
	return nil
}

// Properties is an open set of property values keyed by name.
type Properties map[string]Value

// PropertiesOf converts a plain map via ValueOf. A nil map yields nil.
func PropertiesOf(m map[string]any) Properties {
	if m == nil {
		return nil
	}
	p := make(Properties, len(m))
	for k, val := range m {
		p[k] = ValueOf(val)
	}
	return p
}

// Map returns p as a plain map of Go values.
func (p Properties) Map() map[string]any {
	if p == nil {
		return nil
	}
	m := make(map[string]any, len(p))
	for k, v := range p {
		m[k] = v.Interface()
	}
	return m
}

// Keys returns the property keys in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether p and o hold the same keys and values.
func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (p Properties) validate() error {
	for k, v := range p {
		if k == "" {
			return fmt.Errorf("property key must not be empty")
		}
		if err := v.validate(); err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
	}
	return nil
}
