package invocation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindRaw Kind = iota
	KindNumber
	KindBool
	KindNull
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindRaw:    "raw",
	KindNumber: "number",
	KindBool:   "bool",
	KindNull:   "null",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single call argument. It is one of Number, Bool, Null, String,
// Array, Object or RawText; switch on the concrete type or on Kind().
type Value interface {
	Kind() Kind
	json.Marshaler
	isValue()
}

// Number is a JSON number literal kept as written, so integers wider than
// 64 bits are not rounded.
type Number string

// Bool is a JSON boolean literal.
type Bool bool

// Null is the JSON null literal.
type Null struct{}

// String is a decoded JSON string literal.
type String string

// Array is a JSON array literal.
type Array []Value

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object literal with members in source order.
type Object []Member

// RawText is argument text that did not decode as JSON. It carries the
// trimmed source verbatim: bare identifiers, hex literals, addresses.
type RawText string

func (Number) Kind() Kind  { return KindNumber }
func (Bool) Kind() Kind    { return KindBool }
func (Null) Kind() Kind    { return KindNull }
func (String) Kind() Kind  { return KindString }
func (Array) Kind() Kind   { return KindArray }
func (Object) Kind() Kind  { return KindObject }
func (RawText) Kind() Kind { return KindRaw }

func (Number) isValue()  {}
func (Bool) isValue()    {}
func (Null) isValue()    {}
func (String) isValue()  {}
func (Array) isValue()   {}
func (Object) isValue()  {}
func (RawText) isValue() {}

// Int64 returns the number as an int64.
func (n Number) Int64() (int64, error) { return json.Number(n).Int64() }

// Float64 returns the number as a float64.
func (n Number) Float64() (float64, error) { return json.Number(n).Float64() }

// Big returns the number as an arbitrary-precision integer. It fails for
// literals with a fraction or exponent.
func (n Number) Big() (*big.Int, error) {
	b, ok := new(big.Int).SetString(string(n), 10)
	if !ok {
		return nil, fmt.Errorf("number %s is not an integer", string(n))
	}
	return b, nil
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// set stores v under key, replacing an existing member in place.
func (o Object) set(key string, v Value) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, Member{Key: key, Value: v})
}

func (n Number) MarshalJSON() ([]byte, error) { return []byte(n), nil }

func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

func (r RawText) MarshalJSON() ([]byte, error) { return json.Marshal(string(r)) }

func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		b, err := m.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format renders v the way a user would type it back into a call line.
// RawText is written unquoted; everything else as compact JSON.
func Format(v Value) string {
	if r, ok := v.(RawText); ok {
		return string(r)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.Kind())
	}
	return string(b)
}

// decodeValue decodes text as a single strict JSON value. The caller
// guarantees text is valid JSON.
func decodeValue(text string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	return decodeToken(dec)
}

func decodeToken(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			arr := Array{}
			for dec.More() {
				v, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := Object{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", kt)
				}
				v, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				obj = obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}
