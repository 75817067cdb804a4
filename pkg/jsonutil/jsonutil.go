// Package jsonutil decodes JSON documents while keeping object members in
// document order.
//
// GraphQL responses list fields in the order the query selected them, and
// the explorer relies on that order (first array-valued field, first string
// column, ...). encoding/json decodes objects into maps, which loses it, so
// this package walks the token stream itself and builds Object values.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its members in document order.
//
// Decoded values are one of: nil, bool, string, json.Number, []any or Object.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Set returns a copy of o with key set to v. An existing key keeps its
// position; a new key is appended. The receiver is never modified.
func (o Object) Set(key string, v any) Object {
	out := make(Object, len(o), len(o)+1)
	copy(out, o)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = v
			return out
		}
	}
	return append(out, Member{Key: key, Value: v})
}

// Delete returns a copy of o without key.
func (o Object) Delete(key string) Object {
	out := make(Object, 0, len(o))
	for _, m := range o {
		if m.Key != key {
			out = append(out, m)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler, writing members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal member %q: %w", m.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Unmarshal parses a single JSON document. Objects become Object values and
// numbers are kept as json.Number.
//
// The implementation is created on top of the JSON tokenizer available
// in "encoding/json".Decoder.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{tokenizer: dec}
	v, err := d.decode()
	if err != nil {
		return nil, err
	}
	tok, err := dec.Token()
	switch err {
	case io.EOF:
		// Expect to get io.EOF. There shouldn't be any more
		// tokens left after we've decoded v successfully.
		return v, nil
	case nil:
		return nil, fmt.Errorf("invalid token '%v' after top-level value", tok)
	default:
		return nil, err
	}
}

// UnmarshalObject is Unmarshal for documents whose top-level value must be
// an object.
func UnmarshalObject(data []byte) (Object, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return obj, nil
}

// decoder builds ordered values from a JSON token stream.
type decoder struct {
	tokenizer interface {
		Token() (json.Token, error)
	}

	// Stack of what part of input JSON we're in the middle of - objects, arrays.
	parseState []json.Delim
}

// next reads one token, turning io.EOF into a syntax error.
func (d *decoder) next() (json.Token, error) {
	tok, err := d.tokenizer.Token()
	if err == io.EOF {
		if n := len(d.parseState); n > 0 {
			return nil, fmt.Errorf("unexpected end of JSON input inside %q", d.parseState[n-1])
		}
		return nil, errors.New("unexpected end of JSON input")
	}
	return tok, err
}

// decode reads one complete JSON value.
func (d *decoder) decode() (any, error) {
	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	return d.value(tok)
}

func (d *decoder) value(tok json.Token) (any, error) {
	switch tok := tok.(type) {
	case string, json.Number, bool, nil:
		return tok, nil
	case json.Delim:
		switch tok {
		case '{':
			return d.object()
		case '[':
			return d.array()
		}
		return nil, fmt.Errorf("unexpected delimiter %q in JSON input", tok)
	default:
		return nil, errors.New("unexpected token in JSON input")
	}
}

func (d *decoder) object() (Object, error) {
	d.parseState = append(d.parseState, '{')
	defer d.pop()

	obj := Object{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim('}') {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("unexpected non-key in JSON input")
		}
		v, err := d.decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode member %q: %w", key, err)
		}
		obj = append(obj, Member{Key: key, Value: v})
	}
}

func (d *decoder) array() ([]any, error) {
	d.parseState = append(d.parseState, '[')
	defer d.pop()

	arr := []any{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (d *decoder) pop() {
	d.parseState = d.parseState[:len(d.parseState)-1]
}
