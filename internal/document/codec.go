package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
)

// indent is the per-level indentation of the file format.
const indent = "    "

// Decode parses JSON data into the document model, keeping object key order.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, want string", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				s = append(s, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case nil, bool, float64, string:
		return t, nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

// Encode serializes v with four-space indentation and no trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any, depth int) error {
	switch c := v.(type) {
	case *Mapping:
		if c.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for p := c.Oldest(); p != nil; p = p.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			newline(buf, depth+1)
			if err := encodeScalar(buf, p.Key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := encodeValue(buf, p.Value, depth+1); err != nil {
				return fmt.Errorf("key %q: %w", p.Key, err)
			}
		}
		newline(buf, depth)
		buf.WriteByte('}')
		return nil
	case []any:
		if len(c) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, e := range c {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, depth+1)
			if err := encodeValue(buf, e, depth+1); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		newline(buf, depth)
		buf.WriteByte(']')
		return nil
	}
	return encodeScalar(buf, v)
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for range depth {
		buf.WriteString(indent)
	}
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		buf.WriteString("null")
		return nil
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// Normalize converts an arbitrary Go value into the document model.
// Containers are copied, so later changes to v do not reach the result.
// Values outside the model go through a JSON round-trip.
func Normalize(v any) (any, error) {
	switch c := v.(type) {
	case nil, bool, float64, string:
		return v, nil
	case *Mapping:
		m := NewMapping()
		for p := c.Oldest(); p != nil; p = p.Next() {
			n, err := Normalize(p.Value)
			if err != nil {
				return nil, err
			}
			m.Set(p.Key, n)
		}
		return m, nil
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case int:
		return float64(c), nil
	case int64:
		return float64(c), nil
	case int32:
		return float64(c), nil
	case uint:
		return float64(c), nil
	case uint64:
		return float64(c), nil
	case float32:
		return float64(c), nil
	case json.RawMessage:
		return Decode(c)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize %T: %w", v, err)
	}
	return Decode(data)
}

// Checksum returns the xxhash of the encoded form of v.
func Checksum(v any) (uint64, error) {
	data, err := Encode(v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
