package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parameters is the ordered key/value payload of an Action.
// Key order follows the order in which the intent producer emitted them.
// The zero value is an empty, usable set.
type Parameters struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewParameters creates an empty parameter set.
func NewParameters() Parameters {
	return Parameters{m: orderedmap.New[string, any]()}
}

// ParametersFromMap builds a parameter set from a plain map.
// Go maps are unordered, so keys are inserted in lexical order to stay deterministic.
func ParametersFromMap(src map[string]any) Parameters {
	p := NewParameters()
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.m.Set(k, src[k])
	}
	return p
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (p *Parameters) Set(key string, value any) {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	p.m.Set(key, value)
}

// Get returns the value stored under key.
func (p Parameters) Get(key string) (any, bool) {
	if p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// String returns the value under key rendered as a string.
// Missing and nil values yield "".
func (p Parameters) String(key string) string {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Len returns the number of keys.
func (p Parameters) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Keys returns the keys in insertion order.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, p.Len())
	if p.m == nil {
		return keys
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Map returns a shallow copy as a plain map (order is lost).
func (p Parameters) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p.m == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Clone returns an independent copy. Nested maps and slices are copied as well,
// so a handler mutating its view cannot reach the parsed Action.
func (p Parameters) Clone() Parameters {
	c := NewParameters()
	if p.m == nil {
		return c
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		c.m.Set(pair.Key, deepCopy(pair.Value))
	}
	return c
}

// MarshalJSON encodes the parameters as a JSON object preserving key order.
func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if p.m != nil {
		first := true
		for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", pair.Key, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
// Anything other than an object is rejected with ErrNotAnObject.
// Numbers are converted by NormalizeNumbers.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	out := NewParameters()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		out.m.Set(key, NormalizeNumbers(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// NormalizeNumbers walks a decoded JSON value and replaces json.Number
// with int64 (integral) or float64. Integers outside the int64 range keep
// their decimal string, since float64 would round them.
func NormalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if !strings.ContainsAny(t.String(), ".eE") {
			return t.String()
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = NormalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = NormalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, inner := range t {
			c[k] = deepCopy(inner)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, inner := range t {
			c[i] = deepCopy(inner)
		}
		return c
	default:
		return v
	}
}
