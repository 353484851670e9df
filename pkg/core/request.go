package core

import (
	"maps"
	"slices"
	"strings"
)

// Param is one key/value pair of a request.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter list. Insertion order is significant for
// venues that sign the query exactly as sent.
type Params []Param

// NewParams builds Params from alternating keys and values.
// A trailing key without a value is ignored.
func NewParams(kv ...any) Params {
	p := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		p = p.Set(key, kv[i+1])
	}
	return p
}

// ParamsFromMap converts an unordered map into Params sorted by key.
func ParamsFromMap(m map[string]any) Params {
	p := make(Params, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p = append(p, Param{Key: k, Value: m[k]})
	}
	return p
}

// Set replaces the value of an existing key in place, or appends it.
func (p Params) Set(key string, value any) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (p Params) Del(key string) Params {
	return slices.DeleteFunc(p, func(kv Param) bool { return kv.Key == key })
}

func (p Params) Len() int {
	return len(p)
}

// Clone returns a copy that can be modified without touching p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

// Merge returns a copy of p with every pair of other set on it.
// Keys already in p keep their position.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for _, kv := range other {
		out = out.Set(kv.Key, kv.Value)
	}
	return out
}

// Sorted returns a copy ordered lexicographically by key.
func (p Params) Sorted() Params {
	out := p.Clone()
	slices.SortStableFunc(out, func(a, b Param) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Map flattens the list for JSON bodies.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// Call is one logical venue call before signing.
type Call struct {
	Method string
	Path   string
	Query  Params
	// Body is JSON-encoded when non-nil. Params, maps, structs, strings and
	// byte slices are accepted.
	Body any
}

// SignedRequest is the fully derived HTTP request for one call. It is built
// once per call and never reused, so timestamps and nonces stay fresh.
type SignedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Canonical is the exact string the MAC was computed over, empty for unsigned calls.
	Canonical string
}
