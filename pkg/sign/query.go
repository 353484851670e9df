package sign

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"venuelink/pkg/core"
)

// Ordering decides the key order of the canonical query.
type Ordering int

const (
	// InsertionOrder keeps parameters as supplied, auth parameters last.
	InsertionOrder Ordering = iota
	// SortedOrder sorts keys lexicographically by byte value.
	SortedOrder
	// PairOrder sorts the encoded "k=v" pairs as whole strings. It differs
	// from SortedOrder when a key is a prefix of another ("a-b=1" < "a=2").
	PairOrder
)

// Encoding decides whether query values are percent-escaped.
type Encoding int

const (
	// Escaped percent-encodes keys and values (RFC 3986, space as %20).
	Escaped Encoding = iota
	// Raw joins keys and values verbatim.
	Raw
)

// Order applies the ordering policy to a copy of p.
func (o Ordering) Order(p core.Params, enc Encoding) core.Params {
	switch o {
	case SortedOrder:
		return p.Sorted()
	case PairOrder:
		out := p.Clone()
		slices.SortStableFunc(out, func(a, b core.Param) int {
			return strings.Compare(encodePair(a, enc), encodePair(b, enc))
		})
		return out
	}
	return p.Clone()
}

func encodePair(kv core.Param, enc Encoding) string {
	k, v := kv.Key, FormatValue(kv.Value)
	if enc == Escaped {
		k, v = Escape(k), Escape(v)
	}
	return k + "=" + v
}

// EncodeQuery joins p as k=v pairs separated by '&'.
func EncodeQuery(p core.Params, enc Encoding) string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		k, v := kv.Key, FormatValue(kv.Value)
		if enc == Escaped {
			k, v = Escape(k), Escape(v)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

// Escape percent-encodes s leaving only unreserved characters, the way
// browsers' encodeURIComponent does.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// FormatValue renders a parameter value for a query string. Decimals never
// use exponent notation; slices and maps are sent as JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case apd.Decimal:
		return x.Text('f')
	case *apd.Decimal:
		if x == nil {
			return ""
		}
		return x.Text('f')
	case fmt.Stringer:
		return x.String()
	case []byte:
		return string(x)
	default:
		b, err := sonic.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// EncodeBody serializes a call body. Strings and byte slices pass through,
// Params become a JSON object in insertion order.
func EncodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case core.Params:
		return encodeParamsJSON(b)
	default:
		return sonic.Marshal(b)
	}
}

func encodeParamsJSON(p core.Params) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := sonic.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := marshalValue(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", kv.Key, err)
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func marshalValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case apd.Decimal:
		return sonic.Marshal(x.Text('f'))
	case *apd.Decimal:
		if x == nil {
			return []byte("null"), nil
		}
		return sonic.Marshal(x.Text('f'))
	case core.Params:
		return encodeParamsJSON(x)
	default:
		return sonic.Marshal(x)
	}
}
