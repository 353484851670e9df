package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
)

var jsonAPI = sonic.Config{UseNumber: true}.Froze()

// Result is a venue response. Value holds the parsed JSON document, with
// numbers as json.Number, or the raw text when the body is not JSON.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Value      any
	isJSON     bool
}

// parseResult never fails: a body that is not JSON is passed through as text.
func parseResult(status int, header http.Header, body []byte) *Result {
	r := &Result{StatusCode: status, Header: header, Body: body}
	var v any
	if err := jsonAPI.Unmarshal(body, &v); err == nil {
		r.Value = v
		r.isJSON = true
	} else {
		r.Value = string(body)
	}
	return r
}

// IsJSON reports whether the body parsed as JSON.
func (r *Result) IsJSON() bool {
	return r.isJSON
}

// Decode unmarshals the body into v.
func (r *Result) Decode(v any) error {
	return sonic.Unmarshal(r.Body, v)
}

// Field returns a top-level field of a JSON object body.
func (r *Result) Field(name string) (any, bool) {
	obj, ok := r.Value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// ErrorDetector reports whether a parsed 2xx body signals a failure.
type ErrorDetector func(value any) bool

// DefaultDetector flags a truthy "err_code" or a "status" of "error".
func DefaultDetector(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	if Truthy(obj["err_code"]) {
		return true
	}
	status, _ := obj["status"].(string)
	return status == "error"
}

// FieldDetector flags bodies whose named field is truthy.
func FieldDetector(field string) ErrorDetector {
	return func(value any) bool {
		obj, ok := value.(map[string]any)
		return ok && Truthy(obj[field])
	}
}

// AnyOf flags a body when any detector does.
func AnyOf(detectors ...ErrorDetector) ErrorDetector {
	return func(value any) bool {
		for _, d := range detectors {
			if d != nil && d(value) {
				return true
			}
		}
		return false
	}
}

// Truthy follows JavaScript truthiness for decoded JSON values.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
