// Package sign holds the building blocks of venue request signing: canonical
// query encoding, HMAC variants, timestamp and nonce sources, and Scheme,
// which combines them into one venue's signing rule.
package sign

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"venuelink/pkg/core"
)

// Input is the unsigned material of one call.
type Input struct {
	Method string
	// Host is the bare API host ("api.hbdm.com"), used by multi-line digests.
	Host  string
	Path  string
	Query core.Params
	Body  any
}

// Material is everything a canonicalization rule may draw from.
type Material struct {
	Method string
	Host   string
	Path   string
	// Params is the final ordered query including venue auth parameters.
	Params core.Params
	// Query is Params encoded with the scheme's encoding.
	Query string
	Body  string

	Timestamp string
	Nonce     string

	Key        string
	Passphrase string
	Subaccount string
}

// Output is what gets attached to the outgoing HTTP request.
type Output struct {
	Query   string
	Headers map[string]string
	Body    []byte
	// Canonical is the exact string that was signed.
	Canonical string

	encoding Encoding
}

// AppendQuery adds one parameter to the end of the query string.
func (o *Output) AppendQuery(key, value string) {
	if o.encoding == Escaped {
		key, value = Escape(key), Escape(value)
	}
	if o.Query != "" {
		o.Query += "&"
	}
	o.Query += key + "=" + value
}

func (o *Output) SetHeader(key, value string) {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	o.Headers[key] = value
}

type (
	// CanonicalRule maps request material to the byte string that is signed.
	CanonicalRule func(m Material) string
	// AuthParams returns the venue parameters merged into the query before signing.
	AuthParams func(m Material) core.Params
	// AuthMapping places the signature and identity on the request.
	AuthMapping func(out *Output, m Material, signature string)
	// KeyMapping identifies the caller on key-only calls.
	KeyMapping func(out *Output, creds core.Credentials)
)

// Scheme is one venue's signing rule. The zero value of optional fields
// disables that step.
type Scheme struct {
	Name     string `validate:"required"`
	Ordering Ordering
	Encoding Encoding
	// BodyParams sends POST and PUT parameters as a JSON body instead of the query.
	BodyParams bool
	// DeleteBody extends BodyParams to DELETE.
	DeleteBody bool

	Clock      func() time.Time
	Stamp      Stamp
	Nonce      NonceSource
	AuthParams AuthParams

	Canonical CanonicalRule `validate:"required"`
	MAC       MAC
	Attach    AuthMapping `validate:"required"`
	AttachKey KeyMapping

	RequirePassphrase bool
}

var validate = validator.New()

// Validate checks that the mandatory strategy functions are present.
func (s *Scheme) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("scheme %q: %w", s.Name, err)
	}
	return nil
}

// ParamsInBody reports whether parameters of a call with this method travel in the body.
func (s *Scheme) ParamsInBody(method string) bool {
	if !s.BodyParams {
		return false
	}
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut:
		return true
	case http.MethodDelete:
		return s.DeleteBody
	}
	return false
}

// Sign derives the query, headers and body for one call of the given auth class.
// Private calls draw a fresh timestamp and nonce on every invocation.
func (s *Scheme) Sign(auth core.AuthClass, in Input, creds *core.Credentials) (*Output, error) {
	body, err := EncodeBody(in.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", s.Name, err)
	}
	switch auth {
	case core.AuthPublic:
		return s.unsigned(in, body), nil
	case core.AuthKey:
		if creds == nil || creds.APIKey == "" {
			return nil, core.ErrMissingCredentials
		}
		if s.AttachKey == nil {
			return nil, core.ErrKeyAuthUnsupported
		}
		out := s.unsigned(in, body)
		s.AttachKey(out, *creds)
		return out, nil
	case core.AuthPrivate:
		return s.signed(in, body, creds)
	default:
		return nil, fmt.Errorf("%s: unknown auth class %d", s.Name, auth)
	}
}

func (s *Scheme) unsigned(in Input, body []byte) *Output {
	out := &Output{
		Query:    EncodeQuery(s.Ordering.Order(in.Query, s.Encoding), s.Encoding),
		Body:     body,
		encoding: s.Encoding,
	}
	if len(body) > 0 {
		out.SetHeader("Content-Type", "application/json")
	}
	return out
}

func (s *Scheme) signed(in Input, body []byte, creds *core.Credentials) (*Output, error) {
	if !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	if s.RequirePassphrase && creds.Passphrase == "" {
		return nil, core.ErrMissingPassphrase
	}

	now := s.now()
	m := Material{
		Method:     strings.ToUpper(in.Method),
		Host:       in.Host,
		Path:       in.Path,
		Body:       string(body),
		Key:        creds.APIKey,
		Passphrase: creds.Passphrase,
		Subaccount: creds.Subaccount,
	}
	if s.Stamp != nil {
		m.Timestamp = s.Stamp(now)
	}
	if s.Nonce != nil {
		m.Nonce = s.Nonce.Next(now)
	}

	params := in.Query.Clone()
	if s.AuthParams != nil {
		params = params.Merge(s.AuthParams(m))
	}
	m.Params = s.Ordering.Order(params, s.Encoding)
	m.Query = EncodeQuery(m.Params, s.Encoding)

	canonical := s.Canonical(m)
	signature, err := s.MAC.Sum(creds.SecretKey, []byte(canonical))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	out := &Output{
		Query:     m.Query,
		Body:      body,
		Canonical: canonical,
		encoding:  s.Encoding,
	}
	if len(body) > 0 {
		out.SetHeader("Content-Type", "application/json")
	}
	s.Attach(out, m, signature)
	return out, nil
}

func (s *Scheme) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
