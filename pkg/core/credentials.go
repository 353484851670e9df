package core

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Credentials holds API authentication credentials for a venue.
// A Credentials value is treated as immutable once handed to a client or session.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" yaml:"api_key" envconfig:"API_KEY"`
	// SecretKey is the private key used for signing requests.
	SecretKey string `json:"secret_key" yaml:"secret_key" envconfig:"SECRET_KEY"`
	// Passphrase is an additional credential required by some venues (OKEx).
	Passphrase string `json:"passphrase,omitempty" yaml:"passphrase,omitempty" envconfig:"PASSPHRASE"`
	// Subaccount scopes requests to a subaccount where the venue supports it (FTX).
	Subaccount string `json:"subaccount,omitempty" yaml:"subaccount,omitempty" envconfig:"SUBACCOUNT"`
}

// CredentialsFromEnv reads <PREFIX>_API_KEY, <PREFIX>_SECRET_KEY, <PREFIX>_PASSPHRASE
// and <PREFIX>_SUBACCOUNT.
func CredentialsFromEnv(prefix string) (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process(strings.ToUpper(prefix), &creds); err != nil {
		return nil, fmt.Errorf("load credentials from env: %w", err)
	}
	return &creds, nil
}

// Empty reports whether neither key nor secret is set.
func (c *Credentials) Empty() bool {
	return c == nil || (c.APIKey == "" && c.SecretKey == "")
}

// CanSign reports whether both halves of the key pair are present.
func (c *Credentials) CanSign() bool {
	return c != nil && c.APIKey != "" && c.SecretKey != ""
}

// String prints the masked key only, so credentials are safe to format.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey: %s}", maskKey(c.APIKey))
}

// MarshalZerologObject keeps secrets out of structured logs.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("api_key", maskKey(c.APIKey))
	if c.Subaccount != "" {
		e.Str("subaccount", c.Subaccount)
	}
}

type maskedCredentials struct {
	APIKey     string `json:"api_key" yaml:"api_key"`
	Subaccount string `json:"subaccount,omitempty" yaml:"subaccount,omitempty"`
}

func (c Credentials) masked() maskedCredentials {
	return maskedCredentials{APIKey: maskKey(c.APIKey), Subaccount: c.Subaccount}
}

// MarshalJSON writes the masked key and the subaccount only. Decoding still
// reads every field.
func (c Credentials) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(c.masked())
}

// MarshalYAML is MarshalJSON for configuration dumps.
func (c Credentials) MarshalYAML() (any, error) {
	return c.masked(), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
