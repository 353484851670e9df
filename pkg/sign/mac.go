package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
)

// DigestEncoding is the text form of a MAC.
type DigestEncoding int

const (
	Hex DigestEncoding = iota
	Base64
)

// KeyDecoding describes how the secret string becomes HMAC key bytes.
type KeyDecoding int

const (
	// KeyRaw uses the secret bytes as-is.
	KeyRaw KeyDecoding = iota
	// KeyBase64 base64-decodes the secret first.
	KeyBase64
)

// MAC describes one HMAC variant.
type MAC struct {
	Hash        func() hash.Hash
	Encoding    DigestEncoding
	KeyDecoding KeyDecoding
	// Prehash, when set, digests the payload before it is fed to the HMAC.
	Prehash func() hash.Hash
}

var (
	HMACSHA256Hex    = MAC{Hash: sha256.New, Encoding: Hex}
	HMACSHA256Base64 = MAC{Hash: sha256.New, Encoding: Base64}
	HMACSHA512Base64 = MAC{Hash: sha512.New, Encoding: Base64}
)

// Sum computes the encoded MAC of payload keyed by secret.
func (m MAC) Sum(secret string, payload []byte) (string, error) {
	key := []byte(secret)
	if m.KeyDecoding == KeyBase64 {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return "", fmt.Errorf("decode secret: %w", err)
		}
		key = decoded
	}
	if m.Prehash != nil {
		h := m.Prehash()
		h.Write(payload)
		payload = h.Sum(nil)
	}
	newHash := m.Hash
	if newHash == nil {
		newHash = sha256.New
	}
	mac := hmac.New(newHash, key)
	mac.Write(payload)
	sum := mac.Sum(nil)
	if m.Encoding == Base64 {
		return base64.StdEncoding.EncodeToString(sum), nil
	}
	return hex.EncodeToString(sum), nil
}

// SumString is Sum for venues whose secrets cannot fail to decode.
func (m MAC) SumString(secret, payload string) string {
	s, err := m.Sum(secret, []byte(payload))
	if err != nil {
		return ""
	}
	return s
}
