package ftx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
)

var creds = &core.Credentials{APIKey: "key", SecretKey: "secret", Subaccount: "bot"}

func hmacHex(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestScheme_Headers(t *testing.T) {
	s := NewScheme()
	s.Clock = func() time.Time { return time.UnixMilli(1588591856950) }

	out, err := s.Sign(core.AuthPrivate, sign.Input{
		Method: http.MethodPost,
		Path:   "/api/orders",
		Body:   core.NewParams("market", "BTC-PERP", "side", "buy", "price", 8500, "size", 1),
	}, creds)
	require.NoError(t, err)

	body := `{"market":"BTC-PERP","side":"buy","price":8500,"size":1}`
	assert.Equal(t, "1588591856950POST/api/orders"+body, out.Canonical)
	assert.Equal(t, hmacHex("secret", out.Canonical), out.Headers["FTX-SIGN"])
	assert.Equal(t, "1588591856950", out.Headers["FTX-TS"])
	assert.Equal(t, "key", out.Headers["FTX-KEY"])
	assert.Equal(t, "bot", out.Headers["FTX-SUBACCOUNT"])
}

func TestScheme_NoSubaccountHeader(t *testing.T) {
	out, err := NewScheme().Sign(core.AuthPrivate, sign.Input{Method: http.MethodGet, Path: "/api/account"},
		&core.Credentials{APIKey: "key", SecretKey: "secret"})
	require.NoError(t, err)
	_, ok := out.Headers["FTX-SUBACCOUNT"]
	assert.False(t, ok)
}

func TestClient_CancelOrderExpandsPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/orders/9596912", r.URL.Path)
		assert.Empty(t, body)
		ts := r.Header.Get("FTX-TS")
		assert.Equal(t, hmacHex("secret", ts+"DELETE/api/orders/9596912"), r.Header.Get("FTX-SIGN"))
		_, _ = w.Write([]byte(`{"success":true,"result":"Order queued for cancelation"}`))
	}))
	defer server.Close()

	client, err := NewClient(core.DefaultConfig(Name).WithBaseURL(server.URL).WithCredentials(creds))
	require.NoError(t, err)
	defer client.Close()

	route, err := Routes.Lookup(RouteCancelOrder)
	require.NoError(t, err)
	_, err = client.Do(context.Background(), route, core.NewParams("order_id", 9596912))
	require.NoError(t, err)
}

func TestClient_CancelAllSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"market":"BTC-PERP"}`, string(body))
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"success":false,"error":"Not logged in"}`))
	}))
	defer server.Close()

	client, err := NewClient(core.DefaultConfig(Name).WithBaseURL(server.URL).WithCredentials(creds))
	require.NoError(t, err)
	defer client.Close()

	route, err := Routes.Lookup(RouteCancelAll)
	require.NoError(t, err)
	_, err = client.Do(context.Background(), route, core.NewParams("market", "BTC-PERP"))
	require.Error(t, err)
	assert.True(t, core.IsUpstreamError(err))
}

func TestDetector(t *testing.T) {
	assert.True(t, Detector(map[string]any{"success": false}))
	assert.False(t, Detector(map[string]any{"success": true}))
	assert.False(t, Detector(map[string]any{}))
	assert.False(t, Detector("text"))
}
