package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

func testDescriptor(name string) *Descriptor {
	return &Descriptor{
		Name: name,
		Scheme: &sign.Scheme{
			Name:      name,
			Canonical: sign.QueryString,
			Attach: func(out *sign.Output, _ sign.Material, sig string) {
				out.AppendQuery("signature", sig)
			},
		},
		BaseURLs: map[Endpoint]string{
			{Market: core.MarketTypeSpot}:                "https://api.test",
			{Market: core.MarketTypeSpot, Sandbox: true}: "https://sandbox.test",
		},
		Routes: core.NewRoutes(core.Get("time", "/time", core.AuthPublic)),
	}
}

func TestContainer_Register(t *testing.T) {
	c := NewContainer()
	c.Register(testDescriptor("test"))

	assert.True(t, c.Exists("test"))
	got, err := c.Get("test")
	require.NoError(t, err)
	assert.Equal(t, "test", got.Name)

	_, err = c.Get("notfound")
	assert.Error(t, err)
}

func TestContainer_Names(t *testing.T) {
	c := NewContainer()
	c.Register(testDescriptor("okex"))
	c.Register(testDescriptor("binance"))

	assert.Equal(t, []string{"binance", "okex"}, c.Names())
}

func TestContainer_Unregister(t *testing.T) {
	c := NewContainer()
	c.Register(testDescriptor("test"))

	c.Unregister("test")

	assert.False(t, c.Exists("test"))
	assert.Empty(t, c.Names())
}

func TestDescriptor_BaseURL(t *testing.T) {
	d := testDescriptor("test")

	u, err := d.BaseURL(core.MarketTypeSpot, true)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.test", u)

	_, err = d.BaseURL(core.MarketTypeInverseFutures, false)
	assert.ErrorContains(t, err, "no production endpoint for inverse market")
}

func TestContainer_Client(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time", r.URL.Path)
		_, _ = w.Write([]byte(`{"serverTime":1700000000000}`))
	}))
	defer server.Close()

	c := NewContainer()
	c.Register(testDescriptor("test"))

	cfg := core.DefaultConfig("test").WithBaseURL(server.URL)
	client, err := c.Client(cfg)
	require.NoError(t, err)
	defer client.Close()

	route, err := testDescriptor("test").Routes.Lookup("time")
	require.NoError(t, err)
	res, err := client.Do(context.Background(), route, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, err = c.Client(core.DefaultConfig("missing"))
	assert.Error(t, err)
}

func TestDescriptor_NewClientUsesEndpoint(t *testing.T) {
	client, err := testDescriptor("test").NewClient(core.DefaultConfig("test").WithSandbox(true))
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "https://sandbox.test", client.BaseURL())

	_, err = testDescriptor("test").NewClient(core.DefaultConfig("test").WithMarket(core.MarketTypeOptions))
	assert.Error(t, err)
}

func TestDescriptor_InvalidScheme(t *testing.T) {
	d := testDescriptor("test")
	d.Scheme.Attach = nil

	_, err := d.NewClient(core.DefaultConfig("test"))
	assert.Error(t, err)
}

func TestNewSession_AppliesStreamConfig(t *testing.T) {
	cfg := core.DefaultConfig("test")
	_, err := NewSession(cfg, stream.Rule{Venue: "test", URL: "wss://stream.test"})
	require.NoError(t, err)

	_, err = NewSession(cfg, stream.Rule{Venue: "test"})
	assert.Error(t, err)
}
