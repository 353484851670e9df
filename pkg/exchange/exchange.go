// Package exchange describes venue integrations and builds clients and
// stream sessions from configuration.
package exchange

import (
	"fmt"

	"venuelink/pkg/core"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

// Endpoint selects one REST root of a venue.
type Endpoint struct {
	Market  core.MarketType
	Sandbox bool
}

// Descriptor is the static description of one venue: how requests are
// signed, where they go and which endpoints exist.
type Descriptor struct {
	Name     string
	Scheme   *sign.Scheme
	BaseURLs map[Endpoint]string
	Routes   core.Routes
	// MarketRoutes overrides Routes for venues whose markets use different paths.
	MarketRoutes map[core.MarketType]core.Routes
	// Detector flags 2xx bodies that report a failure. Nil uses rest.DefaultDetector.
	Detector rest.ErrorDetector
}

// BaseURL returns the REST root for market and environment.
func (d *Descriptor) BaseURL(market core.MarketType, sandbox bool) (string, error) {
	if u, ok := d.BaseURLs[Endpoint{Market: market, Sandbox: sandbox}]; ok {
		return u, nil
	}
	env := "production"
	if sandbox {
		env = "sandbox"
	}
	return "", fmt.Errorf("%s: no %s endpoint for %s market", d.Name, env, market)
}

// RoutesFor returns the routing table of a market.
func (d *Descriptor) RoutesFor(market core.MarketType) core.Routes {
	if rs, ok := d.MarketRoutes[market]; ok {
		return rs
	}
	return d.Routes
}

// NewClient builds a REST client for cfg. An explicit cfg.BaseURL skips the
// endpoint lookup.
func (d *Descriptor) NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	if err := d.Scheme.Validate(); err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var err error
		if baseURL, err = d.BaseURL(cfg.Market, cfg.Sandbox); err != nil {
			return nil, err
		}
	}
	if d.Detector != nil {
		opts = append([]rest.Option{rest.WithErrorDetector(d.Detector)}, opts...)
	}
	return rest.New(cfg, baseURL, d.Scheme, opts...)
}

// NewSession creates a stream session for rule with the timing from cfg.Stream.
func NewSession(cfg *core.Config, rule stream.Rule, opts ...stream.Option) (*stream.Session, error) {
	opts = append([]stream.Option{stream.WithConfig(stream.ConfigFrom(cfg.Stream))}, opts...)
	return stream.New(rule, opts...)
}
