// Package venues registers every supported venue in an exchange.Container.
package venues

import (
	"venuelink/pkg/exchange"
	"venuelink/pkg/exchange/binance"
	"venuelink/pkg/exchange/bitflyer"
	"venuelink/pkg/exchange/bitmex"
	"venuelink/pkg/exchange/bybit"
	"venuelink/pkg/exchange/deribit"
	"venuelink/pkg/exchange/ftx"
	"venuelink/pkg/exchange/huobi"
	"venuelink/pkg/exchange/kraken"
	"venuelink/pkg/exchange/okex"
	"venuelink/pkg/exchange/phemex"
)

// Descriptors returns a fresh descriptor for each venue.
func Descriptors() []*exchange.Descriptor {
	return []*exchange.Descriptor{
		binance.Descriptor(),
		bitflyer.Descriptor(),
		bitmex.Descriptor(),
		bybit.Descriptor(),
		deribit.Descriptor(),
		ftx.Descriptor(),
		huobi.Descriptor(),
		kraken.Descriptor(),
		okex.Descriptor(),
		okex.DescriptorV3(),
		phemex.Descriptor(),
	}
}

// NewContainer returns a container with every venue registered.
func NewContainer() *exchange.Container {
	c := exchange.NewContainer()
	for _, d := range Descriptors() {
		c.Register(d)
	}
	return c
}
