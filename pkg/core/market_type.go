package core

import "fmt"

// MarketType selects which of a venue's API hosts a client talks to.
type MarketType int

const (
	// MarketTypeSpot is the spot market.
	MarketTypeSpot MarketType = iota
	// MarketTypeLinearFutures covers stablecoin-margined futures and swaps.
	MarketTypeLinearFutures
	// MarketTypeInverseFutures covers coin-margined futures and swaps.
	MarketTypeInverseFutures
	// MarketTypeOptions covers options.
	MarketTypeOptions
)

var marketTypeNames = [...]string{
	"spot",
	"linear",
	"inverse",
	"options",
}

// String returns the lower-case market name.
func (m MarketType) String() string {
	if m < 0 || int(m) >= len(marketTypeNames) {
		return fmt.Sprintf("market(%d)", int(m))
	}
	return marketTypeNames[m]
}

func (m MarketType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MarketType) UnmarshalText(text []byte) error {
	for i, name := range marketTypeNames {
		if name == string(text) {
			*m = MarketType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown market type %q", text)
}
