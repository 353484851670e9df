package sign

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stamp renders the signing time in a venue's timestamp format.
type Stamp func(now time.Time) string

// UnixMillis renders milliseconds since the epoch.
func UnixMillis(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// UnixSecondsDecimal renders seconds with a millisecond fraction and no
// trailing zeros, e.g. "1700000000.12".
func UnixSecondsDecimal(now time.Time) string {
	return strconv.FormatFloat(float64(now.UnixMilli())/1000, 'f', -1, 64)
}

// ISO8601Millis renders UTC time as 2006-01-02T15:04:05.000Z.
func ISO8601Millis(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ISO8601Seconds renders UTC time as 2006-01-02T15:04:05.
func ISO8601Seconds(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05")
}

// ExpiresIn renders an expiry in whole epoch seconds, ttl after now.
func ExpiresIn(ttl time.Duration) Stamp {
	return func(now time.Time) string {
		return strconv.FormatInt(now.Add(ttl).Unix(), 10)
	}
}

// NonceSource produces one nonce per signed call.
type NonceSource interface {
	Next(now time.Time) string
}

// UUIDNonce returns a random version 4 UUID per call.
type UUIDNonce struct{}

func (UUIDNonce) Next(time.Time) string {
	return uuid.NewString()
}

// Counter is a nonce made of epoch seconds followed by the zero-padded six
// digit microsecond part. Values are strictly increasing across goroutines,
// even when the clock stalls or steps back.
type Counter struct {
	last atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next(now time.Time) string {
	return strconv.FormatInt(c.nextMicros(now.UnixMicro()), 10)
}

func (c *Counter) nextMicros(candidate int64) int64 {
	for {
		prev := c.last.Load()
		next := candidate
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
