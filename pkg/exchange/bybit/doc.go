// Package bybit implements the Bybit signing rule and streams.
//
// Signed calls add api_key and timestamp to the query, sign the sorted
// unescaped key=value join with HMAC-SHA256 and append the hex digest as
// "sign". Streams authenticate with an expiring "GET/realtime" signature
// and keep alive with {"op":"ping"}.
//
// Bybit API Documentation: https://bybit-exchange.github.io/docs/
package bybit
