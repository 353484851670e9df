package huobi

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuelink/pkg/stream"
)

func TestClassify_Pings(t *testing.T) {
	ctl := classify([]byte(`{"ping":1492420473027}`))
	require.Len(t, ctl.Replies, 1)
	assert.JSONEq(t, `{"pong":1492420473027}`, string(ctl.Replies[0]))

	ctl = classify([]byte(`{"op":"ping","ts":"1492420473058"}`))
	require.Len(t, ctl.Replies, 1)
	assert.JSONEq(t, `{"op":"pong","ts":1492420473058}`, string(ctl.Replies[0]))
}

func TestClassify_Auth(t *testing.T) {
	assert.Equal(t, stream.Control{Authenticated: true},
		classify([]byte(`{"op":"auth","type":"api","err-code":0,"ts":1489474081631}`)))
	assert.Equal(t, stream.Control{AuthRejected: true},
		classify([]byte(`{"op":"auth","type":"api","err-code":2002,"err-msg":"invalid.auth.state"}`)))
	assert.Equal(t, stream.Control{}, classify([]byte(`{"ch":"market.BTC_CQ.trade.detail","tick":{}}`)))
}

func TestAuthPayload(t *testing.T) {
	now := time.Date(2020, 3, 1, 8, 0, 0, 0, time.UTC)
	payload, err := AuthPayload(creds, NotificationURL, now)
	require.NoError(t, err)

	var req map[string]string
	require.NoError(t, sonic.Unmarshal(payload, &req))
	assert.Equal(t, "auth", req["op"])
	assert.Equal(t, "2020-03-01T08:00:00", req["Timestamp"])

	digest := "GET\napi.hbdm.com\n/notification\nAccessKeyId=" + creds.APIKey +
		"&SignatureMethod=HmacSHA256&SignatureVersion=2&Timestamp=2020-03-01T08%3A00%3A00"
	assert.Equal(t, hmacBase64(creds.SecretKey, digest), req["Signature"])
}

func TestMarketStream(t *testing.T) {
	rule, err := MarketStream(MarketStreamURL, "market.BTC_CQ.depth.step0", "market.BTC_CQ.trade.detail")
	require.NoError(t, err)

	payloads, err := rule.Subscribe(nil)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.JSONEq(t, `{"sub":"market.BTC_CQ.depth.step0","id":"id1"}`, string(payloads[0]))

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err = w.Write([]byte(`{"ping":1}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	msg, err := rule.Decode(buf.Bytes(), true)
	require.NoError(t, err)
	assert.Equal(t, `{"ping":1}`, string(msg))
}

func TestNotificationStream(t *testing.T) {
	rule, err := NotificationStream(creds, SwapNotificationURL, "orders.BTC-USD")
	require.NoError(t, err)
	assert.True(t, rule.AwaitAuth)
	payloads, err := rule.Subscribe([]byte(`{"op":"auth"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"sub","cid":"cid1","topic":"orders.BTC-USD"}`, string(payloads[0]))

	_, err = stream.New(rule)
	assert.NoError(t, err)

	_, err = NotificationStream(nil, NotificationURL, "orders.btc")
	assert.Error(t, err)
}
