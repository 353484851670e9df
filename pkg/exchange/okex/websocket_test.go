package okex

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuelink/pkg/core"
	"venuelink/pkg/stream"
)

func TestLoginPayload(t *testing.T) {
	payload, err := LoginPayload(creds, time.Unix(1538054050, 0))
	require.NoError(t, err)

	var req struct {
		Op   string              `json:"op"`
		Args []map[string]string `json:"args"`
	}
	require.NoError(t, sonic.Unmarshal(payload, &req))
	require.Len(t, req.Args, 1)
	assert.Equal(t, "login", req.Op)
	assert.Equal(t, "1538054050", req.Args[0]["timestamp"])
	assert.Equal(t, hmacBase64("secret", "1538054050GET/users/self/verify"), req.Args[0]["sign"])

	_, err = LoginPayload(&core.Credentials{APIKey: "key", SecretKey: "secret"}, time.Now())
	assert.ErrorIs(t, err, core.ErrMissingCredentials)
}

func TestLoginPayloadV3(t *testing.T) {
	payload, err := LoginPayloadV3(creds, time.UnixMilli(1538054050975))
	require.NoError(t, err)

	var req struct {
		Op   string   `json:"op"`
		Args []string `json:"args"`
	}
	require.NoError(t, sonic.Unmarshal(payload, &req))
	assert.Equal(t, []string{"key", "phrase", "1538054050.975",
		hmacBase64("secret", "1538054050.975GET/users/self/verify")}, req.Args)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, stream.Control{Pong: true}, classify([]byte("pong")))
	assert.Equal(t, stream.Control{Authenticated: true}, classify([]byte(`{"event":"login","code":"0","msg":""}`)))
	assert.Equal(t, stream.Control{AuthRejected: true}, classify([]byte(`{"event":"error","code":"60009","msg":"Login failed."}`)))
	assert.Equal(t, stream.Control{}, classify([]byte(`{"event":"error","code":"60018","msg":"Invalid channel"}`)))

	assert.Equal(t, stream.Control{Authenticated: true}, classifyV3([]byte(`{"event":"login","success":true}`)))
	assert.Equal(t, stream.Control{AuthRejected: true}, classifyV3([]byte(`{"event":"error","message":"Invalid sign","errorCode":30013}`)))
}

func TestPrivateStream(t *testing.T) {
	rule, err := PrivateStream(creds, Arg{Channel: "orders", InstType: "SWAP"})
	require.NoError(t, err)
	assert.True(t, rule.AwaitAuth)
	assert.Equal(t, []byte("ping"), rule.Heartbeat.Probe)

	payloads, err := rule.Subscribe([]byte(`{"event":"login","code":"0"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"subscribe","args":[{"channel":"orders","instType":"SWAP"}]}`, string(payloads[0]))

	_, err = stream.New(rule)
	assert.NoError(t, err)
}

func TestStreamV3_Inflate(t *testing.T) {
	rule, err := StreamV3(nil, "spot/ticker:ETH-USDT")
	require.NoError(t, err)
	assert.Nil(t, rule.Auth)

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"table":"spot/ticker"}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	msg, err := rule.Decode(buf.Bytes(), true)
	require.NoError(t, err)
	assert.Equal(t, `{"table":"spot/ticker"}`, string(msg))
}
