package push

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellopush/internal/messages"
)

func TestDecodeData(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"padded", "aGVsbG8=", "hello"},
		{"unpadded", "aGVsbG8", "hello"},
		{"url-safe", "Pz8_", "???"},
		{"url-safe with plus", "Pz8-", "??>"},
		{"embedded spaces", "aGVs bG8=", "hello"},
		{"trailing after padding", "aGVsbG8=garbage", "hello"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(decodeData(tc.in)))
		})
	}
}

func TestPushStoresLenientData(t *testing.T) {
	bodies := map[string]string{
		"raw text":     `{"message":{"data":"This is a test message sent at: 1700000000000"}}`,
		"unpadded":     `{"message":{"data":"aGVsbG8"}}`,
		"url-safe":     `{"message":{"data":"Pz8_"}}`,
		"invalid utf8": `{"message":{"data":"aP9p"}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			store := messages.NewStore(0)
			svc := NewPushService(Deps{Store: store})

			msg, err := svc.Push(context.Background(), []byte(body))
			require.NoError(t, err)
			assert.True(t, utf8.ValidString(msg.Data))
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestPushReplacesInvalidUTF8(t *testing.T) {
	store := messages.NewStore(0)
	svc := NewPushService(Deps{Store: store})

	// base64 de "h\xffi"
	msg, err := svc.Push(context.Background(), []byte(`{"message":{"data":"aP9p"}}`))
	require.NoError(t, err)
	assert.Equal(t, "h\uFFFDi", msg.Data)
}

func TestPushRejectsBrokenEnvelope(t *testing.T) {
	store := messages.NewStore(0)
	svc := NewPushService(Deps{Store: store})

	for _, body := range []string{"{", `{"message":{}}`, `{"subscription":"s"}`} {
		_, err := svc.Push(context.Background(), []byte(body))
		assert.True(t, errors.Is(err, ErrInvalidBody), body)
	}
	assert.Zero(t, store.Len())
}
