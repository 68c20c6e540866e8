package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellopush/internal/bus"
	"github.com/dropDatabas3/hellopush/internal/config"
	"github.com/dropDatabas3/hellopush/internal/pushauth/pushauthtest"
)

const testToken = "s3cret"

type testEnv struct {
	app    *App
	srv    *httptest.Server
	signer *pushauthtest.Signer
	bus    *bus.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	signer := pushauthtest.NewRSASigner(t, "kid-1")
	jwksSrv := pushauthtest.ServeJWKS(t, signer)

	t.Setenv("PUBSUB_VERIFICATION_TOKEN", testToken)
	t.Setenv("OIDC_JWKS_URL", jwksSrv.URL)
	cfg := config.LoadFromEnv()
	require.NoError(t, cfg.Validate())

	mem := bus.NewMemory()
	reg := prometheus.NewRegistry()
	app, err := Build(Deps{Config: cfg, Publisher: mem, Registry: reg, Gatherer: reg})
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return &testEnv{app: app, srv: srv, signer: signer, bus: mem}
}

func envelope(data string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(data))
	return fmt.Sprintf(`{"message":{"data":%q,"messageId":"m-%s"},"subscription":"projects/p/subscriptions/s"}`, enc, data)
}

func (e *testEnv) push(t *testing.T, path, token, bearer, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path+"?token="+url.QueryEscape(token), strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func (e *testEnv) index(t *testing.T) string {
	t.Helper()
	resp, err := http.Get(e.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func TestPushStoresMessage(t *testing.T) {
	e := newTestEnv(t)

	code, _ := e.push(t, "/pubsub/push", testToken, "", envelope("hello"))
	require.Equal(t, http.StatusOK, code)

	msgs := e.app.Store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Data)
	assert.Equal(t, "m-hello", msgs[0].MessageID)
	assert.Contains(t, e.index(t), "<li>hello</li>")
}

func TestAuthenticatedPushStoresMessageTokenAndClaims(t *testing.T) {
	e := newTestEnv(t)
	tok := e.signer.Sign(t, pushauthtest.PushClaims(config.DefaultAudience, time.Now()))

	code, _ := e.push(t, "/pubsub/authenticated-push", testToken, tok, envelope("world"))
	require.Equal(t, http.StatusOK, code)

	require.Len(t, e.app.Store.Messages(), 1)
	assert.Equal(t, "world", e.app.Store.Messages()[0].Data)
	v := e.app.Store.Verifications()
	require.Len(t, v, 1)
	assert.Equal(t, tok, v[0].Token)
	assert.Equal(t, "pubsub@example.iam.gserviceaccount.com", v[0].Claims.Email)

	page := e.index(t)
	assert.Contains(t, page, "<li>world</li>")
	assert.Contains(t, page, tok)
	assert.Contains(t, page, "pubsub@example.iam.gserviceaccount.com")
}

func TestAuthenticatedPushRejections(t *testing.T) {
	e := newTestEnv(t)
	now := time.Now()

	expired := pushauthtest.PushClaims(config.DefaultAudience, now.Add(-2*time.Hour))
	wrongAud := pushauthtest.PushClaims("https://other.example.com", now)
	impostor := pushauthtest.NewRSASigner(t, "kid-1")

	cases := []struct {
		name   string
		bearer string
	}{
		{"expired", e.signer.Sign(t, expired)},
		{"wrong audience", e.signer.Sign(t, wrongAud)},
		{"unknown signer same kid", impostor.Sign(t, pushauthtest.PushClaims(config.DefaultAudience, now))},
		{"garbage", "not.a.jwt"},
		{"missing bearer", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := e.push(t, "/pubsub/authenticated-push", testToken, tc.bearer, envelope("world"))
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Invalid token", body)
		})
	}
	assert.Zero(t, e.app.Store.Len())
	assert.Empty(t, e.app.Store.Verifications())
}

func TestGateRejectsIndependentOfBody(t *testing.T) {
	e := newTestEnv(t)
	tok := e.signer.Sign(t, pushauthtest.PushClaims(config.DefaultAudience, time.Now()))

	for _, path := range []string{"/pubsub/push", "/pubsub/authenticated-push"} {
		for _, body := range []string{envelope("hello"), "{", ""} {
			code, _ := e.push(t, path, "wrong", tok, body)
			assert.Equal(t, http.StatusBadRequest, code, "%s %q", path, body)
			code, _ = e.push(t, path, "", tok, body)
			assert.Equal(t, http.StatusBadRequest, code, "%s %q", path, body)
		}
	}
	assert.Zero(t, e.app.Store.Len())
}

func TestRepeatedPushesAppendEach(t *testing.T) {
	e := newTestEnv(t)
	for i := 0; i < 3; i++ {
		code, _ := e.push(t, "/pubsub/push", testToken, "", envelope("hello"))
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 3, e.app.Store.Len())
}

func TestInvalidPushBody(t *testing.T) {
	e := newTestEnv(t)
	for _, body := range []string{"{", `{"message":{}}`, `{"message":{"data":null}}`} {
		code, respBody := e.push(t, "/pubsub/push", testToken, "", body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid push body", respBody)
	}
	assert.Zero(t, e.app.Store.Len())
}

func TestPushStoresNonCanonicalData(t *testing.T) {
	e := newTestEnv(t)
	bodies := []string{
		`{"message":{"data":"This is a test message sent at: 1700000000000"}}`,
		`{"message":{"data":"aGVsbG8"}}`,
		`{"message":{"data":"Pz8_"}}`,
		`{"message":{"data":"aP9p"}}`,
		`{"message":{"data":"%%%"}}`,
	}
	for _, body := range bodies {
		code, _ := e.push(t, "/pubsub/push", testToken, "", body)
		assert.Equal(t, http.StatusOK, code, body)
	}

	msgs := e.app.Store.Messages()
	require.Len(t, msgs, len(bodies))
	assert.Equal(t, "hello", msgs[1].Data)
	assert.Equal(t, "???", msgs[2].Data)
	assert.Equal(t, "h\uFFFDi", msgs[3].Data)
}

func TestPublishForm(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.PostForm(e.srv.URL+"/", url.Values{"payload": {"Don Quijote"}})
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	published := e.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, config.DefaultTopic, published[0].Topic)
	assert.Equal(t, "Don Quijote", string(published[0].Data))
	assert.Equal(t, fmt.Sprintf("Message %s sent.", published[0].ID), string(b))

	resp, err = http.PostForm(e.srv.URL+"/", url.Values{})
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing payload", string(b))

	e.bus.Fail(errors.New("bus down"))
	resp, err = http.PostForm(e.srv.URL+"/", url.Values{"payload": {"x"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(b))

	resp, err = http.Get(e.srv.URL + "/readyz")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"jwks":{"status":"pending"`)

	code, _ := e.push(t, "/pubsub/push", testToken, "", envelope("hello"))
	require.Equal(t, http.StatusOK, code)

	resp, err = http.Get(e.srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), `push_requests_total{result="ok",route="/pubsub/push"}`)
	assert.Contains(t, string(b), "http_requests_total")
}

func TestUnknownRoutesNegotiateErrorFormat(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/nope")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", string(b))

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/nope", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"Not found","detail":"/nope"}`, string(b))

	req, err = http.NewRequest(http.MethodDelete, e.srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Contains(t, string(b), `"detail":"DELETE /"`)
}

func TestPushRoutesArePOSTOnly(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/pubsub/push?token=" + testToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Zero(t, e.app.Store.Len())
}
