package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// GoogleCertsURL publica las claves que firman los ID tokens de Google
	// (incluidos los que manda Pub/Sub en push autenticado).
	GoogleCertsURL     = "https://www.googleapis.com/oauth2/v3/certs"
	GoogleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

	discoveryTTL = 24 * time.Hour
	maxJWKSBytes = 1 << 20
)

type discoveryDoc struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// HTTPFetcherConfig configura el HTTPFetcher. Si JWKSURL está vacío se
// resuelve jwks_uri desde DiscoveryURL.
type HTTPFetcherConfig struct {
	JWKSURL      string
	DiscoveryURL string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Now          func() time.Time
}

// HTTPFetcher baja el JWKS por HTTP. Recuerda el último ETag: si el IdP
// responde 304 se reutilizan las claves anteriores con la nueva expiración.
type HTTPFetcher struct {
	jwksURL      string
	discoveryURL string
	http         *http.Client
	now          func() time.Time
	disc         *gocache.Cache

	mu   sync.Mutex
	etag string
	last map[string]SigningKey
}

// NewHTTPFetcher crea el fetcher. Sin URLs usa las de Google.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	if cfg.JWKSURL == "" && cfg.DiscoveryURL == "" {
		cfg.JWKSURL = GoogleCertsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HTTPFetcher{
		jwksURL:      cfg.JWKSURL,
		discoveryURL: cfg.DiscoveryURL,
		http:         cfg.HTTPClient,
		now:          cfg.Now,
		disc:         gocache.New(discoveryTTL, time.Hour),
	}
}

// Fetch implementa Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*KeySet, error) {
	uri, err := f.resolveJWKSURI(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.etag != "" && f.last != nil {
		req.Header.Set("If-None-Match", f.etag)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	now := f.now()
	var keys map[string]SigningKey
	switch {
	case resp.StatusCode == http.StatusNotModified && f.last != nil:
		keys = f.last
	case resp.StatusCode/100 == 2:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
		}
		keys, err = ParseDocument(body)
		if err != nil {
			return nil, err
		}
		f.last = keys
		f.etag = resp.Header.Get("ETag")
	default:
		return nil, fmt.Errorf("%w: jwks http %d", ErrFetch, resp.StatusCode)
	}

	out := make(map[string]SigningKey, len(keys))
	for kid, k := range keys {
		out[kid] = k
	}
	return &KeySet{
		Keys:      out,
		FetchedAt: now,
		ExpiresAt: cacheExpiry(resp.Header, now),
		ETag:      f.etag,
	}, nil
}

func (f *HTTPFetcher) resolveJWKSURI(ctx context.Context) (string, error) {
	if f.jwksURL != "" {
		return f.jwksURL, nil
	}
	if v, ok := f.disc.Get(f.discoveryURL); ok {
		return v.(*discoveryDoc).JWKSURI, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: discovery: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: discovery http %d", ErrFetch, resp.StatusCode)
	}
	var dd discoveryDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&dd); err != nil {
		return "", fmt.Errorf("%w: decode discovery: %v", ErrFetch, err)
	}
	if strings.TrimSpace(dd.JWKSURI) == "" {
		return "", fmt.Errorf("%w: discovery without jwks_uri", ErrFetch)
	}
	f.disc.Set(f.discoveryURL, &dd, gocache.DefaultExpiration)
	return dd.JWKSURI, nil
}

// cacheExpiry interpreta Cache-Control max-age (o Expires). Sin hint => zero.
func cacheExpiry(h http.Header, now time.Time) time.Time {
	for _, d := range strings.Split(h.Get("Cache-Control"), ",") {
		d = strings.TrimSpace(strings.ToLower(d))
		if v, ok := strings.CutPrefix(d, "max-age="); ok {
			if secs, err := strconv.Atoi(strings.Trim(v, `"`)); err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}
	if v := h.Get("Expires"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			return t
		}
	}
	return time.Time{}
}
