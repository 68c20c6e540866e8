package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dropDatabas3/hellopush/internal/metrics"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout acota cada fetch para no trabar todas las verificaciones
// pendientes detrás de un IdP lento.
const DefaultFetchTimeout = 10 * time.Second

// expiryRetryInterval separa reintentos de refresh por hint vencido mientras el IdP falla.
const expiryRetryInterval = 30 * time.Second

// Fetcher obtiene el key set completo. Es el borde inyectable (red en prod, fijo en tests).
type Fetcher interface {
	Fetch(ctx context.Context) (*KeySet, error)
}

// Options configura el Provider.
type Options struct {
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Provider cachea el último key set obtenido con éxito.
type Provider struct {
	fetcher Fetcher
	timeout time.Duration
	now     func() time.Time

	current atomic.Pointer[KeySet]
	group   singleflight.Group
	// retryAt (unix nano): antes de este instante no se reintenta el refresh por expiración.
	retryAt atomic.Int64
}

// NewProvider crea un Provider vacío: el primer set se obtiene de forma lazy
// cuando una verificación no encuentra su kid.
func NewProvider(f Fetcher, opts Options) *Provider {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{fetcher: f, timeout: opts.FetchTimeout, now: opts.Now}
}

// Snapshot retorna el set vigente (nil si nunca se obtuvo uno).
func (p *Provider) Snapshot() *KeySet {
	return p.current.Load()
}

// Key busca kid en el set vigente. Si el hint de cache del set venció intenta
// refrescar primero; si ese refresh falla sigue con el set viejo y no vuelve a
// intentar hasta pasado expiryRetryInterval.
func (p *Provider) Key(ctx context.Context, kid string) (SigningKey, error) {
	set := p.current.Load()
	attempted := false
	var refreshErr error
	if now := p.now(); set.Expired(now) && now.UnixNano() >= p.retryAt.Load() {
		attempted = true
		if refreshErr = p.Refresh(ctx); refreshErr != nil {
			p.retryAt.Store(now.Add(expiryRetryInterval).UnixNano())
			logger.From(ctx).Warn("jwks refresh on expiry failed, serving stale key set",
				logger.Component("jwks"),
				logger.Err(refreshErr),
			)
		}
		set = p.current.Load()
	}
	if k, ok := set.Lookup(kid); ok {
		return k, nil
	}
	if attempted {
		return SigningKey{}, fmt.Errorf("%w: kid=%q: %w", ErrKeyNotFound, kid, errors.Join(ErrRefreshAttempted, refreshErr))
	}
	return SigningKey{}, fmt.Errorf("%w: kid=%q", ErrKeyNotFound, kid)
}

// Refresh obtiene un set nuevo y lo instala de forma atómica.
// Llamadas concurrentes comparten un único fetch. El fetch no se cancela si el
// request que lo disparó se cancela (otros requests pueden estar esperándolo),
// pero sí está acotado por FetchTimeout.
func (p *Provider) Refresh(ctx context.Context) error {
	_, err, _ := p.group.Do("refresh", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		set, err := p.fetcher.Fetch(fctx)
		if err != nil {
			metrics.JWKSRefreshes.WithLabelValues("error").Inc()
			if !errors.Is(err, ErrFetch) {
				err = fmt.Errorf("%w: %v", ErrFetch, err)
			}
			return nil, err
		}
		if set == nil {
			set = &KeySet{}
		}
		if set.Keys == nil {
			set.Keys = map[string]SigningKey{}
		}
		if set.FetchedAt.IsZero() {
			set.FetchedAt = p.now()
		}
		p.current.Store(set)

		metrics.JWKSRefreshes.WithLabelValues("ok").Inc()
		metrics.JWKSKeys.Set(float64(set.Len()))
		logger.From(ctx).Debug("jwks key set refreshed",
			logger.Component("jwks"),
			logger.Count(set.Len()),
		)
		return nil, nil
	})
	return err
}
