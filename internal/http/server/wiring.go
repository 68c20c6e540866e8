// Package server arma el http.Handler del servicio a partir de la config.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hellopush/internal/bus"
	"github.com/dropDatabas3/hellopush/internal/config"
	healthctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/health"
	indexctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/index"
	pushctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/push"
	mw "github.com/dropDatabas3/hellopush/internal/http/middlewares"
	"github.com/dropDatabas3/hellopush/internal/http/router"
	healthsvc "github.com/dropDatabas3/hellopush/internal/http/services/health"
	indexsvc "github.com/dropDatabas3/hellopush/internal/http/services/index"
	pushsvc "github.com/dropDatabas3/hellopush/internal/http/services/push"
	"github.com/dropDatabas3/hellopush/internal/jwks"
	"github.com/dropDatabas3/hellopush/internal/messages"
	"github.com/dropDatabas3/hellopush/internal/metrics"
	"github.com/dropDatabas3/hellopush/internal/pushauth"
)

// Deps son las piezas inyectables. Lo que quede en nil se construye desde Config.
type Deps struct {
	Config *config.Config

	Fetcher   jwks.Fetcher
	Publisher bus.Publisher
	Store     *messages.Store

	// Registry/Gatherer para métricas. nil = registry default de prometheus.
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer

	Now func() time.Time
}

// App es el servicio armado.
type App struct {
	Handler   http.Handler
	Store     *messages.Store
	Provider  *jwks.Provider
	Publisher bus.Publisher
}

// Close libera el publisher.
func (a *App) Close() error {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher.Close()
}

// Build arma el App.
func Build(d Deps) (*App, error) {
	cfg := d.Config
	if cfg == nil {
		return nil, fmt.Errorf("server: config required")
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	// 1. Key set provider + verifier
	fetcher := d.Fetcher
	if fetcher == nil {
		f, err := fetcherFromConfig(cfg, now)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	provider := jwks.NewProvider(fetcher, jwks.Options{FetchTimeout: cfg.OIDC.FetchTimeout, Now: now})
	verifier := pushauth.NewVerifier(provider, pushauth.Config{
		Audience:            cfg.PubSub.Audience,
		Issuers:             cfg.PubSub.Issuers,
		ServiceAccountEmail: cfg.PubSub.ServiceAccountEmail,
		ClockSkew:           cfg.PubSub.ClockSkew,
		Algorithms:          cfg.PubSub.Algorithms,
		Now:                 now,
	})

	// 2. Store
	store := d.Store
	if store == nil {
		store = messages.NewStore(cfg.PubSub.MaxMessages)
	}

	// 3. Métricas
	var metricsHandler http.Handler
	if !cfg.Metrics.Disabled {
		reg := d.Registry
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if err := mw.RegisterHTTPMetrics(reg); err != nil {
			return nil, fmt.Errorf("server: http metrics: %w", err)
		}
		if err := metrics.Register(reg); err != nil {
			return nil, fmt.Errorf("server: push metrics: %w", err)
		}
		if d.Gatherer != nil {
			metricsHandler = promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})
		} else {
			metricsHandler = promhttp.Handler()
		}
	}

	// bus al final: un error anterior no deja conexiones abiertas
	publisher := d.Publisher
	if publisher == nil {
		p, err := bus.New(busConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("server: bus: %w", err)
		}
		publisher = p
	}

	// 4. Services + controllers
	pushServices := pushsvc.NewServices(pushsvc.Deps{Store: store, Verifier: verifier, Now: now})
	indexServices := indexsvc.NewServices(indexsvc.Deps{Store: store, Publisher: publisher, Topic: cfg.PubSub.Topic})
	healthServices := healthsvc.NewServices(healthsvc.Deps{Keys: provider, Publisher: publisher, Store: store, Now: now})

	handler := router.New(router.Deps{
		Index:          indexctrl.NewControllers(indexServices),
		Push:           pushctrl.NewControllers(pushServices),
		Health:         healthctrl.NewControllers(healthServices),
		Gate:           pushauth.NewGate(cfg.PubSub.VerificationToken),
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
	})

	return &App{Handler: handler, Store: store, Provider: provider, Publisher: publisher}, nil
}

func fetcherFromConfig(cfg *config.Config, now func() time.Time) (jwks.Fetcher, error) {
	if cfg.OIDC.StaticJWKSPath != "" {
		f, err := jwks.LoadStaticFetcher(cfg.OIDC.StaticJWKSPath)
		if err != nil {
			return nil, fmt.Errorf("server: static jwks: %w", err)
		}
		return f, nil
	}
	return jwks.NewHTTPFetcher(jwks.HTTPFetcherConfig{
		JWKSURL:      cfg.OIDC.JWKSURL,
		DiscoveryURL: cfg.OIDC.DiscoveryURL,
		Timeout:      cfg.OIDC.FetchTimeout,
		Now:          now,
	}), nil
}

func busConfig(cfg *config.Config) bus.Config {
	return bus.Config{
		Driver: cfg.Bus.Driver,
		Redis: bus.RedisConfig{
			Addr:         cfg.Bus.Redis.Addr,
			Password:     cfg.Bus.Redis.Password,
			DB:           cfg.Bus.Redis.DB,
			StreamPrefix: cfg.Bus.Redis.StreamPrefix,
			MaxLen:       cfg.Bus.Redis.MaxLen,
		},
		Kafka: bus.KafkaConfig{
			Brokers:  cfg.Bus.Kafka.Brokers,
			ClientID: cfg.Bus.Kafka.ClientID,
		},
	}
}
