package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellopush/internal/config"
	"github.com/dropDatabas3/hellopush/internal/http/server"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
	"github.com/dropDatabas3/hellopush/internal/util"
)

var version = "dev"

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func printConfigSummary(c *config.Config) {
	log.Printf(`CONFIG:
  app(env=%s, name=%s)
  server(addr=%s, read_header_timeout=%s, shutdown_timeout=%s)

  pubsub(topic=%s, audience=%s, verification_token=%s)
  pubsub.issuers=%v service_account=%s clock_skew=%s algorithms=%v max_messages=%d

  oidc(jwks_url=%s, discovery_url=%s, static=%s, fetch_timeout=%s)

  bus(driver=%s)
  bus.redis(addr=%s, password=%s, db=%d, prefix=%s, max_len=%d)
  bus.kafka(brokers=%v, client_id=%s)

  log(level=%s) metrics(disabled=%t, path=%s)
`,
		c.App.Env, c.App.Name,
		c.Server.Addr, c.Server.ReadHeaderTimeout, c.Server.ShutdownTimeout,
		c.PubSub.Topic, c.PubSub.Audience, util.MaskSecret(c.PubSub.VerificationToken),
		c.PubSub.Issuers, util.MaskEmail(c.PubSub.ServiceAccountEmail), c.PubSub.ClockSkew, c.PubSub.Algorithms, c.PubSub.MaxMessages,
		c.OIDC.JWKSURL, c.OIDC.DiscoveryURL, c.OIDC.StaticJWKSPath, c.OIDC.FetchTimeout,
		c.Bus.Driver,
		c.Bus.Redis.Addr, util.MaskSecret(c.Bus.Redis.Password), c.Bus.Redis.DB, c.Bus.Redis.StreamPrefix, c.Bus.Redis.MaxLen,
		c.Bus.Kafka.Brokers, c.Bus.Kafka.ClientID,
		c.Log.Level, c.Metrics.Disabled, c.Metrics.Path,
	)
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvOnly    = flag.Bool("env", false, "usar SOLO env (y .env si se pasa -env-file)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if *flagEnvFile != "" && (fileExists(*flagEnvFile) || *flagEnvOnly) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	var cfg *config.Config
	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	if *flagEnvOnly || cfgPath == "" {
		cfg = config.LoadFromEnv()
	} else {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *flagPrint {
		printConfigSummary(cfg)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	logEnv := "dev"
	if strings.EqualFold(cfg.App.Env, "prod") || strings.EqualFold(cfg.App.Env, "production") {
		logEnv = "prod"
	}
	logger.Init(logger.Config{Env: logEnv, Level: cfg.Log.Level, ServiceName: cfg.App.Name, Version: version})
	code := run(cfg)
	_ = logger.Sync()
	os.Exit(code)
}

// run levanta el server y bloquea hasta una señal o un error del listener.
// Retorna el exit code; todo lo diferido corre antes de salir.
func run(cfg *config.Config) int {
	lg := logger.L().With(logger.Component("main"))

	app, err := server.Build(server.Deps{Config: cfg})
	if err != nil {
		lg.Error("wiring failed", logger.Err(err))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			lg.Warn("publisher close failed", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("service up",
			logger.String("addr", cfg.Server.Addr),
			logger.Topic(cfg.PubSub.Topic),
			logger.String("audience", cfg.PubSub.Audience),
			logger.String("bus", cfg.Bus.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	code := 0
	select {
	case <-ctx.Done():
		lg.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			lg.Error("http server failed", logger.Err(err))
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", logger.Err(err))
		code = 1
	}
	return code
}
