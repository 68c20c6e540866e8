package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAudience = "example.com"
	DefaultTopic    = "Libros"
	DefaultJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"app_env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr              string        `yaml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	PubSub struct {
		VerificationToken   string        `yaml:"verification_token"`
		Audience            string        `yaml:"audience"`
		Topic               string        `yaml:"topic"`
		Issuers             []string      `yaml:"issuers"`
		ServiceAccountEmail string        `yaml:"service_account_email"`
		ClockSkew           time.Duration `yaml:"clock_skew"`
		Algorithms          []string      `yaml:"algorithms"`
		// MaxMessages acota el store en memoria. 0 = sin límite.
		MaxMessages int `yaml:"max_messages"`
	} `yaml:"pubsub"`

	OIDC struct {
		JWKSURL      string        `yaml:"jwks_url"`
		DiscoveryURL string        `yaml:"discovery_url"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		// StaticJWKSPath carga las claves desde un archivo (dev/offline).
		StaticJWKSPath string `yaml:"static_jwks_path"`
	} `yaml:"oidc"`

	Bus struct {
		Driver string `yaml:"driver"` // memory | redis | kafka
		Redis  struct {
			Addr         string `yaml:"addr"`
			Password     string `yaml:"password"`
			DB           int    `yaml:"db"`
			StreamPrefix string `yaml:"stream_prefix"`
			MaxLen       int64  `yaml:"max_len"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers  []string `yaml:"brokers"`
			ClientID string   `yaml:"client_id"`
		} `yaml:"kafka"`
	} `yaml:"bus"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Disabled bool   `yaml:"disabled"`
		Path     string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee el YAML, aplica defaults y luego overrides de ENV.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

// LoadFromEnv arma la config sólo desde ENV (modo -env).
func LoadFromEnv() *Config {
	c := &Config{}
	c.applyEnvOverrides()
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "hellopush"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.PubSub.Audience == "" {
		c.PubSub.Audience = DefaultAudience
	}
	if c.PubSub.Topic == "" {
		c.PubSub.Topic = DefaultTopic
	}
	if c.PubSub.ClockSkew == 0 {
		c.PubSub.ClockSkew = 30 * time.Second
	}
	if c.OIDC.JWKSURL == "" && c.OIDC.DiscoveryURL == "" && c.OIDC.StaticJWKSPath == "" {
		c.OIDC.JWKSURL = DefaultJWKSURL
	}
	if c.OIDC.FetchTimeout == 0 {
		c.OIDC.FetchTimeout = 10 * time.Second
	}
	if c.Bus.Driver == "" {
		c.Bus.Driver = "memory"
	}
	if c.Bus.Redis.StreamPrefix == "" {
		c.Bus.Redis.StreamPrefix = "pubsub:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER (PORT es el contrato de la plataforma; SERVER_ADDR gana si están ambos)
	if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// PUBSUB
	if v, ok := getEnvStr("PUBSUB_VERIFICATION_TOKEN"); ok {
		c.PubSub.VerificationToken = v
	}
	if v, ok := getEnvStr("PUBSUB_AUDIENCE"); ok {
		c.PubSub.Audience = v
	}
	if v, ok := getEnvStr("PUBSUB_TOPIC"); ok {
		c.PubSub.Topic = v
	}
	if v, ok := getEnvCSV("PUBSUB_ISSUERS"); ok {
		c.PubSub.Issuers = v
	}
	if v, ok := getEnvStr("PUBSUB_SERVICE_ACCOUNT_EMAIL"); ok {
		c.PubSub.ServiceAccountEmail = v
	}
	if v, ok := getEnvDur("PUBSUB_CLOCK_SKEW"); ok {
		c.PubSub.ClockSkew = v
	}
	if v, ok := getEnvCSV("PUBSUB_ALGORITHMS"); ok {
		c.PubSub.Algorithms = v
	}
	if v, ok := getEnvInt("PUBSUB_MAX_MESSAGES"); ok {
		c.PubSub.MaxMessages = v
	}

	// OIDC
	if v, ok := getEnvStr("OIDC_JWKS_URL"); ok {
		c.OIDC.JWKSURL = v
	}
	if v, ok := getEnvStr("OIDC_DISCOVERY_URL"); ok {
		c.OIDC.DiscoveryURL = v
	}
	if v, ok := getEnvDur("OIDC_FETCH_TIMEOUT"); ok {
		c.OIDC.FetchTimeout = v
	}
	if v, ok := getEnvStr("OIDC_STATIC_JWKS_PATH"); ok {
		c.OIDC.StaticJWKSPath = v
	}

	// BUS
	if v, ok := getEnvStr("BUS_DRIVER"); ok {
		c.Bus.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Bus.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Bus.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Bus.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_STREAM_PREFIX"); ok {
		c.Bus.Redis.StreamPrefix = v
	}
	if v, ok := getEnvInt64("REDIS_STREAM_MAXLEN"); ok {
		c.Bus.Redis.MaxLen = v
	}
	if v, ok := getEnvCSV("KAFKA_BROKERS"); ok {
		c.Bus.Kafka.Brokers = v
	}
	if v, ok := getEnvStr("KAFKA_CLIENT_ID"); ok {
		c.Bus.Kafka.ClientID = v
	}

	// LOG / METRICS
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("METRICS_DISABLED"); ok {
		c.Metrics.Disabled = v
	}
	if v, ok := getEnvStr("METRICS_PATH"); ok {
		c.Metrics.Path = v
	}
}

// Validate chequea lo mínimo para arrancar el servicio.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PubSub.VerificationToken) == "" {
		errs = append(errs, errors.New("pubsub.verification_token (PUBSUB_VERIFICATION_TOKEN) es requerido"))
	}
	if strings.TrimSpace(c.PubSub.Audience) == "" {
		errs = append(errs, errors.New("pubsub.audience vacío"))
	}
	if strings.TrimSpace(c.PubSub.Topic) == "" {
		errs = append(errs, errors.New("pubsub.topic vacío"))
	}
	if c.PubSub.ClockSkew < 0 {
		errs = append(errs, errors.New("pubsub.clock_skew no puede ser negativo"))
	}
	switch c.Bus.Driver {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Bus.Redis.Addr) == "" {
			errs = append(errs, errors.New("bus.redis.addr requerido con driver redis"))
		}
	case "kafka":
		if len(c.Bus.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("bus.kafka.brokers requerido con driver kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("bus.driver desconocido: %q", c.Bus.Driver))
	}
	if c.OIDC.JWKSURL == "" && c.OIDC.DiscoveryURL == "" && c.OIDC.StaticJWKSPath == "" {
		errs = append(errs, errors.New("oidc: jwks_url, discovery_url o static_jwks_path requerido"))
	}
	return errors.Join(errs...)
}
