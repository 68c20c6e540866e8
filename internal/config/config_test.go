package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("PUBSUB_VERIFICATION_TOKEN", "s3cret")

	c := LoadFromEnv()
	require.NoError(t, c.Validate())
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, DefaultAudience, c.PubSub.Audience)
	assert.Equal(t, DefaultTopic, c.PubSub.Topic)
	assert.Equal(t, DefaultJWKSURL, c.OIDC.JWKSURL)
	assert.Equal(t, "memory", c.Bus.Driver)
	assert.Equal(t, 30*time.Second, c.PubSub.ClockSkew)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
}

func TestPortAndOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PUBSUB_VERIFICATION_TOKEN", "s3cret")
	t.Setenv("PUBSUB_AUDIENCE", "https://push.example.org/pubsub/authenticated-push")
	t.Setenv("PUBSUB_ISSUERS", "https://accounts.google.com, accounts.google.com")
	t.Setenv("BUS_DRIVER", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c := LoadFromEnv()
	require.NoError(t, c.Validate())
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "https://push.example.org/pubsub/authenticated-push", c.PubSub.Audience)
	assert.Equal(t, []string{"https://accounts.google.com", "accounts.google.com"}, c.PubSub.Issuers)
	assert.Equal(t, "redis", c.Bus.Driver)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  addr: ":7000"
  shutdown_timeout: 3s
pubsub:
  verification_token: from-file
  topic: Revistas
bus:
  driver: kafka
  kafka:
    brokers: ["127.0.0.1:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("PUBSUB_TOPIC", "Libros2")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, 3*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "from-file", c.PubSub.VerificationToken)
	assert.Equal(t, "Libros2", c.PubSub.Topic, "env gana sobre yaml")
	assert.Equal(t, []string{"127.0.0.1:9092"}, c.Bus.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	c := LoadFromEnv()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification_token")

	c.PubSub.VerificationToken = "x"
	c.Bus.Driver = "kafka"
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.brokers")

	c.Bus.Driver = "nats"
	assert.Error(t, c.Validate())
}
