// Package bus publica mensajes en el message bus externo.
//
// Drivers:
//   - memory: loopback en proceso (dev/tests), ids uuid.
//   - redis:  XADD sobre un stream por tópico.
//   - kafka:  kafka-go Writer, un tópico kafka por tópico.
//
// No hay reintentos: si el bus falla se devuelve ErrPublish y el caller decide.
package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/hellopush/internal/metrics"
)

// ErrPublish envuelve cualquier falla del bus.
var ErrPublish = errors.New("bus: publish failed")

// Publisher publica data en topic y devuelve el id asignado por el bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// RedisConfig configura el driver redis.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	StreamPrefix string
	// MaxLen acota cada stream (XADD MAXLEN ~). 0 = sin límite.
	MaxLen int64
}

// KafkaConfig configura el driver kafka.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// Config selecciona y configura el driver.
type Config struct {
	Driver string // "memory" | "redis" | "kafka"
	Redis  RedisConfig
	Kafka  KafkaConfig
}

// New crea el Publisher según cfg.Driver, instrumentado con métricas.
func New(cfg Config) (Publisher, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var (
		p   Publisher
		err error
	)
	switch driver {
	case "memory", "":
		driver = "memory"
		p = NewMemory()
	case "redis":
		p, err = NewRedis(cfg.Redis)
	case "kafka":
		p, err = NewKafka(cfg.Kafka)
	default:
		return nil, fmt.Errorf("bus: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{driver: driver, next: p}, nil
}

type instrumented struct {
	driver string
	next   Publisher
}

func (i *instrumented) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	id, err := i.next.Publish(ctx, topic, data, attrs)
	result := "ok"
	if err != nil {
		result = "error"
		if !errors.Is(err, ErrPublish) {
			err = fmt.Errorf("%w: %v", ErrPublish, err)
		}
	}
	metrics.BusPublishes.WithLabelValues(i.driver, result).Inc()
	return id, err
}

func (i *instrumented) Close() error { return i.next.Close() }

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping chequea la conectividad del driver. ok=false si el driver no soporta ping.
func Ping(ctx context.Context, p Publisher) (ok bool, err error) {
	if i, isWrapped := p.(*instrumented); isWrapped {
		p = i.next
	}
	pg, supported := p.(pinger)
	if !supported {
		return false, nil
	}
	return true, pg.Ping(ctx)
}
