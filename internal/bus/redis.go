package bus

import (
	"context"
	"fmt"
	"strings"

	rdb "github.com/redis/go-redis/v9"
)

// Redis publica cada mensaje como una entrada de stream (XADD). El id devuelto
// es el id de la entrada ("<ms>-<seq>").
type Redis struct {
	client *rdb.Client
	prefix string
	maxLen int64
}

// NewRedis crea el publisher. No hace ping: un redis caído se reporta al publicar.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("bus: redis addr required")
	}
	return &Redis{
		client: rdb.NewClient(&rdb.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB}),
		prefix: cfg.StreamPrefix,
		maxLen: cfg.MaxLen,
	}, nil
}

// Stream retorna la key del stream de topic.
func (r *Redis) Stream(topic string) string { return r.prefix + topic }

func (r *Redis) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	values := make(map[string]any, len(attrs)+1)
	values["data"] = string(data)
	for k, v := range attrs {
		values["attr:"+k] = v
	}
	args := &rdb.XAddArgs{Stream: r.Stream(topic), Values: values}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("%w: xadd %s: %v", ErrPublish, args.Stream, err)
	}
	return id, nil
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
