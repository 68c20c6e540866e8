package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, p.(*instrumented).next)

	_, err = New(Config{Driver: "nats"})
	assert.Error(t, err)

	_, err = New(Config{Driver: "redis"})
	assert.Error(t, err, "redis sin addr")

	_, err = New(Config{Driver: "kafka", Kafka: KafkaConfig{Brokers: []string{" ", "\t"}}})
	assert.Error(t, err, "kafka sin brokers")
}

func TestMemoryPublish(t *testing.T) {
	m := NewMemory()
	id1, err := m.Publish(context.Background(), "Libros", []byte("hola"), map[string]string{"k": "v"})
	require.NoError(t, err)
	id2, err := m.Publish(context.Background(), "Libros", []byte("chau"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	got := m.Published()
	require.Len(t, got, 2)
	assert.Equal(t, "hola", string(got[0].Data))
	assert.Equal(t, "v", got[0].Attributes["k"])
	assert.Equal(t, id2, got[1].ID)
}

func TestInstrumentedWrapsErrors(t *testing.T) {
	m := NewMemory()
	m.Fail(errors.New("down"))
	p := &instrumented{driver: "memory", next: m}

	_, err := p.Publish(context.Background(), "Libros", []byte("x"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPublish)

	m.Fail(nil)
	_, err = p.Publish(context.Background(), "Libros", []byte("x"), nil)
	assert.NoError(t, err)
}

func TestRedisPublishXAdd(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r, err := NewRedis(RedisConfig{Addr: mr.Addr(), StreamPrefix: "push:"})
	require.NoError(t, err)
	defer r.Close()

	id, err := r.Publish(context.Background(), "Libros", []byte("hola"), map[string]string{"origin": "form"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	c := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer c.Close()
	entries, err := c.XRange(context.Background(), "push:Libros", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "hola", entries[0].Values["data"])
	assert.Equal(t, "form", entries[0].Values["attr:origin"])
}

func TestRedisPublishFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	r, err := NewRedis(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer r.Close()
	mr.Close()

	_, err = r.Publish(context.Background(), "Libros", []byte("x"), nil)
	assert.ErrorIs(t, err, ErrPublish)
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error { return nil }

func TestKafkaPublish(t *testing.T) {
	w := &fakeKafkaWriter{}
	k := &Kafka{writer: w}

	id, err := k.Publish(context.Background(), "Libros", []byte("hola"), map[string]string{"origin": "cli"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "Libros", msg.Topic)
	assert.Equal(t, id, string(msg.Key))
	assert.Equal(t, "hola", string(msg.Value))
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, id, headers["message-id"])
	assert.Equal(t, "cli", headers["origin"])

	w.err = errors.New("leader not available")
	_, err = k.Publish(context.Background(), "Libros", []byte("x"), nil)
	assert.ErrorIs(t, err, ErrPublish)
}

func TestKafkaNilGuards(t *testing.T) {
	var k *Kafka
	assert.NoError(t, k.Close())
	_, err := k.Publish(context.Background(), "Libros", nil, nil)
	assert.ErrorIs(t, err, ErrPublish)

	real, err := NewKafka(KafkaConfig{Brokers: []string{" 127.0.0.1:9092 "}, ClientID: "hellopush"})
	require.NoError(t, err)
	assert.NoError(t, real.Close())
}

func TestPing(t *testing.T) {
	ok, err := Ping(context.Background(), NewMemory())
	assert.False(t, ok)
	assert.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	p, err := New(Config{Driver: "redis", Redis: RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)
	defer p.Close()

	ok, err = Ping(context.Background(), p)
	assert.True(t, ok)
	assert.NoError(t, err)
}
