package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Published es un mensaje aceptado por el Memory publisher.
type Published struct {
	ID          string
	Topic       string
	Data        []byte
	Attributes  map[string]string
	PublishedAt time.Time
}

// memoryHistory acota lo que recuerda Memory.
const memoryHistory = 1000

// Memory guarda los últimos mensajes publicados en memoria. No entrega a
// ningún suscriptor.
type Memory struct {
	mu        sync.Mutex
	published []Published
	err       error
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	p := Published{
		ID:          uuid.NewString(),
		Topic:       topic,
		Data:        append([]byte(nil), data...),
		Attributes:  attrs,
		PublishedAt: time.Now(),
	}
	m.published = append(m.published, p)
	if over := len(m.published) - memoryHistory; over > 0 {
		m.published = append(m.published[:0:0], m.published[over:]...)
	}
	return p.ID, nil
}

// Fail hace fallar las próximas publicaciones (nil vuelve a aceptar).
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Published retorna una copia de lo publicado.
func (m *Memory) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

func (m *Memory) Close() error { return nil }
