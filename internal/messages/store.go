// Package messages es el store en memoria de lo que muestra la página índice:
// mensajes recibidos por push, bearer tokens aceptados y claims verificadas.
// Vive lo que vive el proceso; no hay persistencia.
package messages

import (
	"sync"
	"time"

	"github.com/dropDatabas3/hellopush/internal/pushauth"
)

// Message es un mensaje recibido por alguno de los webhooks.
type Message struct {
	Data         string
	Attributes   map[string]string
	MessageID    string
	Subscription string
	Route        string
	ReceivedAt   time.Time
}

// Verification registra un push autenticado aceptado.
type Verification struct {
	Token  string
	Claims pushauth.Claims
}

// Store es append-only y seguro para uso concurrente. El orden de inserción se preserva.
type Store struct {
	mu       sync.RWMutex
	limit    int
	messages []Message
	verified []Verification
}

// NewStore crea un store. Con limit > 0 cada lista conserva sólo los últimos
// limit elementos; limit <= 0 no acota.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// Append agrega un mensaje y retorna el largo resultante.
func (s *Store) Append(m Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = appendBounded(s.messages, m, s.limit)
	return len(s.messages)
}

// AppendVerification registra el token y sus claims ya verificadas.
func (s *Store) AppendVerification(v Verification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = appendBounded(s.verified, v, s.limit)
}

// Messages retorna una copia en orden de llegada.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

// Verifications retorna una copia en orden de llegada.
func (s *Store) Verifications() []Verification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Verification(nil), s.verified...)
}

// Len retorna la cantidad de mensajes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func appendBounded[T any](list []T, v T, limit int) []T {
	list = append(list, v)
	if limit <= 0 {
		return list
	}
	if over := len(list) - limit; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	return list
}
