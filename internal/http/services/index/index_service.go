// Package index contiene el service de la página principal: listado y publicación.
package index

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dropDatabas3/hellopush/internal/bus"
	dto "github.com/dropDatabas3/hellopush/internal/http/dto/index"
	"github.com/dropDatabas3/hellopush/internal/messages"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
)

// ErrMissingPayload indica un form sin payload.
var ErrMissingPayload = errors.New("index: missing payload")

// IndexService define las operaciones de la página principal.
type IndexService interface {
	Page(ctx context.Context) dto.Page
	// Publish publica payload en el tópico configurado y devuelve el id del bus.
	Publish(ctx context.Context, payload string) (string, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Store     *messages.Store
	Publisher bus.Publisher
	Topic     string
}

type indexService struct {
	deps Deps
}

func NewIndexService(d Deps) IndexService {
	return &indexService{deps: d}
}

// Services agrupa los services del dominio index.
type Services struct {
	Index IndexService
}

func NewServices(d Deps) Services {
	return Services{Index: NewIndexService(d)}
}

func (s *indexService) Page(ctx context.Context) dto.Page {
	page := dto.Page{Topic: s.deps.Topic}
	for _, m := range s.deps.Store.Messages() {
		page.Messages = append(page.Messages, dto.Message{
			Data:       m.Data,
			MessageID:  m.MessageID,
			Route:      m.Route,
			ReceivedAt: m.ReceivedAt,
		})
	}
	for _, v := range s.deps.Store.Verifications() {
		page.Tokens = append(page.Tokens, v.Token)
		b, err := json.MarshalIndent(v.Claims, "", "  ")
		if err != nil {
			logger.From(ctx).Warn("claims not renderable", logger.Layer("service"), logger.Err(err))
			continue
		}
		page.Claims = append(page.Claims, string(b))
	}
	return page
}

func (s *indexService) Publish(ctx context.Context, payload string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("index"),
		logger.Op("Publish"),
		logger.Topic(s.deps.Topic),
	)
	if payload == "" {
		return "", ErrMissingPayload
	}
	id, err := s.deps.Publisher.Publish(ctx, s.deps.Topic, []byte(payload), map[string]string{"origin": "form"})
	if err != nil {
		log.Error("publish failed", logger.Err(err))
		return "", err
	}
	log.Info("message published", logger.MessageID(id))
	return id, nil
}
