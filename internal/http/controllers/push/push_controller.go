// Package push contiene el controller de los webhooks de Pub/Sub push.
package push

import (
	"errors"
	"io"
	"net/http"

	httperrors "github.com/dropDatabas3/hellopush/internal/http/errors"
	svc "github.com/dropDatabas3/hellopush/internal/http/services/push"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
)

// maxPushBody: Pub/Sub limita los mensajes a 10MB; en base64 crecen ~4/3.
const maxPushBody = 16 << 20

// PushController maneja /pubsub/push y /pubsub/authenticated-push. El gate del
// token compartido corre antes, como middleware.
type PushController struct {
	service svc.PushService
}

func NewPushController(service svc.PushService) *PushController {
	return &PushController{service: service}
}

// Controllers agrupa los controllers del dominio push.
type Controllers struct {
	Push *PushController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Push: NewPushController(s.Push)}
}

// Push maneja POST /pubsub/push
func (c *PushController) Push(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("PushController.Push"))

	body, err := readBody(w, r)
	if err != nil {
		log.Debug("body read failed", logger.Err(err))
		httperrors.WriteText(w, httperrors.ErrInvalidPushBody.WithCause(err))
		return
	}
	if _, err := c.service.Push(r.Context(), body); err != nil {
		writePushError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AuthenticatedPush maneja POST /pubsub/authenticated-push
func (c *PushController) AuthenticatedPush(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("PushController.AuthenticatedPush"))

	body, err := readBody(w, r)
	if err != nil {
		log.Debug("body read failed", logger.Err(err))
		httperrors.WriteText(w, httperrors.ErrInvalidPushBody.WithCause(err))
		return
	}
	if _, err := c.service.AuthenticatedPush(r.Context(), r.Header.Get("Authorization"), body); err != nil {
		writePushError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxPushBody))
}

// writePushError: cualquier falla de verificación es el mismo 400 "Invalid token".
func writePushError(w http.ResponseWriter, err error) {
	if errors.Is(err, svc.ErrInvalidBody) {
		httperrors.WriteText(w, httperrors.ErrInvalidPushBody.WithCause(err))
		return
	}
	httperrors.WriteText(w, httperrors.ErrInvalidToken.WithCause(err))
}
