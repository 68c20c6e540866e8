package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dto "github.com/dropDatabas3/hellopush/internal/http/dto/push"
	"github.com/dropDatabas3/hellopush/internal/messages"
	"github.com/dropDatabas3/hellopush/internal/metrics"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
	"github.com/dropDatabas3/hellopush/internal/pushauth"
	"github.com/dropDatabas3/hellopush/internal/util"
)

// ErrInvalidBody indica un envelope que no se pudo decodificar.
var ErrInvalidBody = errors.New("push: invalid body")

const (
	RoutePush              = "/pubsub/push"
	RouteAuthenticatedPush = "/pubsub/authenticated-push"
)

// TokenVerifier verifica el bearer token de un push autenticado.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*pushauth.Claims, error)
}

// PushService procesa pushes que ya pasaron el gate del token compartido.
type PushService interface {
	// Push guarda el mensaje del envelope.
	Push(ctx context.Context, body []byte) (messages.Message, error)
	// AuthenticatedPush verifica el header Authorization y recién entonces guarda.
	AuthenticatedPush(ctx context.Context, authorization string, body []byte) (messages.Message, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Store    *messages.Store
	Verifier TokenVerifier
	Now      func() time.Time
}

type pushService struct {
	store    *messages.Store
	verifier TokenVerifier
	now      func() time.Time
}

// NewPushService crea el service.
func NewPushService(d Deps) PushService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &pushService{store: d.Store, verifier: d.Verifier, now: now}
}

const componentPush = "push"

func (s *pushService) Push(ctx context.Context, body []byte) (messages.Message, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentPush),
		logger.Op("Push"),
	)

	msg, err := s.decode(body, RoutePush)
	if err != nil {
		metrics.PushRequests.WithLabelValues(RoutePush, "invalid_body").Inc()
		log.Warn("push rejected", logger.Kind("invalid_body"), logger.Err(err))
		return messages.Message{}, err
	}

	n := s.store.Append(msg)
	metrics.PushRequests.WithLabelValues(RoutePush, "ok").Inc()
	log.Info("push stored",
		logger.MessageID(msg.MessageID),
		logger.Subscription(msg.Subscription),
		logger.Count(n),
	)
	return msg, nil
}

func (s *pushService) AuthenticatedPush(ctx context.Context, authorization string, body []byte) (messages.Message, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentPush),
		logger.Op("AuthenticatedPush"),
	)

	token, claims, err := s.verify(ctx, authorization)
	if err != nil {
		kind := pushauth.Kind(err)
		metrics.TokenVerifications.WithLabelValues(kind).Inc()
		metrics.PushRequests.WithLabelValues(RouteAuthenticatedPush, kind).Inc()
		// el motivo queda en logs, nunca en la respuesta
		log.Warn("push rejected", logger.Kind(kind), logger.Err(err))
		return messages.Message{}, err
	}
	metrics.TokenVerifications.WithLabelValues("ok").Inc()

	msg, err := s.decode(body, RouteAuthenticatedPush)
	if err != nil {
		metrics.PushRequests.WithLabelValues(RouteAuthenticatedPush, "invalid_body").Inc()
		log.Warn("push rejected", logger.Kind("invalid_body"), logger.Err(err))
		return messages.Message{}, err
	}

	s.store.AppendVerification(messages.Verification{Token: token, Claims: *claims})
	n := s.store.Append(msg)
	metrics.PushRequests.WithLabelValues(RouteAuthenticatedPush, "ok").Inc()
	log.Info("authenticated push stored",
		logger.MessageID(msg.MessageID),
		logger.Subscription(msg.Subscription),
		logger.Subject(claims.Subject),
		logger.String("email", util.MaskEmail(claims.Email)),
		logger.Count(n),
	)
	return msg, nil
}

func (s *pushService) verify(ctx context.Context, authorization string) (string, *pushauth.Claims, error) {
	token, err := pushauth.BearerToken(authorization)
	if err != nil {
		return "", nil, err
	}
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func (s *pushService) decode(body []byte, route string) (messages.Message, error) {
	var req dto.PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return messages.Message{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if req.Message.Data == nil {
		return messages.Message{}, fmt.Errorf("%w: message.data missing", ErrInvalidBody)
	}
	return messages.Message{
		Data:         strings.ToValidUTF8(string(decodeData(*req.Message.Data)), "\uFFFD"),
		Attributes:   req.Message.Attributes,
		MessageID:    req.Message.ID(),
		Subscription: req.Subscription,
		Route:        route,
		ReceivedAt:   s.now(),
	}, nil
}

var dataEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// decodeData nunca falla: si ninguna codificación estricta sirve, descarta los
// caracteres fuera del alfabeto (acepta std y url-safe), corta en el primer '='
// y decodifica lo que queda.
func decodeData(s string) []byte {
	for _, enc := range dataEncodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b
		}
	}

	var sb strings.Builder
	sb.Grow(len(s))
scan:
	for _, r := range s {
		switch {
		case r == '=':
			break scan
		case r == '-':
			sb.WriteByte('+')
		case r == '_':
			sb.WriteByte('/')
		case r == '+' || r == '/',
			r >= 'A' && r <= 'Z',
			r >= 'a' && r <= 'z',
			r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	clean := sb.String()
	// un único caracter suelto no alcanza para un byte
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}
	b, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return nil
	}
	return b
}
