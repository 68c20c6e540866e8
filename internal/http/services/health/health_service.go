// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dropDatabas3/hellopush/internal/bus"
	dto "github.com/dropDatabas3/hellopush/internal/http/dto/health"
	"github.com/dropDatabas3/hellopush/internal/jwks"
	"github.com/dropDatabas3/hellopush/internal/messages"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// KeySnapshot expone el key set actual sin disparar fetches.
type KeySnapshot interface {
	Snapshot() *jwks.KeySet
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Keys      KeySnapshot
	Publisher bus.Publisher
	Store     *messages.Store
	Now       func() time.Time
}

type healthService struct {
	deps Deps
}

func NewHealthService(deps Deps) HealthService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &healthService{deps: deps}
}

// Services agrupa los services del dominio health.
type Services struct {
	Health HealthService
}

func NewServices(d Deps) Services {
	return Services{Health: NewHealthService(d)}
}

const componentHealth = "health"

// Check nunca devuelve "unavailable": el key set es lazy y el bus sólo se usa
// desde el form, así que ningún componente impide recibir pushes.
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	now := s.deps.Now()
	response := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus),
		Version:    os.Getenv("SERVICE_VERSION"),
		Timestamp:  now.UTC(),
	}

	// 1) Key set
	switch set := s.snapshot(); {
	case set == nil:
		response.Components["jwks"] = dto.HealthStatus{Status: "pending", Message: "not fetched yet"}
	case set.Expired(now):
		response.Components["jwks"] = dto.HealthStatus{
			Status:  "stale",
			Message: fmt.Sprintf("expired at %s", set.ExpiresAt.UTC().Format(time.RFC3339)),
		}
		response.KeyIDs = set.KeyIDs()
		response.Status = "degraded"
	default:
		response.Components["jwks"] = dto.HealthStatus{Status: "ok", Message: fmt.Sprintf("%d keys", set.Len())}
		response.KeyIDs = set.KeyIDs()
	}

	// 2) Bus
	if s.deps.Publisher == nil {
		response.Components["bus"] = dto.HealthStatus{Status: "disabled"}
	} else if supported, err := bus.Ping(ctx, s.deps.Publisher); !supported {
		response.Components["bus"] = dto.HealthStatus{Status: "ok", Message: "no ping for driver"}
	} else if err != nil {
		response.Components["bus"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		response.Status = "degraded"
		log.Error("bus unavailable", logger.Err(err))
	} else {
		response.Components["bus"] = dto.HealthStatus{Status: "ok"}
	}

	if s.deps.Store != nil {
		response.Messages = s.deps.Store.Len()
	}
	return response
}

func (s *healthService) snapshot() *jwks.KeySet {
	if s.deps.Keys == nil {
		return nil
	}
	return s.deps.Keys.Snapshot()
}
