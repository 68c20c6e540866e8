// Package router arma el chi.Router con todas las rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	healthctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/health"
	indexctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/index"
	pushctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/push"
	httperrors "github.com/dropDatabas3/hellopush/internal/http/errors"
	mw "github.com/dropDatabas3/hellopush/internal/http/middlewares"
	"github.com/dropDatabas3/hellopush/internal/pushauth"
)

// Deps contiene los controllers y la infra que necesitan las rutas.
type Deps struct {
	Index  *indexctrl.Controllers
	Push   *pushctrl.Controllers
	Health *healthctrl.Controllers

	Gate pushauth.Gate

	// MetricsHandler se monta en MetricsPath si no es nil.
	MetricsHandler http.Handler
	MetricsPath    string
}

// New crea el router.
//
//	GET  /healthz, /readyz               sin logging
//	GET  /, POST /                       página índice y publicación
//	POST /pubsub/push                    gate
//	POST /pubsub/authenticated-push      gate + bearer token
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Write(w, r, httperrors.ErrNotFound.WithDetail(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Write(w, r, httperrors.ErrMethodNotAllowed.WithDetail(r.Method+" "+r.URL.Path))
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, deps.Health)
	}
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging())
		r.Use(mw.WithMetrics())

		if deps.Index != nil {
			RegisterIndexRoutes(r, deps.Index)
		}
		if deps.Push != nil {
			RegisterPushRoutes(r, deps.Push, deps.Gate)
		}
	})
	return r
}
