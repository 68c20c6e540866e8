package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/health"
	indexctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/index"
	pushctrl "github.com/dropDatabas3/hellopush/internal/http/controllers/push"
	mw "github.com/dropDatabas3/hellopush/internal/http/middlewares"
	pushsvc "github.com/dropDatabas3/hellopush/internal/http/services/push"
	"github.com/dropDatabas3/hellopush/internal/pushauth"
)

// RegisterHealthRoutes registra /healthz y /readyz (públicos).
func RegisterHealthRoutes(r chi.Router, c *healthctrl.Controllers) {
	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
}

// RegisterIndexRoutes registra la página índice y el form de publicación.
func RegisterIndexRoutes(r chi.Router, c *indexctrl.Controllers) {
	r.Get("/", c.Index.Get)
	r.Post("/", c.Index.Publish)
}

// RegisterPushRoutes registra los dos webhooks; ambos pasan primero por el gate.
func RegisterPushRoutes(r chi.Router, c *pushctrl.Controllers, gate pushauth.Gate) {
	chain := pushChain(gate)
	r.Method(http.MethodPost, pushsvc.RoutePush, mw.ChainFunc(c.Push.Push, chain...))
	r.Method(http.MethodPost, pushsvc.RouteAuthenticatedPush, mw.ChainFunc(c.Push.AuthenticatedPush, chain...))
}

// pushChain: el gate corre antes de leer el body.
func pushChain(gate pushauth.Gate) []mw.Middleware {
	return []mw.Middleware{mw.WithVerificationToken(gate)}
}
