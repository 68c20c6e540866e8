package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hellopush/internal/http/errors"
	"github.com/dropDatabas3/hellopush/internal/metrics"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
	"github.com/dropDatabas3/hellopush/internal/pushauth"
)

// WithVerificationToken exige ?token=<secreto compartido> antes de leer el body.
// Si no coincide responde 400 sin mirar nada más.
func WithVerificationToken(gate pushauth.Gate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gate.Check(r.URL.Query().Get("token")); err != nil {
				logger.From(r.Context()).Warn("push rejected",
					logger.Layer("middleware"),
					logger.Kind(pushauth.Kind(err)),
				)
				metrics.PushRequests.WithLabelValues(r.URL.Path, pushauth.Kind(err)).Inc()
				errors.WriteText(w, errors.ErrGateRejected.WithCause(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
