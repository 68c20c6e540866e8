package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de dominio (push, verificación, JWKS y bus). Viven en un paquete
// propio para que jwks, pushauth y bus no dependan del paquete HTTP.

var (
	PushRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_requests_total",
		Help: "Requests de push por ruta y resultado",
	}, []string{"route", "result"}) // result: ok, invalid_body o pushauth.Kind(err)

	TokenVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_token_verifications_total",
		Help: "Verificaciones de bearer token por resultado (ok o clase de error)",
	}, []string{"result"})

	JWKSRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jwks_refresh_total",
		Help: "Refrescos del key set por resultado",
	}, []string{"result"}) // ok|error

	JWKSKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jwks_keys",
		Help: "Cantidad de claves en el key set vigente",
	})

	BusPublishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_publish_total",
		Help: "Publicaciones al bus por driver y resultado",
	}, []string{"driver", "result"})
)

// Register registra las métricas de dominio en el registry dado (o el default si es nil).
// Ignora AlreadyRegisteredError para poder llamarse más de una vez (tests).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{PushRequests, TokenVerifications, JWKSRefreshes, JWKSKeys, BusPublishes} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
