// Package push contiene el service de los webhooks de Pub/Sub push.
package push

// Services agrupa los services del dominio push.
type Services struct {
	Push PushService
}

// NewServices crea el agregador de services push.
func NewServices(d Deps) Services {
	return Services{Push: NewPushService(d)}
}
