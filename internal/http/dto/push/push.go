// Package push contiene los DTOs del webhook de Pub/Sub push.
package push

// PushRequest es el envelope que manda Pub/Sub en cada push.
//
//	{"message": {"data": "aGVsbG8=", "attributes": {...}, "messageId": "…", "publishTime": "…"},
//	 "subscription": "projects/p/subscriptions/s"}
type PushRequest struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

// PushMessage es el mensaje dentro del envelope. Pub/Sub manda el id en
// camelCase y en snake_case; aceptamos cualquiera de los dos.
type PushMessage struct {
	Data         *string           `json:"data"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	MessageID    string            `json:"messageId,omitempty"`
	MessageIDAlt string            `json:"message_id,omitempty"`
	PublishTime  string            `json:"publishTime,omitempty"`
}

// ID devuelve el message id que haya venido.
func (m PushMessage) ID() string {
	if m.MessageID != "" {
		return m.MessageID
	}
	return m.MessageIDAlt
}
