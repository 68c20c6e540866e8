// Package index contiene el view model de la página principal.
package index

import "time"

// Page es lo que renderiza GET /.
type Page struct {
	Topic    string
	Messages []Message
	Tokens   []string
	Claims   []string // JSON indentado de cada set de claims verificado
}

type Message struct {
	Data       string
	MessageID  string
	Route      string
	ReceivedAt time.Time
}
