package errors

import (
	"encoding/json"
	"net/http"
	"strings"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON {code, message, detail}.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// WriteText escribe sólo el Message en texto plano. Es lo que ven los push
// endpoints y el form (Pub/Sub sólo mira el status).
func WriteText(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(appErr.HTTPStatus)
	_, _ = w.Write([]byte(appErr.Message))
}

// Write negocia el formato con el Accept del request: JSON para clientes de API,
// texto plano para browsers y para todo lo demás.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	if wantsJSON(r) {
		WriteError(w, err)
		return
	}
	WriteText(w, err)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
