package pushauth

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// Gate compara el ?token= del webhook contra el secreto configurado.
// Distingue la URL de nuestro propio webhook de cualquier caller de internet.
type Gate struct {
	expected string
}

// NewGate crea el gate. Un secreto vacío rechaza todo.
func NewGate(expected string) Gate {
	return Gate{expected: expected}
}

// Check retorna nil si provided coincide exactamente con el secreto.
func (g Gate) Check(provided string) error {
	if g.expected == "" {
		return fmt.Errorf("%w: verification token not configured", ErrGateRejected)
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(g.expected)) != 1 {
		return ErrGateRejected
	}
	return nil
}

// BearerToken extrae el token de un header Authorization "Bearer <token>".
func BearerToken(authorization string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingBearer
	}
	return token, nil
}
