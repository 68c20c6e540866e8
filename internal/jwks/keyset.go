package jwks

import (
	"crypto"
	"errors"
	"sort"
	"time"
)

var (
	// ErrKeyNotFound: el kid no está en el set vigente.
	ErrKeyNotFound = errors.New("jwks: key not found")
	// ErrFetch: no se pudo obtener/parsear el key set remoto.
	ErrFetch = errors.New("jwks: fetch failed")
	// ErrRefreshAttempted acompaña a ErrKeyNotFound cuando Key ya intentó un
	// refresh en la misma llamada; el caller no debe reintentar.
	ErrRefreshAttempted = errors.New("jwks: refresh already attempted")
)

// SigningKey es una clave pública de verificación identificada por kid.
type SigningKey struct {
	KeyID string
	// Algorithm es el "alg" declarado en el JWK; vacío si el JWK no lo declara.
	Algorithm string
	Public    crypto.PublicKey
}

// KeySet es un snapshot inmutable. Nunca se muta después de instalarse en el Provider.
type KeySet struct {
	Keys      map[string]SigningKey
	FetchedAt time.Time
	// ExpiresAt viene del Cache-Control de la respuesta. Zero = sin hint.
	ExpiresAt time.Time
	ETag      string
}

// Lookup es nil-safe: un set nil no tiene claves.
func (s *KeySet) Lookup(kid string) (SigningKey, bool) {
	if s == nil {
		return SigningKey{}, false
	}
	k, ok := s.Keys[kid]
	return k, ok
}

// Len retorna la cantidad de claves.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keys)
}

// Expired indica si el hint de cache venció. Sin hint nunca expira.
func (s *KeySet) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// KeyIDs retorna los kids ordenados.
func (s *KeySet) KeyIDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Keys))
	for kid := range s.Keys {
		out = append(out, kid)
	}
	sort.Strings(out)
	return out
}
