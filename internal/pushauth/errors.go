package pushauth

import "errors"

// Clases de error de la verificación de push. Los callers HTTP las colapsan en
// una única respuesta 400; la clase sólo va a logs y métricas.
var (
	ErrGateRejected        = errors.New("pushauth: verification token rejected")
	ErrMissingBearer       = errors.New("pushauth: missing bearer token")
	ErrMalformedToken      = errors.New("pushauth: malformed token")
	ErrUnknownSigningKey   = errors.New("pushauth: unknown signing key")
	ErrInvalidSignature    = errors.New("pushauth: invalid signature")
	ErrTokenExpired        = errors.New("pushauth: token expired")
	ErrTokenNotYetValid    = errors.New("pushauth: token not yet valid")
	ErrMissingClaim        = errors.New("pushauth: missing required claim")
	ErrAudienceMismatch    = errors.New("pushauth: audience mismatch")
	ErrIssuerMismatch      = errors.New("pushauth: issuer mismatch")
	ErrUnexpectedPrincipal = errors.New("pushauth: unexpected principal")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrGateRejected, "gate_rejected"},
	{ErrMissingBearer, "missing_bearer"},
	{ErrMalformedToken, "malformed_token"},
	{ErrUnknownSigningKey, "unknown_signing_key"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrTokenExpired, "token_expired"},
	{ErrTokenNotYetValid, "token_not_yet_valid"},
	{ErrMissingClaim, "missing_claim"},
	{ErrAudienceMismatch, "audience_mismatch"},
	{ErrIssuerMismatch, "issuer_mismatch"},
	{ErrUnexpectedPrincipal, "unexpected_principal"},
}

// Kind devuelve una etiqueta estable para err: "ok" si es nil, "unknown" si
// no es un error de esta familia.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
