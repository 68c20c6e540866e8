package pushauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dropDatabas3/hellopush/internal/jwks"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultClockSkew es la tolerancia de reloj para exp/iat/nbf.
const DefaultClockSkew = 30 * time.Second

// DefaultAlgorithms: sólo algoritmos asimétricos. HS* y "none" quedan afuera
// (algorithm confusion con la clave pública como secreto HMAC).
var DefaultAlgorithms = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// DefaultIssuers son los issuers de los ID tokens de Google.
var DefaultIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// KeySource es lo que el Verifier necesita del key set provider.
type KeySource interface {
	Key(ctx context.Context, kid string) (jwks.SigningKey, error)
	Refresh(ctx context.Context) error
}

// Config configura el Verifier.
type Config struct {
	// Audience esperado (exacto). Requerido.
	Audience string
	// Issuers aceptados. Vacío = DefaultIssuers.
	Issuers []string
	// ServiceAccountEmail, si no es vacío, exige email == este valor y email_verified.
	ServiceAccountEmail string
	ClockSkew           time.Duration
	// Algorithms permitidos. Vacío = DefaultAlgorithms.
	Algorithms []string
	Now        func() time.Time
}

// Verifier valida bearer tokens de push autenticado.
type Verifier struct {
	keys   KeySource
	cfg    Config
	parser *jwtv5.Parser
}

// NewVerifier crea un Verifier sobre keys.
func NewVerifier(keys KeySource, cfg Config) *Verifier {
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = DefaultIssuers
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = DefaultAlgorithms
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = DefaultClockSkew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{
		keys: keys,
		cfg:  cfg,
		// Las claims las valida validateClaims para conservar la clase de error.
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods(cfg.Algorithms),
			jwtv5.WithoutClaimsValidation(),
		),
	}
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
}

// Verify valida firma y claims de raw y devuelve las claims verificadas.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(v.cfg.Algorithms, h.Alg) {
		return nil, fmt.Errorf("%w: alg %q not allowed", ErrInvalidSignature, h.Alg)
	}

	key, err := v.lookup(ctx, h.Kid)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = v.parser.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		if key.Algorithm != "" && key.Algorithm != t.Method.Alg() {
			return nil, fmt.Errorf("key %s is bound to %s", key.KeyID, key.Algorithm)
		}
		return key.Public, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// lookup busca el kid y, si no está, refresca el key set una única vez
// (tolerancia a rotación de claves del IdP). Nunca hay más de un fetch por llamada.
func (v *Verifier) lookup(ctx context.Context, kid string) (jwks.SigningKey, error) {
	key, err := v.keys.Key(ctx, kid)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, jwks.ErrKeyNotFound) {
		return jwks.SigningKey{}, fmt.Errorf("%w: %v", ErrUnknownSigningKey, err)
	}
	// Key ya refrescó por expiración: no hay segundo fetch en la misma verificación
	if errors.Is(err, jwks.ErrRefreshAttempted) {
		return jwks.SigningKey{}, fmt.Errorf("%w: %w", ErrUnknownSigningKey, err)
	}

	refreshErr := v.keys.Refresh(ctx)
	if refreshErr != nil {
		logger.From(ctx).Warn("jwks refresh after kid miss failed",
			logger.Component("pushauth"),
			logger.KeyID(kid),
			logger.Err(refreshErr),
		)
	}
	key, err = v.keys.Key(ctx, kid)
	if err != nil {
		return jwks.SigningKey{}, errors.Join(fmt.Errorf("%w: kid=%q", ErrUnknownSigningKey, kid), refreshErr)
	}
	return key, nil
}

func (v *Verifier) validateClaims(c *Claims) error {
	now := v.cfg.Now()
	skew := v.cfg.ClockSkew

	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: exp", ErrMissingClaim)
	}
	if !now.Before(c.ExpiresAt.Add(skew)) {
		return fmt.Errorf("%w: exp=%s", ErrTokenExpired, c.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if c.IssuedAt == nil {
		return fmt.Errorf("%w: iat", ErrMissingClaim)
	}
	if c.IssuedAt.After(now.Add(skew)) {
		return fmt.Errorf("%w: iat=%s", ErrTokenNotYetValid, c.IssuedAt.UTC().Format(time.RFC3339))
	}
	if c.NotBefore != nil && c.NotBefore.After(now.Add(skew)) {
		return fmt.Errorf("%w: nbf=%s", ErrTokenNotYetValid, c.NotBefore.UTC().Format(time.RFC3339))
	}

	// aud exacto: un único valor igual al configurado.
	if len(c.Audience) != 1 || c.Audience[0] != v.cfg.Audience {
		return ErrAudienceMismatch
	}
	if !slices.Contains(v.cfg.Issuers, c.Issuer) {
		return fmt.Errorf("%w: %q", ErrIssuerMismatch, c.Issuer)
	}
	if v.cfg.ServiceAccountEmail != "" {
		if !strings.EqualFold(c.Email, v.cfg.ServiceAccountEmail) || !c.EmailVerified {
			return ErrUnexpectedPrincipal
		}
	}
	return nil
}

// parseHeader valida el formato compacto (tres segmentos) y decodifica el header.
func parseHeader(raw string) (tokenHeader, error) {
	var h tokenHeader
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return h, fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return h, fmt.Errorf("%w: header encoding", ErrMalformedToken)
	}
	if err := json.Unmarshal(hb, &h); err != nil {
		return h, fmt.Errorf("%w: header json", ErrMalformedToken)
	}
	if h.Alg == "" {
		return h, fmt.Errorf("%w: missing alg", ErrMalformedToken)
	}
	if h.Kid == "" {
		return h, fmt.Errorf("%w: missing kid", ErrMalformedToken)
	}
	return h, nil
}
