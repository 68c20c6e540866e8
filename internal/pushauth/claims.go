package pushauth

import jwtv5 "github.com/golang-jwt/jwt/v5"

// Claims son las claims de un bearer token ya verificado. Sólo Verifier.Verify
// las devuelve; nunca se construyen a partir de input sin verificar.
type Claims struct {
	jwtv5.RegisteredClaims
	Email           string `json:"email,omitempty"`
	EmailVerified   bool   `json:"email_verified,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
}
