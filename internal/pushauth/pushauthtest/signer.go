// Package pushauthtest arma claves y tokens firmados para tests de push
// autenticado, sin tocar la red.
package pushauthtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/hellopush/internal/jwks"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Signer firma tokens con una clave privada propia identificada por KID.
type Signer struct {
	KID    string
	Method jwtv5.SigningMethod
	priv   crypto.Signer
}

// NewRSASigner genera una clave RSA 2048 (RS256).
func NewRSASigner(t testing.TB, kid string) *Signer {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa keygen: %v", err)
	}
	return &Signer{KID: kid, Method: jwtv5.SigningMethodRS256, priv: priv}
}

// NewECSigner genera una clave P-256 (ES256).
func NewECSigner(t testing.TB, kid string) *Signer {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa keygen: %v", err)
	}
	return &Signer{KID: kid, Method: jwtv5.SigningMethodES256, priv: priv}
}

// PublicKey retorna la clave pública.
func (s *Signer) PublicKey() crypto.PublicKey { return s.priv.Public() }

// SigningKey es la entrada que el key set publicaría para este signer.
func (s *Signer) SigningKey() jwks.SigningKey {
	return jwks.SigningKey{KeyID: s.KID, Algorithm: s.Method.Alg(), Public: s.priv.Public()}
}

// JWK serializa la clave pública.
func (s *Signer) JWK(t testing.TB) jwks.JWK {
	t.Helper()
	k, err := jwks.NewJWK(s.KID, s.Method.Alg(), s.priv.Public())
	if err != nil {
		t.Fatalf("jwk: %v", err)
	}
	return k
}

// Sign firma claims con el kid del signer.
func (s *Signer) Sign(t testing.TB, claims jwtv5.Claims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(s.Method, claims)
	tok.Header["kid"] = s.KID
	signed, err := tok.SignedString(s.priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

// PushClaims son claims como las que manda Pub/Sub en push autenticado,
// válidas en now por una hora.
func PushClaims(aud string, now time.Time) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"aud":            aud,
		"azp":            "1234567890",
		"email":          "pubsub@example.iam.gserviceaccount.com",
		"email_verified": true,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"iss":            "https://accounts.google.com",
		"sub":            "1234567890",
	}
}

// ServeJWKS levanta un httptest.Server que publica el JWKS de signers.
func ServeJWKS(t testing.TB, signers ...*Signer) *httptest.Server {
	t.Helper()
	doc := jwks.Document{}
	for _, s := range signers {
		doc.Keys = append(doc.Keys, s.JWK(t))
	}
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
