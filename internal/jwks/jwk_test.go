package jwks

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"
)

func TestJWK_ECRoundTrip(t *testing.T) {
	for _, curve := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		jwk, err := NewJWK("ec", "", &priv.PublicKey)
		if err != nil {
			t.Fatalf("%s: %v", curve.Params().Name, err)
		}
		pub, err := jwk.PublicKey()
		if err != nil {
			t.Fatalf("%s: %v", curve.Params().Name, err)
		}
		if !priv.PublicKey.Equal(pub) {
			t.Fatalf("%s: key mismatch", curve.Params().Name)
		}
	}
}

func TestJWK_RejectsUnsupported(t *testing.T) {
	cases := []JWK{
		{Kty: "oct", Kid: "a"},
		{Kty: "OKP", Kid: "b", Crv: "Ed25519", X: "AA"},
		{Kty: "EC", Kid: "c", Crv: "P-192"},
		{Kty: "EC", Kid: "d", Crv: "P-256", X: "AQ", Y: "AQ"}, // not on curve
		{Kty: "RSA", Kid: "e", N: "", E: "AQAB"},
		{Kty: "RSA", Kid: "f", N: "AQAB", E: ""},
		{Kty: "RSA", Kid: "g", N: "AQAB", E: "AA"},
	}
	for _, k := range cases {
		if _, err := k.PublicKey(); !errors.Is(err, ErrUnsupportedKey) {
			t.Fatalf("kid %s: expected ErrUnsupportedKey, got %v", k.Kid, err)
		}
	}
}

func TestParseDocument_SkipsRSAKeyWithoutExponent(t *testing.T) {
	doc := []byte(`{"keys":[{"kty":"RSA","kid":"no-e","use":"sig","n":"AQAB"}]}`)
	keys, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := keys["no-e"]; ok {
		t.Fatal("rsa key without exponent must be skipped")
	}
}

func TestParseDocument_SkipsNonSigningKeys(t *testing.T) {
	priv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	sig, _ := NewJWK("sig", "ES256", &priv.PublicKey)
	enc := sig
	enc.Kid, enc.Use = "enc", "enc"
	noKid := sig
	noKid.Kid = ""
	b, _ := json.Marshal(Document{Keys: []JWK{sig, enc, noKid}})

	keys, err := ParseDocument(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys["sig"].Algorithm != "ES256" {
		t.Fatalf("unexpected keys: %+v", keys)
	}

	if _, err := ParseDocument([]byte("{not json")); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch on bad json, got %v", err)
	}
}
