package jwks

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrUnsupportedKey: kty/crv que no sabemos usar para verificar firmas.
var ErrUnsupportedKey = errors.New("jwks: unsupported key")

// JWK es la representación JSON (RFC 7517) de una clave pública RSA o EC.
type JWK struct {
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	N   string `json:"n,omitempty"`   // RSA modulus, base64url
	E   string `json:"e,omitempty"`   // RSA exponent, base64url
	Crv string `json:"crv,omitempty"` // EC curve
	X   string `json:"x,omitempty"`   // EC x, base64url
	Y   string `json:"y,omitempty"`   // EC y, base64url
}

// Document es el cuerpo de un endpoint JWKS.
type Document struct {
	Keys []JWK `json:"keys"`
}

// ParseDocument decodifica un JWKS y devuelve las claves utilizables por kid.
// Claves sin kid, de uso distinto a "sig" o de tipo no soportado se ignoran:
// un IdP puede publicar claves que no nos interesan sin invalidar el set.
func ParseDocument(b []byte) (map[string]SigningKey, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode jwks: %v", ErrFetch, err)
	}
	out := make(map[string]SigningKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.PublicKey()
		if err != nil {
			continue
		}
		out[k.Kid] = SigningKey{KeyID: k.Kid, Algorithm: k.Alg, Public: pub}
	}
	return out, nil
}

// PublicKey reconstruye la clave pública del JWK.
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch strings.ToUpper(k.Kty) {
	case "RSA":
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil || len(nb) == 0 {
			return nil, fmt.Errorf("%w: bad rsa modulus", ErrUnsupportedKey)
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil || len(eb) == 0 || len(eb) > 4 {
			return nil, fmt.Errorf("%w: bad rsa exponent", ErrUnsupportedKey)
		}
		// big-endian
		e := 0
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
		if e < 3 || e%2 == 0 {
			return nil, fmt.Errorf("%w: bad rsa exponent", ErrUnsupportedKey)
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
	case "EC":
		curve, err := curveFor(k.Crv)
		if err != nil {
			return nil, err
		}
		xb, errX := base64.RawURLEncoding.DecodeString(k.X)
		yb, errY := base64.RawURLEncoding.DecodeString(k.Y)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: bad ec coordinates", ErrUnsupportedKey)
		}
		x, y := new(big.Int).SetBytes(xb), new(big.Int).SetBytes(yb)
		if !curve.IsOnCurve(x, y) {
			return nil, fmt.Errorf("%w: point not on curve %s", ErrUnsupportedKey, k.Crv)
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("%w: kty %q", ErrUnsupportedKey, k.Kty)
	}
}

// NewJWK serializa una clave pública RSA/EC como JWK. Lo usan el CLI y los tests
// para publicar un JWKS propio.
func NewJWK(kid, alg string, pub crypto.PublicKey) (JWK, error) {
	switch p := pub.(type) {
	case *rsa.PublicKey:
		return JWK{
			Kty: "RSA",
			Alg: alg,
			Kid: kid,
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(p.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(p.E)).Bytes()),
		}, nil
	case *ecdsa.PublicKey:
		size := (p.Curve.Params().BitSize + 7) / 8
		return JWK{
			Kty: "EC",
			Alg: alg,
			Kid: kid,
			Use: "sig",
			Crv: p.Curve.Params().Name,
			X:   base64.RawURLEncoding.EncodeToString(p.X.FillBytes(make([]byte, size))),
			Y:   base64.RawURLEncoding.EncodeToString(p.Y.FillBytes(make([]byte, size))),
		}, nil
	default:
		return JWK{}, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}

func curveFor(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: crv %q", ErrUnsupportedKey, crv)
	}
}
