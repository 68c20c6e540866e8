// Package util junta helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio: "p…@e….com".
// Es lo que se loguea del principal de un push autenticado.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		return MaskSecret(s)
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskSecret oculta un secreto para print-config: "" -> "NOT_SET", cortos -> "***",
// el resto conserva primer y último caracter.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "NOT_SET"
	case len(s) <= 6:
		return "***"
	default:
		return s[:1] + "***" + s[len(s)-1:]
	}
}
