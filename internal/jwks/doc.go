// Package jwks mantiene el conjunto de claves públicas de firma (JWKS) del
// identity provider que firma los tokens de push autenticado.
//
// El Provider guarda un snapshot inmutable del key set detrás de un
// atomic.Pointer: las lecturas no toman locks y un refresh instala el set
// nuevo completo. Los refrescos concurrentes se coalescen con singleflight y
// un refresh fallido deja el set anterior intacto (stale-but-available).
//
// El acceso a red queda detrás de la interfaz Fetcher:
//   - HTTPFetcher: JWKS URL directa o discovery OIDC (jwks_uri), con ETag y
//     Cache-Control max-age como hint de expiración.
//   - StaticFetcher: set fijo para tests o desarrollo offline.
package jwks
