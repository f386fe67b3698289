package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the typed JWT minted by the external identity provider.
// Subject carries the provider-side identity id; the profile row is resolved
// from it on every request.
type IdentityClaims struct {
	DisplayName string  `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}
