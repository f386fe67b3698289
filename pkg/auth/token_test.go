package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aymenjlassi/darna-backend/pkg/config"
)

func mintIdentityToken(t *testing.T, cfg config.JWTConfig, claims IdentityClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestParseIdentityToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "darna-idp"}
	phone := "22334455"
	now := time.Now().UTC()

	token := mintIdentityToken(t, cfg, IdentityClaims{
		DisplayName: "Amira Ben Salah",
		Phone:       &phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "idp|4821",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
		},
	})

	claims, err := ParseIdentityToken(cfg, token)
	if err != nil {
		t.Fatalf("parse identity token: %v", err)
	}
	if claims.Subject != "idp|4821" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.DisplayName != "Amira Ben Salah" {
		t.Fatalf("unexpected display name %s", claims.DisplayName)
	}
	if claims.Phone == nil || *claims.Phone != phone {
		t.Fatal("phone not preserved")
	}
}

func TestParseIdentityTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "darna-idp"}
	token := mintIdentityToken(t, cfg, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "idp|4821",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	if _, err := ParseIdentityToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseIdentityTokenExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "darna-idp"}
	token := mintIdentityToken(t, cfg, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "idp|4821",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := ParseIdentityToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseIdentityTokenWrongIssuer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "darna-idp"}
	token := mintIdentityToken(t, cfg, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "idp|4821",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	if _, err := ParseIdentityToken(cfg, token); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestParseIdentityTokenMissingSubject(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "darna-idp"}
	token := mintIdentityToken(t, cfg, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	if _, err := ParseIdentityToken(cfg, token); err == nil {
		t.Fatal("expected missing subject error")
	}
}
