package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerifyPair(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	access, refresh, err := svc.SignPair(42)
	if err != nil {
		t.Fatalf("sign pair: %v", err)
	}

	claims, err := svc.VerifyToken(access, TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.VerifyToken(refresh, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
	if _, err := svc.VerifyToken(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	other := NewJWTService("other-secret", time.Minute, time.Hour)
	if _, err := other.VerifyToken(access, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature must be rejected, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, time.Hour)
	access, _, err := svc.SignPair(1)
	if err != nil {
		t.Fatalf("sign pair: %v", err)
	}
	if _, err := svc.VerifyToken(access, TokenTypeAccess); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	access, _, err := svc.SignPair(7)
	if err != nil {
		t.Fatalf("sign pair: %v", err)
	}

	claims, err := Inspect(access)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.UserID != 7 || claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if left := claims.ExpiresIn(time.Now()); left <= 0 || left > time.Hour {
		t.Fatalf("unexpected expiry %s", left)
	}

	if _, err := Inspect("A"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("opaque token must fail inspection, got %v", err)
	}
}

func TestGenerateOneTimeToken(t *testing.T) {
	a, err := GenerateOneTimeToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateOneTimeToken()
	if a == b || len(a) != 43 {
		t.Fatalf("tokens must be random 43-char strings, got %q %q", a, b)
	}
}
