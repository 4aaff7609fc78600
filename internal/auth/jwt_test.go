package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "0123456789abcdef-test"

func TestIssueAndParse_RoundTrip(t *testing.T) {
	iss := NewIssuer(secret, "aura-backend", time.Hour)
	tok, exp, err := iss.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 || time.Until(exp) > time.Hour+time.Second {
		t.Fatalf("unexpected expiry: %v", exp)
	}
	id, err := iss.Parse(tok)
	if err != nil || id != 42 {
		t.Fatalf("Parse = (%d, %v); want 42", id, err)
	}
}

func TestParse_Rejections(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	iss := &Issuer{Secret: []byte(secret), Issuer: "aura-backend", TTL: time.Minute, Now: func() time.Time { return base }}
	good, _, err := iss.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("expired", func(t *testing.T) {
		later := &Issuer{Secret: iss.Secret, Issuer: iss.Issuer, Now: func() time.Time { return base.Add(2 * time.Minute) }}
		if _, err := later.Parse(good); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := &Issuer{Secret: []byte("another-secret-value"), Issuer: iss.Issuer, Now: iss.Now}
		if _, err := other.Parse(good); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := &Issuer{Secret: iss.Secret, Issuer: "someone-else", Now: iss.Now}
		if _, err := other.Parse(good); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    "aura-backend",
			ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour)),
		}}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign none: %v", err)
		}
		if _, err := iss.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("subject mismatch", func(t *testing.T) {
		claims := &Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8",
			Issuer:    "aura-backend",
			ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour)),
		}}
		raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.Secret)
		if _, err := iss.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := iss.Parse("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
