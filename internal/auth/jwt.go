// Package auth issues and verifies the HS256 bearer tokens that carry a
// user's identity across requests.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered claims plus the numeric user id. Subject holds
// the same id as a string.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer signs and parses tokens with a shared secret.
type Issuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewIssuer returns an Issuer for the given settings.
func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{Secret: []byte(secret), Issuer: issuer, TTL: ttl}
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue returns a signed token for userID and its expiry.
func (i *Issuer) Issue(userID uint) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Parse verifies the signature, expiry and issuer and returns the user id.
func (i *Issuer) Parse(tokenString string) (uint, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.Secret, nil
	}, opts...)
	if err != nil {
		return 0, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	if claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
