package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UID string `json:"_id"`
	jwt.RegisteredClaims
}

// JWTer issues and verifies HS256 credentials bound to one user id.
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Issue returns the signed credential and its expiry.
func (j *JWTer) Issue(uid string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.TTL)
	claims := Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithIssuer(j.Issuer),
		jwt.WithLeeway(j.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.UID != "" {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
