// Package token issues and verifies the signed bearer tokens handed to
// students at login. Tokens are stateless: validity is signature + expiry.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
)

const issuer = "questionnaire_backend"

// Identity is what a token proves about its bearer.
type Identity struct {
	Carnet    string `json:"carnet"`
	StudentID string `json:"studentId"`
	Role      string `json:"role"`
}

type Claims struct {
	Carnet    string `json:"carnet"`
	StudentID string `json:"student_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{Carnet: c.Carnet, StudentID: c.StudentID, Role: c.Role}
}

type Service struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

func (s *Service) Issue(id Identity) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Carnet:    id.Carnet,
		StudentID: id.StudentID,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Carnet,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", apperr.Internal("failed to sign token", err)
	}
	return signed, nil
}

// Verify returns the claims of a valid token, or an auth error for bad
// signatures, malformed or expired tokens.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Auth("token expired", err)
		}
		return nil, apperr.Auth("invalid token", err)
	}
	if !tok.Valid || claims.Carnet == "" {
		return nil, apperr.Auth("invalid token", nil)
	}
	return claims, nil
}
