package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"messaging_go/internal/domain"
)

// Claim names issued by the identity service. The user id travels as
// providerId; user_id is accepted for tokens minted by newer issuers.
const (
	claimUserID    = "providerId"
	claimUserIDAlt = "user_id"
)

var ErrMissingUserID = errors.New("token has no user id claim")

// TokenService wraps JWT validation. Production tokens come from the
// identity service; Issue backs the `token` command for local sessions.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a token carrying the claims the identity service emits.
func (t *TokenService) Issue(userID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       username,
		claimUserID: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token and returns its claims.
func (t *TokenService) Parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}

// Identify validates a token and extracts the caller identity from it.
func (t *TokenService) Identify(tokenStr string) (*domain.Identity, error) {
	claims, err := t.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	sub, _ := claims["sub"].(string)

	id, err := userIDFromClaims(claims)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: id, Username: sub}, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int64, error) {
	for _, key := range []string{claimUserID, claimUserIDAlt} {
		raw, ok := claims[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			if v > 0 {
				return int64(v), nil
			}
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				return id, nil
			}
		}
		return 0, fmt.Errorf("invalid %s claim: %v", key, raw)
	}
	return 0, ErrMissingUserID
}
