package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Handshake rejection reasons. All of them end in 401 before upgrade.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownIdentity   = errors.New("unknown identity")
)

// TokenVerifier checks HMAC-signed JWTs issued by the auth service.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify returns the user id carried by the token. The id is read from the
// "user_id" claim, falling back to "_id".
func (v *TokenVerifier) Verify(tokenStr string) (uuid.UUID, error) {
	if tokenStr == "" {
		return uuid.Nil, ErrMissingCredential
	}
	if len(v.secret) == 0 {
		return uuid.Nil, fmt.Errorf("%w: verifier has no secret", ErrInvalidCredential)
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: invalid claims", ErrInvalidCredential)
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		userIDStr, ok = claims["_id"].(string)
	}
	if !ok || userIDStr == "" {
		return uuid.Nil, fmt.Errorf("%w: token missing user_id", ErrInvalidCredential)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user ID format in token", ErrInvalidCredential)
	}
	return userID, nil
}

// Issue signs a token for userID. Used by the terminal client and tests.
func (v *TokenVerifier) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ExtractCredential returns the raw token from, in order, the named cookie,
// the Authorization bearer header and the "token" query parameter.
func ExtractCredential(c *fiber.Ctx, cookieName string) string {
	if token := c.Cookies(cookieName); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}

	return c.Query("token")
}
