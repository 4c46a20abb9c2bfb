package serverutils

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_Verify(t *testing.T) {
	v := NewTokenVerifier("secret")
	userID := uuid.New()

	token, err := v.Issue(userID, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenVerifier_LegacyIDClaim(t *testing.T) {
	userID := uuid.New()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := NewTokenVerifier("secret").Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenVerifier_Rejections(t *testing.T) {
	v := NewTokenVerifier("secret")

	_, err := v.Verify("")
	assert.True(t, errors.Is(err, ErrMissingCredential))

	_, err = v.Verify("not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidCredential))

	wrongKey, _ := NewTokenVerifier("other").Issue(uuid.New(), time.Hour)
	_, err = v.Verify(wrongKey)
	assert.True(t, errors.Is(err, ErrInvalidCredential))

	expired, _ := v.Issue(uuid.New(), -time.Minute)
	_, err = v.Verify(expired)
	assert.True(t, errors.Is(err, ErrInvalidCredential))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	_, err = v.Verify(noSubject)
	assert.True(t, errors.Is(err, ErrInvalidCredential))

	badID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "12345",
	}).SignedString([]byte("secret"))
	_, err = v.Verify(badID)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestExtractCredential_Order(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ExtractCredential(c, "token"))
	})

	cases := []struct {
		name   string
		target string
		header string
		cookie string
		want   string
	}{
		{name: "cookie wins", target: "/?token=q", header: "Bearer h", cookie: "c", want: "c"},
		{name: "bearer before query", target: "/?token=q", header: "Bearer h", want: "h"},
		{name: "query fallback", target: "/?token=q", want: "q"},
		{name: "nothing", target: "/", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.Header.Set("Cookie", "token="+tc.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tc.want, string(body))
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	v := NewTokenVerifier("secret")
	userID := uuid.New()

	app := fiber.New()
	app.Get("/me", JwtMiddleware(v, "token"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(uuid.UUID).String())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, _ := v.Issue(userID, time.Hour)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
