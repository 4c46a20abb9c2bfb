package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

// JwtMiddleware guards REST routes with the same credential rules as the
// socket handshake and stores the user id in Locals("user_id").
func JwtMiddleware(verifier *TokenVerifier, cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, err := verifier.Verify(ExtractCredential(ctx, cookieName))
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}
