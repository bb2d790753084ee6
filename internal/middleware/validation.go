package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits.
const (
	MaxUserIDLen    = 128 // external account identities (emails, opaque IDs)
	MaxChannelIDLen = 64  // platform channel IDs ("UC" + 22 chars today)
	MaxStateLen     = 64  // OAuth state nonce (UUID)
	MaxCodeLen      = 512 // authorization codes
)

var (
	// userIDRe matches external account identities: email-like or opaque.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9@._+-]+$`)
	// channelIDRe matches platform channel IDs: alphanumeric, dash, underscore.
	channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUserID checks that a user identity is well-formed.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "userId is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 128 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidateChannelID checks that a channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 64 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// RequireUser extracts and validates the X-User-ID header, storing the
// identity in locals for handlers. The account system issuing these
// identities lives outside this service; the header is its boundary.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, errMsg := ValidateUserID(c.Get("X-User-ID"))
		if errMsg != "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", errMsg)
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// UserID returns the validated identity stored by RequireUser.
func UserID(c fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}
