package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalIdentity = "identity"
	LocalUserID   = "user_id"
)

// JWTProtected validates bearer tokens and stores the caller identity in the
// request locals. Unauthenticated callers get a 401 carrying the login URL so
// the client can redirect.
func JWTProtected(secret, loginURL string) fiber.Handler {
	deny := func(c *fiber.Ctx, message string) error {
		return utils.Fail(c, fiber.StatusUnauthorized, message, fiber.Map{"redirect": loginURL})
	}

	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return deny(c, err.Error())
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return deny(c, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return deny(c, "invalid token claims")
		}

		identity := models.Identity{
			ID:    extractUserIDFromClaims(claims),
			Name:  stringClaim(claims, "name"),
			Email: stringClaim(claims, "email"),
			Token: fiberutils.CopyString(tokenString),
		}
		if !identity.Present() {
			return deny(c, "token subject missing")
		}

		c.Locals(LocalIdentity, identity)
		c.Locals(LocalUserID, identity.ID)
		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by JWTProtected.
func IdentityFromContext(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(models.Identity)
	if !ok || !identity.Present() {
		return models.Identity{}, false
	}
	return identity, true
}

// bearerToken reads the Authorization header. The result aliases the request
// buffer and must be copied before it outlives the request. Browsers cannot
// set headers on websocket upgrades, so those may pass the token as access_token instead.
func bearerToken(c *fiber.Ctx) (string, error) {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				return token, nil
			}
		}
		return "", fmt.Errorf("authorization header missing")
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", fmt.Errorf("invalid authorization header")
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return "", fmt.Errorf("invalid token")
	}
	return tokenString, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized := normalizeUserID(value); normalized != "" {
				return normalized
			}
		}
	}
	return ""
}

func normalizeUserID(value interface{}) string {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return ""
		}
		return strconv.FormatInt(int64(v), 10)
	case string:
		return strings.TrimSpace(v)
	case int:
		if v < 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
