package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"treewatch/models"
	"treewatch/storage"
	"treewatch/utils"
)

// SessionCookie is the cookie holding the signed session token
const SessionCookie = "token"

const (
	localUser   = "user"
	localUserID = "userID"
	localRole   = "role"
)

// Session resolves the caller from a Bearer header or the session cookie.
// It never rejects a request: a missing, invalid or stale token just leaves
// the caller anonymous. Use RequireSession or RequireRole to gate routes.
func Session(store *storage.Storage) fiber.Handler {
	log := logrus.WithField("component", "session")

	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(SessionCookie)
		}
		if token == "" {
			return c.Next()
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			log.WithError(err).Debug("Ignoring invalid session token")
			return c.Next()
		}

		user, err := store.GetUser(c.UserContext(), claims.Subject)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.WithError(err).Warn("Failed to load session user")
			}
			return c.Next()
		}

		c.Locals(localUser, user)
		c.Locals(localUserID, user.ID)
		c.Locals(localRole, user.Role)
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// CurrentUser returns the session user or nil for anonymous callers
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// CurrentUserID returns the session user id or an empty string
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// CurrentRole returns the session role or an empty string
func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

// RequireSession rejects anonymous callers when enforce is set
func RequireSession(enforce bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enforce || CurrentUser(c) != nil {
			return c.Next()
		}
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", nil)
	}
}

// RequireRole rejects callers whose role is not listed when enforce is set.
// With enforce off every caller passes.
func RequireRole(enforce bool, roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if !enforce {
			return c.Next()
		}
		user := CurrentUser(c)
		if user == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", nil)
		}
		if _, ok := allowed[user.Role]; !ok {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Forbidden", nil)
		}
		return c.Next()
	}
}
