package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"sipeta/internal/model"
)

// SessionLocalKey is the Fiber locals key of the resolved *model.Session.
const SessionLocalKey = "session"

// SessionResolver validates a session token.
type SessionResolver interface {
	Session(ctx context.Context, token string) (*model.Session, error)
}

// SessionToken reads the token from the session cookie, falling back to an
// "Authorization: Bearer" header.
func SessionToken(c *fiber.Ctx, cookieName string) string {
	if v := c.Cookies(cookieName); v != "" {
		return v
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// LoadSession resolves the request token, when present and valid, into locals.
// It never rejects a request; the Require* gates do.
func LoadSession(r SessionResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r == nil {
			return c.Next()
		}
		token := SessionToken(c, cookieName)
		if token == "" {
			return c.Next()
		}
		if s, err := r.Session(c.UserContext(), token); err == nil && s != nil {
			s.Token = token
			c.Locals(SessionLocalKey, s)
		}
		return c.Next()
	}
}

// CurrentSession returns the session loaded by LoadSession.
func CurrentSession(c *fiber.Ctx) (*model.Session, bool) {
	s, ok := c.Locals(SessionLocalKey).(*model.Session)
	return s, ok && s != nil
}

// RequirePage redirects anonymous visitors to target.
func RequirePage(target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentSession(c); !ok {
			return c.Redirect(target, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RedirectIfSignedIn sends visitors that already hold a session to target.
func RedirectIfSignedIn(target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentSession(c); ok {
			return c.Redirect(target, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireSession answers anonymous API calls with deny.
func RequireSession(deny fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentSession(c); !ok {
			return deny(c)
		}
		return c.Next()
	}
}
