package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"sipeta/internal/auth"
	"sipeta/internal/config"
	"sipeta/internal/http/middleware"
	"sipeta/internal/service"
)

type loginRequest struct {
	// Identifier is an email or a 16 digit NIK.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func sessionCookie(cfg config.AuthConfig, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Login godoc
// @Summary Sign in with email or NIK
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} model.Session
// @Failure 401 {object} errorPayload
// @Router /api/auth/login [post]
func Login(svc service.AuthService, cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		s, err := svc.Login(c.UserContext(), req.Identifier, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Cookie(sessionCookie(cfg, s.Token, s.ExpiresAt))
		return c.JSON(s)
	}
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body auth.Registration true "registration form"
// @Success 201 {object} service.RegisterResult
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req auth.Registration
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		res, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// Logout godoc
// @Summary Revoke the current session
// @Tags auth
// @Success 204
// @Router /api/auth/logout [post]
func Logout(svc service.AuthService, cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := middleware.SessionToken(c, cfg.CookieName); token != "" {
			if err := svc.Logout(c.UserContext(), token); err != nil {
				return writeServiceError(c, err)
			}
		}
		c.Cookie(sessionCookie(cfg, "", time.Unix(0, 0)))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CurrentSession godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} model.Session
// @Failure 401 {object} errorPayload
// @Router /api/auth/session [get]
func CurrentSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := middleware.CurrentSession(c)
		if !ok {
			return unauthorized(c)
		}
		out := *s
		out.Token = ""
		return c.JSON(out)
	}
}
