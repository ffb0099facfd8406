package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sipeta/internal/config"
	"sipeta/internal/http/middleware"
	"sipeta/internal/service"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	DB          *sql.DB
	Archive     service.ArchiveService
	Auth        service.AuthService
	Diagnostics service.DiagnosticsService
	Session     config.AuthConfig
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches pages, the JSON API and the ops endpoints to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	cookieName := d.Session.CookieName
	if cookieName == "" {
		cookieName = config.DefaultCookieName
	}
	d.Session.CookieName = cookieName

	var resolver middleware.SessionResolver
	if d.Auth != nil {
		resolver = d.Auth
	}
	app.Use(middleware.LoadSession(resolver, cookieName))

	// Ops
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Pages
	pages := newPages(d.Archive)
	app.Get("/", middleware.RedirectIfSignedIn("/dashboard"), pages.Login())
	app.Get("/register", middleware.RedirectIfSignedIn("/dashboard"), pages.Register())
	dash := app.Group("/dashboard", middleware.RequirePage("/"))
	dash.Get("/", pages.Dashboard())
	dash.Get("/:section", pages.Section())

	api := app.Group("/api")

	authAPI := api.Group("/auth")
	authAPI.Post("/login", Login(d.Auth, d.Session))
	authAPI.Post("/register", Register(d.Auth))
	authAPI.Post("/logout", Logout(d.Auth, d.Session))
	authAPI.Get("/session", CurrentSession())

	api.Get("/diagnostics", Diagnostics(d.Diagnostics))

	gate := middleware.RequireSession(unauthorized)
	api.Get("/navigation", gate, Navigation(d.Archive))
	api.Get("/sections/:section", gate, SectionBoard(d.Archive))

	uploads := api.Group("/uploads", gate)
	uploads.Post("/", UploadFile(d.Archive))
	uploads.Get("/:id/progress", UploadProgress(d.Archive))

	cats := api.Group("/categories", gate)
	cats.Get("/", ListCategories(d.Archive))
	cats.Get("/:category/records", ListRecords(d.Archive))
	cats.Post("/:category/records", SubmitRecord(d.Archive))
	cats.Get("/:category/records/:id", GetRecord(d.Archive))
	cats.Get("/:category/records/:id/file", DownloadRecord(d.Archive))
	cats.Get("/:category/records/:id/link", RecordLink(d.Archive))
	cats.Delete("/:category/records/:id", DeleteRecord(d.Archive))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if db == nil || db.PingContext(ctx) != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags ops
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
