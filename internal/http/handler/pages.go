package handler

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"sipeta/internal/category"
	"sipeta/internal/http/middleware"
	"sipeta/internal/model"
	"sipeta/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title    string
	User     *model.Session
	Sections []category.Section
	Active   *category.Section
}

// pages renders the browser UI. Data is loaded client side from /api.
type pages struct {
	archive service.ArchiveService
}

func newPages(archive service.ArchiveService) *pages {
	return &pages{archive: archive}
}

func render(c *fiber.Ctx, name string, data pageData) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (p *pages) Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, "login.html", pageData{Title: "Masuk"})
	}
}

func (p *pages) Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, "register.html", pageData{Title: "Daftar"})
	}
}

func (p *pages) Dashboard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := middleware.CurrentSession(c)
		return render(c, "dashboard.html", pageData{
			Title:    "Dashboard",
			User:     user,
			Sections: p.archive.Sections(),
		})
	}
}

func (p *pages) Section() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("section")
		sections := p.archive.Sections()
		for i := range sections {
			if sections[i].Key == key {
				user, _ := middleware.CurrentSession(c)
				return render(c, "dashboard.html", pageData{
					Title:    sections[i].Title,
					User:     user,
					Sections: sections,
					Active:   &sections[i],
				})
			}
		}
		return fiber.ErrNotFound
	}
}
