package handler

import (
	"mime"
	"time"

	"github.com/gofiber/fiber/v2"

	"sipeta/internal/http/middleware"
	"sipeta/internal/model"
	"sipeta/internal/service"
)

type entryList struct {
	Items []model.Entry `json:"items"`
	Total int           `json:"total"`
}

type linkResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// Navigation godoc
// @Summary Sidebar sections
// @Tags archive
// @Produce json
// @Success 200 {array} category.Section
// @Router /api/navigation [get]
func Navigation(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Sections())
	}
}

// ListCategories godoc
// @Summary Category schemas
// @Tags archive
// @Produce json
// @Success 200 {array} category.Category
// @Router /api/categories [get]
func ListCategories(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Categories())
	}
}

// ListRecords godoc
// @Summary List the records of a category
// @Tags archive
// @Produce json
// @Param category path string true "category key"
// @Param q query string false "search text"
// @Success 200 {object} entryList
// @Failure 404 {object} errorPayload
// @Router /api/categories/{category}/records [get]
func ListRecords(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), c.Params("category"), c.Query("q"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(entryList{Items: items, Total: len(items)})
	}
}

// SubmitRecord godoc
// @Summary Submit a category form
// @Description Fields are keyed by column name; file_url and file_name come from a prior upload.
// @Tags archive
// @Accept json
// @Produce json
// @Param category path string true "category key"
// @Param body body service.SubmitInput true "form"
// @Success 201 {object} model.Entry
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/categories/{category}/records [post]
func SubmitRecord(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		in.Category = c.Params("category")
		if s, ok := middleware.CurrentSession(c); ok {
			in.CreatedBy = s.UserID
		}

		entry, err := svc.Submit(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GetRecord godoc
// @Summary Record detail
// @Tags archive
// @Produce json
// @Param category path string true "category key"
// @Param id path string true "record id"
// @Success 200 {object} model.Entry
// @Failure 404 {object} errorPayload
// @Router /api/categories/{category}/records/{id} [get]
func GetRecord(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := svc.Get(c.UserContext(), c.Params("category"), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(e)
	}
}

// DownloadRecord godoc
// @Summary Download the archived file
// @Tags archive
// @Produce octet-stream
// @Param category path string true "category key"
// @Param id path string true "record id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/categories/{category}/records/{id}/file [get]
func DownloadRecord(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Open(c.UserContext(), c.Params("category"), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		ct := d.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
		size := int(d.Size)
		if size <= 0 {
			size = -1
		}
		return c.SendStream(d.Body, size)
	}
}

// RecordLink godoc
// @Summary Time limited download link
// @Tags archive
// @Produce json
// @Param category path string true "category key"
// @Param id path string true "record id"
// @Param expires query string false "Go duration, default 15m"
// @Success 200 {object} linkResponse
// @Router /api/categories/{category}/records/{id}/link [get]
func RecordLink(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		expiry := 15 * time.Minute
		if v := c.Query("expires"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 || d > 7*24*time.Hour {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "expires must be a duration up to 168h")
			}
			expiry = d
		}
		u, err := svc.Link(c.UserContext(), c.Params("category"), c.Params("id"), expiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(linkResponse{URL: u, ExpiresIn: int(expiry.Seconds())})
	}
}

// DeleteRecord godoc
// @Summary Delete a mail record and its file
// @Description Only surat-masuk and surat-keluar records can be deleted. 202 DELETE_PENDING means the file is gone and the row is removed shortly.
// @Tags archive
// @Param category path string true "category key"
// @Param id path string true "record id"
// @Param confirm query bool true "must be true"
// @Success 204
// @Success 202 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/categories/{category}/records/{id} [delete]
func DeleteRecord(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.Delete(c.UserContext(), c.Params("category"), c.Params("id"), c.QueryBool("confirm"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
