package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"sipeta/internal/service"
	"sipeta/internal/upload"
)

// UploadIDHeader names the client chosen id that upload progress is published under.
const UploadIDHeader = "X-Upload-ID"

// UploadFile godoc
// @Summary Upload a file into a category folder
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "document"
// @Param category formData string true "category key"
// @Param section formData string false "section the upload is made from"
// @Param X-Upload-ID header string false "progress id"
// @Success 201 {object} upload.Result
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Router /api/uploads [post]
func UploadFile(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		// Header values alias the pooled request buffer; the id outlives the request.
		uploadID := utils.CopyString(c.Get(UploadIDHeader))
		res, err := svc.Upload(c.UserContext(), uploadID, c.FormValue("category"), c.FormValue("section"), upload.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Body:        f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// UploadProgress godoc
// @Summary Progress of an upload
// @Tags uploads
// @Produce json
// @Param id path string true "upload id"
// @Success 200 {object} upload.Progress
// @Failure 404 {object} errorPayload
// @Router /api/uploads/{id}/progress [get]
func UploadProgress(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := svc.UploadProgress(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "unknown upload id")
		}
		return c.JSON(p)
	}
}
