package handler

import (
	"github.com/gofiber/fiber/v2"

	"sipeta/internal/service"
)

// Diagnostics godoc
// @Summary Database connectivity probe
// @Description Reads one surat_masuk id, inserts a disposable TEST-API row and removes it.
// @Tags ops
// @Produce json
// @Success 200 {object} service.DiagnosticsResult
// @Failure 500 {object} service.DiagnosticsResult
// @Router /api/diagnostics [get]
func Diagnostics(svc service.DiagnosticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Run(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(service.DiagnosticsResult{
				Error:   err.Error(),
				Details: "diagnostics could not run",
			})
		}
		if !res.Success {
			return c.Status(fiber.StatusInternalServerError).JSON(res)
		}
		return c.JSON(res)
	}
}
