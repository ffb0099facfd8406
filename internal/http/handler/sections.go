package handler

import (
	"github.com/gofiber/fiber/v2"

	"sipeta/internal/service"
)

// SectionBoard godoc
// @Summary Section statistics and history
// @Tags archive
// @Produce json
// @Param section path string true "section key"
// @Param q query string false "free text filter"
// @Param category query string false "restrict to one category"
// @Param refresh query bool false "reload from the database"
// @Success 200 {object} history.View
// @Failure 404 {object} errorPayload
// @Router /api/sections/{section} [get]
func SectionBoard(svc service.ArchiveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Board(c.UserContext(), c.Params("section"), service.BoardQuery{
			Search:   c.Query("q"),
			Category: c.Query("category"),
			Refresh:  c.QueryBool("refresh"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(v)
	}
}
