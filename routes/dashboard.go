package routes

import (
	"github.com/gofiber/fiber/v2"

	"initiativehub/models"
	"initiativehub/reports"
)

const defaultSnapshotLimit = 24

func (h *Handler) getSummary(c *fiber.Ctx) error {
	summary, err := reports.Load(c.UserContext(), h.DB, h.now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute summary",
		})
	}
	return c.JSON(summary)
}

// getCalendar serves the calendar for ?from&to, defaulting to the current month.
func (h *Handler) getCalendar(c *fiber.Ctx) error {
	from, to := reports.MonthWindow(h.now())

	if v := c.Query("from"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from parameter",
			})
		}
		from = d
	}
	if v := c.Query("to"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to parameter",
			})
		}
		to = d
	}
	if to.Before(from) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to must not be before from",
		})
	}

	calendar, err := reports.LoadCalendar(c.UserContext(), h.DB, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build calendar",
		})
	}
	return c.JSON(calendar)
}

func (h *Handler) getSnapshots(c *fiber.Ctx) error {
	limit := defaultSnapshotLimit
	if c.Query("limit") != "" {
		limit = c.QueryInt("limit", -1)
		if limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit parameter",
			})
		}
	}

	query := h.DB.WithContext(c.UserContext()).Order("taken_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var snapshots []models.SummarySnapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get snapshots",
		})
	}
	return c.JSON(snapshots)
}
