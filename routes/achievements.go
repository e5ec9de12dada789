package routes

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"initiativehub/models"
	"initiativehub/realtime"
)

type achievementUpdate struct {
	InitiativeID *uint        `json:"initiative_id"`
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	Date         *models.Date `json:"date"`
	Kind         *string      `json:"kind" validate:"omitempty,oneof=achievement milestone"`
	Team         *string      `json:"team"`
	Image        *string      `json:"image"`
}

// checkAchievement validates a to-be-saved achievement. It writes the error
// response itself and reports whether the request may continue.
func (h *Handler) checkAchievement(c *fiber.Ctx, a *models.Achievement) (bool, error) {
	if err := validate.Struct(a); err != nil {
		return false, validationError(c, err)
	}
	if a.Date.IsZero() {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": fiber.Map{"date": "required"},
		})
	}
	if a.InitiativeID != nil {
		if err := h.DB.WithContext(c.UserContext()).First(&models.Initiative{}, *a.InitiativeID).Error; err != nil {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Initiative not found",
			})
		}
	}
	return true, nil
}

func (h *Handler) createAchievement(c *fiber.Ctx) error {
	achievement := new(models.Achievement)
	if err := c.BodyParser(achievement); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	achievement.ID = 0
	achievement.Title = strings.TrimSpace(achievement.Title)
	if achievement.Kind == "" {
		achievement.Kind = models.KindAchievement
	}

	if ok, err := h.checkAchievement(c, achievement); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Create(achievement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create achievement",
		})
	}

	h.publish(c, "achievement", realtime.ActionCreated, achievement.ID, achievement)
	return c.Status(fiber.StatusCreated).JSON(achievement)
}

func (h *Handler) getAllAchievements(c *fiber.Ctx) error {
	p, err := parsePage(c)
	if err != nil {
		return err
	}

	query := h.DB.WithContext(c.UserContext()).Model(&models.Achievement{})
	if v := c.Query("initiative_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid initiative_id parameter",
			})
		}
		query = query.Where("initiative_id = ?", id)
	}
	if c.QueryBool("standalone") {
		query = query.Where("initiative_id IS NULL")
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if v := c.Query("from"); v != "" {
		from, err := models.ParseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from parameter",
			})
		}
		query = query.Where("date >= ?", from)
	}
	if v := c.Query("to"); v != "" {
		to, err := models.ParseDate(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to parameter",
			})
		}
		query = query.Where("date <= ?", to)
	}
	if team := c.Query("team"); team != "" {
		query = query.Where("team = ?", team)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count achievements",
		})
	}

	var achievements []models.Achievement
	if err := p.apply(query.Order("date desc, id desc"), total).Find(&achievements).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get achievements",
		})
	}

	return c.JSON(ListResponse{Items: achievements, Total: total, Skip: p.skip, Limit: p.limit})
}

func (h *Handler) getAchievement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var achievement models.Achievement
	if err := h.DB.WithContext(c.UserContext()).First(&achievement, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Achievement not found",
		})
	}
	return c.JSON(achievement)
}

func (h *Handler) updateAchievement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req achievementUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	// initiative_id: null detaches, so presence matters, not just the value.
	var present map[string]json.RawMessage
	_ = json.Unmarshal(c.Body(), &present)

	// Check if the achievement exists
	var achievement models.Achievement
	if err := h.DB.WithContext(c.UserContext()).First(&achievement, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Achievement not found",
		})
	}

	if _, ok := present["initiative_id"]; ok {
		achievement.InitiativeID = req.InitiativeID
	}
	if req.Title != nil {
		achievement.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		achievement.Description = *req.Description
	}
	if req.Date != nil {
		achievement.Date = *req.Date
	}
	if req.Kind != nil && *req.Kind != "" {
		achievement.Kind = *req.Kind
	}
	if req.Team != nil {
		achievement.Team = *req.Team
	}
	if req.Image != nil {
		achievement.Image = *req.Image
	}

	if ok, err := h.checkAchievement(c, &achievement); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Save(&achievement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update achievement",
		})
	}

	h.publish(c, "achievement", realtime.ActionUpdated, achievement.ID, achievement)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Achievement updated successfully",
		"data":    achievement,
	})
}

func (h *Handler) deleteAchievement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.Achievement{}, id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete achievement",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Achievement not found",
		})
	}

	h.publish(c, "achievement", realtime.ActionDeleted, id, nil)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Achievement deleted successfully",
	})
}
