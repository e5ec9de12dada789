package routes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"initiativehub/fieldrules"
	"initiativehub/models"
	"initiativehub/realtime"
)

// initiativeUpdate is a partial update; nil fields are left unchanged. An
// empty date string clears the date.
type initiativeUpdate struct {
	Title            *string          `json:"title"`
	Description      *string          `json:"description"`
	Status           *string          `json:"status"`
	Priority         *string          `json:"priority"`
	Team             *string          `json:"team"`
	Owner            *string          `json:"owner"`
	ExecutiveSponsor *string          `json:"executive_sponsor"`
	StartDate        *models.Date     `json:"start_date"`
	TargetDate       *models.Date     `json:"target_date"`
	Progress         *int             `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Budget           *decimal.Decimal `json:"budget"`
	Tags             *[]string        `json:"tags"`
	Notes            *string          `json:"notes"`
}

func (u initiativeUpdate) apply(in *models.Initiative) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&in.Title, u.Title)
	setString(&in.Description, u.Description)
	setString(&in.Status, u.Status)
	setString(&in.Priority, u.Priority)
	setString(&in.Team, u.Team)
	setString(&in.Owner, u.Owner)
	setString(&in.ExecutiveSponsor, u.ExecutiveSponsor)
	setString(&in.Notes, u.Notes)

	if u.StartDate != nil {
		in.StartDate = clearZero(u.StartDate)
	}
	if u.TargetDate != nil {
		in.TargetDate = clearZero(u.TargetDate)
	}
	if u.Progress != nil {
		in.Progress = *u.Progress
	}
	if u.Budget != nil {
		in.Budget = *u.Budget
	}
	if u.Tags != nil {
		in.Tags = *u.Tags
	}
}

func clearZero(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func normalizeInitiative(in *models.Initiative) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = models.DefaultStatus
	}
	if in.Priority == "" {
		in.Priority = models.DefaultPriority
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	in.StartDate = clearZero(in.StartDate)
	in.TargetDate = clearZero(in.TargetDate)
}

// checkInitiative runs struct validation, config value checks and the
// admin-managed field requirements. It writes the error response itself and
// reports whether the request may continue.
func (h *Handler) checkInitiative(c *fiber.Ctx, in *models.Initiative) (bool, error) {
	if err := validate.Struct(in); err != nil {
		return false, validationError(c, err)
	}
	if in.StartDate != nil && in.TargetDate != nil && in.TargetDate.Before(*in.StartDate) {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Target date cannot be before start date",
		})
	}

	for category, value := range map[string]string{
		models.CategoryStatus:   in.Status,
		models.CategoryPriority: in.Priority,
		models.CategoryTeam:     in.Team,
	} {
		ok, err := h.configValueAllowed(c.UserContext(), category, value)
		if err != nil {
			return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load configuration",
			})
		}
		if !ok {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Unknown %s %q", category, value),
			})
		}
	}

	rules, err := h.initiativeRules(c.UserContext())
	if err != nil {
		return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load field configuration",
		})
	}
	if err := rules.Validate(in); err != nil {
		var missing *fieldrules.MissingFieldsError
		if errors.As(err, &missing) {
			return false, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Missing required fields",
				"details": missing.Fields,
			})
		}
		return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check required fields",
		})
	}
	return true, nil
}

func (h *Handler) initiativeRules(ctx context.Context) (*fieldrules.Rules, error) {
	var fields []models.FieldConfiguration
	if err := h.DB.WithContext(ctx).Where("entity = ?", models.EntityInitiative).Find(&fields).Error; err != nil {
		return nil, err
	}
	return fieldrules.Compile(models.EntityInitiative, fields)
}

func (h *Handler) createInitiative(c *fiber.Ctx) error {
	initiative := new(models.Initiative)
	if err := c.BodyParser(initiative); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	initiative.ID = 0
	initiative.Achievements = nil
	normalizeInitiative(initiative)

	user := currentUser(c)
	initiative.CreatedByID = &user.ID

	if ok, err := h.checkInitiative(c, initiative); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Omit(clause.Associations).Create(initiative).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create initiative",
		})
	}

	h.publish(c, "initiative", realtime.ActionCreated, initiative.ID, initiative)
	return c.Status(fiber.StatusCreated).JSON(initiative)
}

func (h *Handler) getAllInitiatives(c *fiber.Ctx) error {
	p, err := parsePage(c)
	if err != nil {
		return err
	}

	query := h.DB.WithContext(c.UserContext()).Model(&models.Initiative{})
	for _, column := range []string{"status", "team", "priority", "owner"} {
		if v := c.Query(column); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count initiatives",
		})
	}

	var initiatives []models.Initiative
	if err := p.apply(query.Order("updated_at desc, id desc"), total).Find(&initiatives).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get initiatives",
		})
	}

	return c.JSON(ListResponse{Items: initiatives, Total: total, Skip: p.skip, Limit: p.limit})
}

func (h *Handler) getInitiative(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var initiative models.Initiative
	err = h.DB.WithContext(c.UserContext()).
		Preload("Achievements", func(db *gorm.DB) *gorm.DB {
			return db.Order("date asc, id asc")
		}).
		First(&initiative, id).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Initiative not found",
		})
	}
	return c.JSON(initiative)
}

func (h *Handler) getInitiativeAchievements(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.UserContext()).First(&models.Initiative{}, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Initiative not found",
		})
	}

	var achievements []models.Achievement
	if err := h.DB.WithContext(c.UserContext()).
		Where("initiative_id = ?", id).
		Order("date desc, id desc").
		Find(&achievements).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get achievements",
		})
	}
	return c.JSON(achievements)
}

func (h *Handler) updateInitiative(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req initiativeUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	// Check if the initiative exists
	var initiative models.Initiative
	if err := h.DB.WithContext(c.UserContext()).First(&initiative, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Initiative not found",
		})
	}

	req.apply(&initiative)
	normalizeInitiative(&initiative)
	if ok, err := h.checkInitiative(c, &initiative); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Omit(clause.Associations).Save(&initiative).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update initiative",
		})
	}

	h.publish(c, "initiative", realtime.ActionUpdated, initiative.ID, initiative)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Initiative updated successfully",
		"data":    initiative,
	})
}

// deleteInitiative removes the initiative; its achievements become standalone.
func (h *Handler) deleteInitiative(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var detached int64
	err = h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Initiative{}, id).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Achievement{}).Where("initiative_id = ?", id).Update("initiative_id", nil)
		if res.Error != nil {
			return res.Error
		}
		detached = res.RowsAffected
		return tx.Delete(&models.Initiative{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Initiative not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete initiative",
		})
	}

	h.publish(c, "initiative", realtime.ActionDeleted, id, fiber.Map{"detached_achievements": detached})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Initiative deleted successfully",
		"data":    fiber.Map{"detached_achievements": detached},
	})
}
