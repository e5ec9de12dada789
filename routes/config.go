package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"initiativehub/cache"
	"initiativehub/fieldrules"
	"initiativehub/importer"
	"initiativehub/models"
	"initiativehub/realtime"
)

const configCachePrefix = "config:items:"

func configCacheKey(category string) string {
	if category == "" {
		return configCachePrefix + "*"
	}
	return configCachePrefix + category
}

// configItems returns the items of category (all when empty), served from the
// cache when possible.
func (h *Handler) configItems(ctx context.Context, category string) ([]models.ConfigItem, error) {
	key := configCacheKey(category)

	var items []models.ConfigItem
	if h.Cache != nil && cache.GetJSON(ctx, h.Cache, key, &items) {
		return items, nil
	}

	query := h.DB.WithContext(ctx).Order("category asc, sort_order asc, id asc")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	if h.Cache != nil {
		if err := cache.SetJSON(ctx, h.Cache, key, items, h.Config.Cache.TTL); err != nil {
			h.Log.Warn("config cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (h *Handler) invalidateConfigCache(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.DeletePrefix(ctx, configCachePrefix); err != nil {
		h.Log.Warn("config cache invalidation failed", zap.Error(err))
	}
}

// configValueAllowed reports whether value is a configured item of category.
// Empty values and categories without any items accept everything.
func (h *Handler) configValueAllowed(ctx context.Context, category, value string) (bool, error) {
	if value == "" {
		return true, nil
	}
	items, err := h.configItems(ctx, category)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return true, nil
	}
	for _, item := range items {
		if item.Value == value {
			return true, nil
		}
	}
	return false, nil
}

type configItemRequest struct {
	Category  *string `json:"category" validate:"omitempty,max=64"`
	Value     *string `json:"value" validate:"omitempty,max=128"`
	Label     *string `json:"label"`
	Color     *string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder *int    `json:"sort_order"`
	Active    *bool   `json:"active"`
}

func (r configItemRequest) apply(item *models.ConfigItem) {
	if r.Category != nil {
		item.Category = importer.Slug(*r.Category)
	}
	if r.Value != nil {
		item.Value = importer.Slug(*r.Value)
	}
	if r.Label != nil {
		item.Label = strings.TrimSpace(*r.Label)
	}
	if r.Color != nil {
		item.Color = *r.Color
	}
	if r.SortOrder != nil {
		item.SortOrder = *r.SortOrder
	}
	if r.Active != nil {
		item.Active = *r.Active
	}
	if item.Value == "" {
		item.Value = importer.Slug(item.Label)
	}
	if item.Label == "" {
		item.Label = item.Value
	}
}

func (h *Handler) getConfigItems(c *fiber.Ctx) error {
	items, err := h.configItems(c.UserContext(), c.Query("category"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get config items",
		})
	}

	if v := c.Query("active"); v != "" {
		active := c.QueryBool("active")
		filtered := make([]models.ConfigItem, 0, len(items))
		for _, item := range items {
			if item.Active == active {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	return c.JSON(items)
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (h *Handler) getConfigCategories(c *fiber.Ctx) error {
	var counts []categoryCount
	if err := h.DB.WithContext(c.UserContext()).Model(&models.ConfigItem{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category asc").
		Scan(&counts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get categories",
		})
	}
	return c.JSON(counts)
}

func (h *Handler) createConfigItem(c *fiber.Ctx) error {
	var req configItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	item := models.ConfigItem{Active: true}
	req.apply(&item)
	if err := validate.Struct(item); err != nil {
		return validationError(c, err)
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Config value already exists in this category",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create config item",
		})
	}

	h.invalidateConfigCache(c.UserContext())
	h.publish(c, "config_item", realtime.ActionCreated, item.ID, item)
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) updateConfigItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req configItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var item models.ConfigItem
	if err := h.DB.WithContext(c.UserContext()).First(&item, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Config item not found",
		})
	}
	req.apply(&item)
	if err := validate.Struct(item); err != nil {
		return validationError(c, err)
	}

	if err := h.DB.WithContext(c.UserContext()).Save(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Config value already exists in this category",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update config item",
		})
	}

	h.invalidateConfigCache(c.UserContext())
	h.publish(c, "config_item", realtime.ActionUpdated, item.ID, item)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Config item updated successfully",
		"data":    item,
	})
}

func (h *Handler) deleteConfigItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.ConfigItem{}, id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete config item",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Config item not found",
		})
	}

	h.invalidateConfigCache(c.UserContext())
	h.publish(c, "config_item", realtime.ActionDeleted, id, nil)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Config item deleted successfully",
	})
}

// Navigation

type navigationRequest struct {
	Key       *string `json:"key"`
	Label     *string `json:"label"`
	Path      *string `json:"path"`
	Icon      *string `json:"icon"`
	SortOrder *int    `json:"sort_order"`
	Visible   *bool   `json:"visible"`
	AdminOnly *bool   `json:"admin_only"`
}

func (r navigationRequest) apply(nav *models.NavigationConfig) {
	if r.Key != nil {
		nav.Key = importer.Slug(*r.Key)
	}
	if r.Label != nil {
		nav.Label = strings.TrimSpace(*r.Label)
	}
	if r.Path != nil {
		nav.Path = strings.TrimSpace(*r.Path)
	}
	if r.Icon != nil {
		nav.Icon = *r.Icon
	}
	if r.SortOrder != nil {
		nav.SortOrder = *r.SortOrder
	}
	if r.Visible != nil {
		nav.Visible = *r.Visible
	}
	if r.AdminOnly != nil {
		nav.AdminOnly = *r.AdminOnly
	}
}

func (h *Handler) getNavigation(c *fiber.Ctx) error {
	query := h.DB.WithContext(c.UserContext()).Order("sort_order asc, id asc")
	if currentUser(c).Role != models.RoleAdmin {
		query = query.Where("visible = ? AND admin_only = ?", true, false)
	}

	var entries []models.NavigationConfig
	if err := query.Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get navigation",
		})
	}
	return c.JSON(entries)
}

func (h *Handler) createNavigation(c *fiber.Ctx) error {
	var req navigationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	nav := models.NavigationConfig{Visible: true}
	req.apply(&nav)
	if err := validate.Struct(nav); err != nil {
		return validationError(c, err)
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&nav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Navigation key already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create navigation entry",
		})
	}

	h.publish(c, "navigation", realtime.ActionCreated, nav.ID, nav)
	return c.Status(fiber.StatusCreated).JSON(nav)
}

func (h *Handler) updateNavigation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req navigationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	var nav models.NavigationConfig
	if err := h.DB.WithContext(c.UserContext()).First(&nav, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Navigation entry not found",
		})
	}
	req.apply(&nav)
	if err := validate.Struct(nav); err != nil {
		return validationError(c, err)
	}

	if err := h.DB.WithContext(c.UserContext()).Save(&nav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Navigation key already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update navigation entry",
		})
	}

	h.publish(c, "navigation", realtime.ActionUpdated, nav.ID, nav)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Navigation entry updated successfully",
		"data":    nav,
	})
}

func (h *Handler) deleteNavigation(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.NavigationConfig{}, id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete navigation entry",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Navigation entry not found",
		})
	}

	h.publish(c, "navigation", realtime.ActionDeleted, id, nil)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Navigation entry deleted successfully",
	})
}

type reorderRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

var errNavigationMissing = errors.New("navigation entry missing")

// reorderNavigation assigns sort_order 1..n in the order of the given ids.
func (h *Handler) reorderNavigation(c *fiber.Ctx) error {
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var missing uint
	err := h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		for i, id := range req.IDs {
			res := tx.Model(&models.NavigationConfig{}).Where("id = ?", id).Update("sort_order", i+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				missing = id
				return errNavigationMissing
			}
		}
		return nil
	})
	if errors.Is(err, errNavigationMissing) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Navigation entry not found",
			"id":    missing,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reorder navigation",
		})
	}

	var entries []models.NavigationConfig
	if err := h.DB.WithContext(c.UserContext()).Order("sort_order asc, id asc").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get navigation",
		})
	}

	h.publish(c, "navigation", realtime.ActionUpdated, 0, entries)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Navigation reordered successfully",
		"data":    entries,
	})
}

// Field configurations

type fieldConfigurationRequest struct {
	Entity    *string `json:"entity" validate:"omitempty,oneof=initiative"`
	FieldName *string `json:"field_name"`
	Label     *string `json:"label"`
	Required  *bool   `json:"required"`
	Visible   *bool   `json:"visible"`
	SortOrder *int    `json:"sort_order"`
}

func (r fieldConfigurationRequest) apply(f *models.FieldConfiguration) {
	if r.Entity != nil && *r.Entity != "" {
		f.Entity = *r.Entity
	}
	if r.FieldName != nil {
		f.FieldName = strings.TrimSpace(*r.FieldName)
	}
	if r.Label != nil {
		f.Label = strings.TrimSpace(*r.Label)
	}
	if r.Required != nil {
		f.Required = *r.Required
	}
	if r.Visible != nil {
		f.Visible = *r.Visible
	}
	if r.SortOrder != nil {
		f.SortOrder = *r.SortOrder
	}
}

func (h *Handler) getFieldConfigurations(c *fiber.Ctx) error {
	query := h.DB.WithContext(c.UserContext()).Order("sort_order asc, id asc")
	if entity := c.Query("entity"); entity != "" {
		query = query.Where("entity = ?", entity)
	}

	var fields []models.FieldConfiguration
	if err := query.Find(&fields).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get field configurations",
		})
	}
	return c.JSON(fields)
}

func (h *Handler) checkFieldConfiguration(c *fiber.Ctx, f *models.FieldConfiguration) (bool, error) {
	if err := validate.Struct(f); err != nil {
		return false, validationError(c, err)
	}
	if !fieldrules.KnownField(f.FieldName) {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown field " + f.FieldName,
		})
	}
	return true, nil
}

func (h *Handler) createFieldConfiguration(c *fiber.Ctx) error {
	var req fieldConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	field := models.FieldConfiguration{Entity: models.EntityInitiative, Visible: true}
	req.apply(&field)
	if ok, err := h.checkFieldConfiguration(c, &field); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Field is already configured",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create field configuration",
		})
	}

	h.publish(c, "field_configuration", realtime.ActionCreated, field.ID, field)
	return c.Status(fiber.StatusCreated).JSON(field)
}

func (h *Handler) updateFieldConfiguration(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req fieldConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var field models.FieldConfiguration
	if err := h.DB.WithContext(c.UserContext()).First(&field, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Field configuration not found",
		})
	}
	req.apply(&field)
	if ok, err := h.checkFieldConfiguration(c, &field); !ok {
		return err
	}

	if err := h.DB.WithContext(c.UserContext()).Save(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Field is already configured",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update field configuration",
		})
	}

	h.publish(c, "field_configuration", realtime.ActionUpdated, field.ID, field)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Field configuration updated successfully",
		"data":    field,
	})
}

func (h *Handler) deleteFieldConfiguration(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.FieldConfiguration{}, id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete field configuration",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Field configuration not found",
		})
	}

	h.publish(c, "field_configuration", realtime.ActionDeleted, id, nil)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Field configuration deleted successfully",
	})
}
