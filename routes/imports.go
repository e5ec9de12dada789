package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"initiativehub/importer"
	"initiativehub/models"
	"initiativehub/realtime"
)

type ImportRequest struct {
	Text          string `json:"text" validate:"required"`
	CreateMissing bool   `json:"create_missing"`
}

type ImportResponse struct {
	Initiatives []models.Initiative `json:"initiatives"`
	ConfigItems []models.ConfigItem `json:"config_items"`
	Warnings    []importer.Warning  `json:"warnings"`
	Missing     map[string][]string `json:"missing"`
}

// parseImport reads the request and runs the parser. On failure the error
// response has already been written and res is nil.
func (h *Handler) parseImport(c *fiber.Ctx) (*importer.Result, error) {
	var req ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(c, err)
	}

	existing, err := h.configItems(c.UserContext(), "")
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load configuration",
		})
	}

	rules, err := h.initiativeRules(c.UserContext())
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load field configuration",
		})
	}

	res, err := importer.Parse(req.Text, existing, importer.Options{
		CreateMissing: req.CreateMissing,
		Now:           h.now(),
		MaxRows:       h.Config.Import.MaxRows,
		Rules:         rules,
	})
	if errors.Is(err, importer.ErrEmptyInput) || errors.Is(err, importer.ErrTooManyRows) {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to parse import",
		})
	}
	return res, nil
}

func (h *Handler) previewImport(c *fiber.Ctx) error {
	res, err := h.parseImport(c)
	if res == nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handler) runImport(c *fiber.Ctx) error {
	res, err := h.parseImport(c)
	if res == nil {
		return err
	}

	if len(res.Rows) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "No rows can be imported",
			"details": res.Warnings,
		})
	}

	user := currentUser(c)
	committed, err := importer.Commit(c.UserContext(), h.DB, res, &user.ID)
	if err != nil {
		h.Log.Error("import commit failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save import",
		})
	}
	if len(committed.ConfigItems) > 0 {
		h.invalidateConfigCache(c.UserContext())
	}

	h.Log.Info("import committed",
		zap.Uint("user_id", user.ID),
		zap.Int("initiatives", len(committed.Initiatives)),
		zap.Int("config_items", len(committed.ConfigItems)),
		zap.Int("warnings", len(res.Warnings)))

	h.publish(c, "initiative", realtime.ActionImported, 0, fiber.Map{
		"initiatives":  len(committed.Initiatives),
		"config_items": len(committed.ConfigItems),
	})
	return c.Status(fiber.StatusCreated).JSON(ImportResponse{
		Initiatives: committed.Initiatives,
		ConfigItems: committed.ConfigItems,
		Warnings:    res.Warnings,
		Missing:     res.Missing,
	})
}
