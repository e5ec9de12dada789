package routes

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"initiativehub/auth"
	"initiativehub/models"
	"initiativehub/realtime"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
	Team     string `json:"team"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
	Team     *string `json:"team"`
	Password *string `json:"password"`
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		Role:         req.Role,
		Team:         req.Team,
		PasswordHash: hash,
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already in use",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	h.publish(c, "user", realtime.ActionCreated, user.ID, user)
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) getAllUsers(c *fiber.Ctx) error {
	p, err := parsePage(c)
	if err != nil {
		return err
	}

	query := h.DB.WithContext(c.UserContext()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if team := c.Query("team"); team != "" {
		query = query.Where("team = ?", team)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count users",
		})
	}

	var users []models.User
	if err := p.apply(query.Order("id asc"), total).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get users",
		})
	}

	return c.JSON(ListResponse{Items: users, Total: total, Skip: p.skip, Limit: p.limit})
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil && *req.Role != "" {
		if user.ID == currentUser(c).ID && *req.Role != models.RoleAdmin {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Admins cannot remove their own admin role",
			})
		}
		user.Role = *req.Role
	}
	if req.Team != nil {
		user.Team = *req.Team
	}
	if req.Password != nil {
		hash, err := h.Auth.HashPassword(*req.Password)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		user.PasswordHash = hash
	}

	if err := h.DB.WithContext(c.UserContext()).Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already in use",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	h.publish(c, "user", realtime.ActionUpdated, user.ID, user)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User updated successfully",
		"data":    user,
	})
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if id == currentUser(c).ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot delete your own account",
		})
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.User{}, id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	h.publish(c, "user", realtime.ActionDeleted, id, nil)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
