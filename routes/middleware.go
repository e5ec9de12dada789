package routes

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"initiativehub/auth"
	"initiativehub/models"
)

const userKey = "user"

// requestLogger logs one line per request. Handler errors are rendered here so
// the logged status matches the response.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := zapcore.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zapcore.WarnLevel
		}

		log.Check(level, "request").Write(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		)
		return nil
	}
}

// requireAuth checks the bearer token and loads the user it names.
func (h *Handler) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing bearer token",
		})
	}

	claims, err := h.Auth.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		message := "Invalid token"
		if errors.Is(err, auth.ErrTokenExpired) {
			message = "Token has expired"
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": message,
		})
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User no longer exists",
		})
	}

	c.Locals(userKey, user)
	return c.Next()
}

func requireAdmin(c *fiber.Ctx) error {
	if currentUser(c).Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin role required",
		})
	}
	return c.Next()
}

func requireEditor(c *fiber.Ctx) error {
	if !currentUser(c).CanEdit() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Editor role required",
		})
	}
	return c.Next()
}
