package routes

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"initiativehub/auth"
	"initiativehub/cache"
	"initiativehub/config"
	"initiativehub/models"
	"initiativehub/realtime"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler carries everything the HTTP handlers need.
type Handler struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Cache     cache.Engine
	Publisher *realtime.Publisher
	Hub       *realtime.Hub
	Metrics   *Metrics
	Log       *zap.Logger
	Config    *config.Config

	// Now defaults to time.Now.
	Now func() time.Time
}

// ListResponse is the envelope of every list endpoint.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Skip  int         `json:"skip"`
	Limit int         `json:"limit"`
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// NewApp builds the fiber application with middleware and all routes.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "initiativehub",
		BodyLimit:    h.Config.HTTP.BodyLimitMB * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler(h.Log),
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if h.Metrics != nil {
		app.Use(h.Metrics.Middleware())
	}
	app.Use(requestLogger(h.Log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(h.Config.HTTP.AllowOrigins, ","),
	}))

	app.Static("/uploads", h.Config.Uploads.Dir)

	SetupRoutes(app, h)
	return app
}

func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.health)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics.Handler())
	}
	if h.Hub != nil {
		app.Get("/ws", adaptor.HTTPHandler(h.Hub))
	}

	// Image upload route
	app.Post("/upload", h.requireAuth, requireEditor, h.uploadImage)

	api := app.Group("/api")
	api.Post("/auth/login", h.login)

	api.Use(h.requireAuth)
	api.Get("/auth/me", h.me)

	users := api.Group("/users")
	users.Get("/", h.getAllUsers)
	users.Get("/:id", h.getUser)
	users.Post("/", requireAdmin, h.createUser)
	users.Put("/:id", requireAdmin, h.updateUser)
	users.Delete("/:id", requireAdmin, h.deleteUser)

	initiatives := api.Group("/initiatives")
	initiatives.Get("/", h.getAllInitiatives)
	initiatives.Get("/:id", h.getInitiative)
	initiatives.Get("/:id/achievements", h.getInitiativeAchievements)
	initiatives.Post("/", requireEditor, h.createInitiative)
	initiatives.Put("/:id", requireEditor, h.updateInitiative)
	initiatives.Delete("/:id", requireEditor, h.deleteInitiative)

	achievements := api.Group("/achievements")
	achievements.Get("/", h.getAllAchievements)
	achievements.Get("/:id", h.getAchievement)
	achievements.Post("/", requireEditor, h.createAchievement)
	achievements.Put("/:id", requireEditor, h.updateAchievement)
	achievements.Delete("/:id", requireEditor, h.deleteAchievement)

	cfg := api.Group("/config")
	cfg.Get("/categories", h.getConfigCategories)

	items := cfg.Group("/items")
	items.Get("/", h.getConfigItems)
	items.Post("/", requireAdmin, h.createConfigItem)
	items.Put("/:id", requireAdmin, h.updateConfigItem)
	items.Delete("/:id", requireAdmin, h.deleteConfigItem)

	navigation := cfg.Group("/navigation")
	navigation.Get("/", h.getNavigation)
	navigation.Put("/reorder", requireAdmin, h.reorderNavigation)
	navigation.Post("/", requireAdmin, h.createNavigation)
	navigation.Put("/:id", requireAdmin, h.updateNavigation)
	navigation.Delete("/:id", requireAdmin, h.deleteNavigation)

	fields := cfg.Group("/fields")
	fields.Get("/", h.getFieldConfigurations)
	fields.Post("/", requireAdmin, h.createFieldConfiguration)
	fields.Put("/:id", requireAdmin, h.updateFieldConfiguration)
	fields.Delete("/:id", requireAdmin, h.deleteFieldConfiguration)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/summary", h.getSummary)
	dashboard.Get("/calendar", h.getCalendar)
	dashboard.Get("/snapshots", h.getSnapshots)

	imports := api.Group("/import")
	imports.Post("/preview", requireEditor, h.previewImport)
	imports.Post("/", requireEditor, h.runImport)
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

type page struct {
	skip  int
	limit int
}

// parsePage reads skip and limit. A missing limit means no limit.
func parsePage(c *fiber.Ctx) (page, error) {
	p := page{skip: 0, limit: -1}

	if c.Query("limit") != "" {
		limit, err := strconv.Atoi(c.Query("limit"))
		if err != nil || limit < 0 {
			return p, fiber.NewError(fiber.StatusBadRequest, "Invalid limit parameter")
		}
		p.limit = limit
	}
	if c.Query("skip") != "" {
		skip, err := strconv.Atoi(c.Query("skip"))
		if err != nil || skip < 0 {
			return p, fiber.NewError(fiber.StatusBadRequest, "Invalid skip parameter")
		}
		p.skip = skip
	}
	return p, nil
}

func (p page) apply(q *gorm.DB, total int64) *gorm.DB {
	if p.skip > 0 {
		q = q.Offset(p.skip)
	}
	if p.limit > 0 {
		q = q.Limit(p.limit)
	} else if p.skip > 0 {
		q = q.Limit(int(total))
	}
	return q
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id parameter")
	}
	return uint(id), nil
}

// validationError turns validator errors into a 400 with per-field details.
func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Validation failed",
		"details": details,
	})
}

func (h *Handler) publish(c *fiber.Ctx, entity, action string, id uint, record interface{}) {
	h.Publisher.Publish(c.UserContext(), realtime.Change{
		Entity: entity,
		Action: action,
		ID:     id,
		Record: record,
	})
}

func (h *Handler) health(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok", "websocket_clients": 0}
	if h.Hub != nil {
		status["websocket_clients"] = h.Hub.ClientCount()
	}

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	status["database"] = "ok"
	return c.JSON(status)
}

// currentUser returns the user stored by requireAuth.
func currentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(userKey).(models.User)
	return user
}
