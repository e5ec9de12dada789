package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"initiativehub/auth"
	"initiativehub/cache"
	"initiativehub/config"
	"initiativehub/db/dbtest"
	"initiativehub/models"
	"initiativehub/realtime"
)

const testPassword = "correct-horse-battery"

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func (s *recordingSink) Send(_ context.Context, event cloudevents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type()
	}
	return out
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	handler *Handler
	sink    *recordingSink

	admin  models.User
	editor models.User
	viewer models.User

	adminToken  string
	editorToken string
	viewerToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "routes-test-secret-0123456789"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Uploads.Dir = t.TempDir()

	conn := dbtest.Seeded(t)
	sink := &recordingSink{}
	publisher := realtime.NewPublisher(zap.NewNop(), sink)

	h := &Handler{
		DB:        conn,
		Auth:      auth.NewService(cfg.Auth),
		Cache:     cache.NewMemoryCache(100),
		Publisher: publisher,
		Metrics:   NewMetrics(nil, publisher),
		Log:       zap.NewNop(),
		Config:    cfg,
		Now:       func() time.Time { return testNow },
	}

	env := &testEnv{app: NewApp(h), db: conn, handler: h, sink: sink}
	env.admin, env.adminToken = env.createUser(t, "admin@example.com", models.RoleAdmin)
	env.editor, env.editorToken = env.createUser(t, "editor@example.com", models.RoleEditor)
	env.viewer, env.viewerToken = env.createUser(t, "viewer@example.com", models.RoleViewer)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, role string) (models.User, string) {
	t.Helper()

	hash, err := e.handler.Auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := models.User{Email: email, Name: role, Role: role, PasswordHash: hash}
	require.NoError(t, e.db.Create(&user).Error)

	token, _, err := e.handler.Auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// doJSON is do followed by decoding the body into out.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	status, data := e.do(t, method, path, token, body)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), "body: %s", data)
	}
	return status
}

type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type listBody[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

type updateBody[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
