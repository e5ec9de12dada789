package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"initiativehub/models"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials issue a usable token", func(t *testing.T) {
		var resp LoginResponse
		status := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Email:    "Editor@Example.com",
			Password: testPassword,
		}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, models.RoleEditor, resp.User.Role)
		assert.True(t, resp.ExpiresAt.After(testNow))

		var me models.User
		status = env.doJSON(t, http.MethodGet, "/api/auth/me", resp.Token, nil, &me)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, env.editor.ID, me.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		var body errorBody
		status := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Email:    "editor@example.com",
			Password: "nope-nope-nope",
		}, &body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid email or password", body.Error)
	})

	t.Run("unknown email", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Email:    "ghost@example.com",
			Password: testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("malformed request", func(t *testing.T) {
		var body errorBody
		status := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"}, &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Validation failed", body.Error)
		assert.Contains(t, string(body.Details), `"email":"email"`)
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no token", "", "Missing bearer token"},
		{"garbage token", "not.a.jwt", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status := env.doJSON(t, http.MethodGet, "/api/initiatives", tt.token, nil, &body)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.want, body.Error)
		})
	}

	t.Run("deleted user", func(t *testing.T) {
		ghost, token := env.createUser(t, "ghost@example.com", models.RoleEditor)
		require.NoError(t, env.db.Delete(&ghost).Error)

		var body errorBody
		status := env.doJSON(t, http.MethodGet, "/api/initiatives", token, nil, &body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "User no longer exists", body.Error)
	})
}

func TestRoles(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"viewer cannot create initiatives", http.MethodPost, "/api/initiatives", env.viewerToken,
			map[string]string{"title": "x"}, http.StatusForbidden},
		{"viewer cannot import", http.MethodPost, "/api/import/preview", env.viewerToken,
			map[string]string{"text": "x"}, http.StatusForbidden},
		{"editor cannot manage config", http.MethodPost, "/api/config/items", env.editorToken,
			map[string]string{"category": "team", "value": "ops"}, http.StatusForbidden},
		{"editor cannot create users", http.MethodPost, "/api/users", env.editorToken,
			map[string]string{"email": "a@b.co", "password": "12345678"}, http.StatusForbidden},
		{"viewer can read", http.MethodGet, "/api/initiatives", env.viewerToken, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, status, "body: %s", body)
		})
	}
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)

	var created models.User
	status := env.doJSON(t, http.MethodPost, "/api/users", env.adminToken, map[string]string{
		"email":    "New.Person@Example.com",
		"name":     "New Person",
		"password": "long-enough-pw",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "new.person@example.com", created.Email)
	assert.Equal(t, models.RoleViewer, created.Role)

	t.Run("duplicate email", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/users", env.adminToken, map[string]string{
			"email":    "new.person@example.com",
			"password": "long-enough-pw",
		})
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("short password", func(t *testing.T) {
		var body errorBody
		status := env.doJSON(t, http.MethodPost, "/api/users", env.adminToken, map[string]string{
			"email":    "short@example.com",
			"password": "short",
		}, &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body.Error, "at least 8")
	})

	t.Run("list is paginated", func(t *testing.T) {
		var list listBody[models.User]
		status := env.doJSON(t, http.MethodGet, "/api/users?skip=1&limit=2", env.viewerToken, nil, &list)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(4), list.Total)
		require.Len(t, list.Items, 2)
		assert.Equal(t, env.editor.ID, list.Items[0].ID)
	})

	t.Run("update role", func(t *testing.T) {
		var resp updateBody[models.User]
		status := env.doJSON(t, http.MethodPut, "/api/users/"+itoa(created.ID), env.adminToken,
			map[string]string{"role": "editor"}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)
		assert.Equal(t, models.RoleEditor, resp.Data.Role)
		assert.Equal(t, "New Person", resp.Data.Name)
	})

	t.Run("admin cannot delete self", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, "/api/users/"+itoa(env.admin.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, "/api/users/"+itoa(created.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = env.do(t, http.MethodGet, "/api/users/"+itoa(created.ID), env.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	assert.Contains(t, env.sink.types(), "initiativehub.user.created")
	assert.Contains(t, env.sink.types(), "initiativehub.user.deleted")
}
