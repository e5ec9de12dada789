package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"initiativehub/models"
)

func TestAchievements(t *testing.T) {
	env := newTestEnv(t)
	in := createInitiative(t, env, map[string]interface{}{"title": "Data platform"})

	create := func(t *testing.T, body map[string]interface{}) models.Achievement {
		t.Helper()
		var a models.Achievement
		status, data := env.do(t, http.MethodPost, "/api/achievements", env.editorToken, body)
		require.Equal(t, http.StatusCreated, status, "body: %s", data)
		require.NoError(t, jsonUnmarshal(data, &a))
		return a
	}

	linked := create(t, map[string]interface{}{
		"title": "Warehouse live", "date": "2026-02-10", "kind": "milestone", "initiative_id": in.ID,
	})
	standalone := create(t, map[string]interface{}{"title": "Award won", "date": "2026-03-05"})
	create(t, map[string]interface{}{"title": "Old news", "date": "2025-11-20", "team": "sales"})

	assert.Equal(t, models.KindMilestone, linked.Kind)
	assert.Equal(t, models.KindAchievement, standalone.Kind)
	assert.Nil(t, standalone.InitiativeID)

	t.Run("rejects bad input", func(t *testing.T) {
		tests := []struct {
			name  string
			body  map[string]interface{}
			error string
		}{
			{"unknown initiative", map[string]interface{}{"title": "x", "date": "2026-01-01", "initiative_id": 999}, "Initiative not found"},
			{"missing date", map[string]interface{}{"title": "x"}, "Validation failed"},
			{"missing title", map[string]interface{}{"date": "2026-01-01"}, "Validation failed"},
			{"unknown kind", map[string]interface{}{"title": "x", "date": "2026-01-01", "kind": "trophy"}, "Validation failed"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var body errorBody
				status := env.doJSON(t, http.MethodPost, "/api/achievements", env.editorToken, tt.body, &body)
				assert.Equal(t, http.StatusBadRequest, status)
				assert.Equal(t, tt.error, body.Error)
			})
		}
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			query string
			want  []string
		}{
			{"", []string{"Award won", "Warehouse live", "Old news"}},
			{"?initiative_id=" + itoa(in.ID), []string{"Warehouse live"}},
			{"?standalone=true", []string{"Award won", "Old news"}},
			{"?kind=milestone", []string{"Warehouse live"}},
			{"?from=2026-01-01&to=2026-02-28", []string{"Warehouse live"}},
			{"?team=sales", []string{"Old news"}},
		}
		for _, tt := range tests {
			var list listBody[models.Achievement]
			status := env.doJSON(t, http.MethodGet, "/api/achievements"+tt.query, env.viewerToken, nil, &list)
			require.Equal(t, http.StatusOK, status, tt.query)

			titles := make([]string, len(list.Items))
			for i, a := range list.Items {
				titles[i] = a.Title
			}
			assert.Equal(t, tt.want, titles, tt.query)
		}

		status, _ := env.do(t, http.MethodGet, "/api/achievements?from=yesterday", env.viewerToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("update attaches and detaches", func(t *testing.T) {
		var resp updateBody[models.Achievement]
		status := env.doJSON(t, http.MethodPut, "/api/achievements/"+itoa(standalone.ID), env.editorToken,
			map[string]interface{}{"initiative_id": in.ID, "title": "Award won (EMEA)"}, &resp)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, resp.Data.InitiativeID)
		assert.Equal(t, in.ID, *resp.Data.InitiativeID)
		assert.Equal(t, "Award won (EMEA)", resp.Data.Title)
		assert.Equal(t, "2026-03-05", resp.Data.Date.String())

		// fields not sent are kept, including the link
		status = env.doJSON(t, http.MethodPut, "/api/achievements/"+itoa(standalone.ID), env.editorToken,
			map[string]interface{}{"description": "Press release"}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.NotNil(t, resp.Data.InitiativeID)

		status = env.doJSON(t, http.MethodPut, "/api/achievements/"+itoa(standalone.ID), env.editorToken,
			map[string]interface{}{"initiative_id": nil}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.Nil(t, resp.Data.InitiativeID)
		assert.Equal(t, "Press release", resp.Data.Description)
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, "/api/achievements/"+itoa(linked.ID), env.editorToken, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = env.do(t, http.MethodGet, "/api/achievements/"+itoa(linked.ID), env.viewerToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = env.do(t, http.MethodDelete, "/api/achievements/"+itoa(linked.ID), env.editorToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}
