package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var payload struct {
		Start  *Date `json:"start"`
		Target *Date `json:"target"`
		Due    *Date `json:"due"`
	}
	err := json.Unmarshal([]byte(`{"start":"2026-03-01","target":"2026-06-30T15:04:05Z","due":null}`), &payload)
	require.NoError(t, err)

	require.NotNil(t, payload.Start)
	assert.Equal(t, "2026-03-01", payload.Start.String())
	assert.Equal(t, "2026-06-30", payload.Target.String())
	assert.Nil(t, payload.Due)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2026-03-01","target":"2026-06-30","due":null}`, string(out))
}

func TestDateRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &d))
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"time", time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), "2025-12-31"},
		{"string with time", "2025-01-02 00:00:00+00:00", "2025-01-02"},
		{"bytes", []byte("2024-02-29"), "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.in))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
}

func TestInitiativeOverdue(t *testing.T) {
	today := NewDate(2026, 5, 10)
	past := NewDate(2026, 5, 1)
	future := NewDate(2026, 6, 1)

	assert.True(t, Initiative{TargetDate: &past, Status: "in_progress"}.Overdue(today))
	assert.False(t, Initiative{TargetDate: &past, Status: StatusCompleted}.Overdue(today))
	assert.False(t, Initiative{TargetDate: &future}.Overdue(today))
	assert.False(t, Initiative{}.Overdue(today))
}
