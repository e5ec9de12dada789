package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-15", "2026-03-15"},
		{"2026/3/5", "2026-03-05"},
		{"3/15/2026", "2026-03-15"},
		{"03/05/2026", "2026-03-05"},
		{"12-31-2025", "2025-12-31"},
		{"1-2-2026", "2026-01-02"},
		{"3/15/26", "2026-03-15"},
		{"1/2/46", "2046-01-02"},
		{"1/2/47", "1947-01-02"},
		{"7-4-99", "1999-07-04"},
		{"Jan 5, 2026", "2026-01-05"},
		{"January 5 2026", "2026-01-05"},
		{"5 Jan 2026", "2026-01-05"},
		{"March 1st, 2026", "2026-03-01"},
		{"jan 2027", "2027-01-01"},
		{"Q1 2026", "2026-03-31"},
		{"q4 26", "2026-12-31"},
		{"2027 Q2", "2027-06-30"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	for _, bad := range []string{"", "soon", "2/30/26", "13/1/26", "Q5 2026"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseDate(bad, now)
			assert.Error(t, err)
		})
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		clamped bool
	}{
		{"45", 45, false},
		{"45%", 45, false},
		{" 62.5 % ", 63, false},
		{"0.45", 45, false},
		{"1", 1, false},
		{"1.0", 100, false},
		{"0.5%", 1, false},
		{"140", 100, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, clamped, err := ParseProgress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}

	_, _, err := ParseProgress("half")
	assert.Error(t, err)
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,250,000", "1250000"},
		{"1.2M", "1200000"},
		{"500k", "500000"},
		{"€ 75,000.50", "75000.5"},
		{"2b", "2000000000"},
		{"(1,000)", "-1000"},
		{"1200 USD", "1200"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBudget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseBudget("lots")
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"cloud", "Cost", "q3"}, ParseTags("cloud; Cost, q3;;cost"))
	assert.Nil(t, ParseTags("  "))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "in_progress", Slug(" In Progress "))
	assert.Equal(t, "on_hold", Slug("On-Hold"))
	assert.Equal(t, "r_d_platform", Slug("R&D / Platform"))
	assert.Equal(t, "", Slug("--"))
}
