package fieldrules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"initiativehub/models"
)

func fieldConfigs(required ...string) []models.FieldConfiguration {
	var out []models.FieldConfiguration
	for _, name := range required {
		out = append(out, models.FieldConfiguration{Entity: models.EntityInitiative, FieldName: name, Required: true})
	}
	// optional and foreign entries must be ignored
	out = append(out,
		models.FieldConfiguration{Entity: models.EntityInitiative, FieldName: "notes"},
		models.FieldConfiguration{Entity: "other", FieldName: "owner", Required: true},
		models.FieldConfiguration{Entity: models.EntityInitiative, FieldName: "no_such_field", Required: true},
	)
	return out
}

func TestCompile(t *testing.T) {
	rules, err := Compile(models.EntityInitiative, fieldConfigs("title", "team", "target_date"))
	require.NoError(t, err)
	assert.Equal(t, []string{"target_date", "team", "title"}, rules.Required())
}

func TestValidate(t *testing.T) {
	rules, err := Compile(models.EntityInitiative, fieldConfigs("title", "team", "target_date", "tags"))
	require.NoError(t, err)

	target := models.NewDate(2026, 9, 30)

	t.Run("complete record passes", func(t *testing.T) {
		err := rules.Validate(models.Initiative{
			Title:      "Consolidate data centers",
			Team:       "infra",
			TargetDate: &target,
			Tags:       []string{"cost"},
			Budget:     decimal.NewFromInt(100),
		})
		assert.NoError(t, err)
	})

	t.Run("empty values are reported", func(t *testing.T) {
		err := rules.Validate(models.Initiative{Title: "Only a title"})
		var missing *MissingFieldsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"tags", "target_date", "team"}, missing.Fields)
		assert.Contains(t, err.Error(), "target_date")
	})

	t.Run("absent keys are reported", func(t *testing.T) {
		err := rules.Validate(map[string]interface{}{"title": "x", "team": "ops", "tags": []string{"a"}})
		var missing *MissingFieldsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"target_date"}, missing.Fields)
	})
}

func TestValidateNumericFields(t *testing.T) {
	rules, err := Compile(models.EntityInitiative, fieldConfigs("progress", "budget"))
	require.NoError(t, err)

	err = rules.Validate(models.Initiative{Title: "Nothing measured yet"})
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"budget", "progress"}, missing.Fields)

	err = rules.Validate(models.Initiative{Title: "Half funded", Progress: 10, Budget: decimal.RequireFromString("0.00")})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"budget"}, missing.Fields)

	assert.NoError(t, rules.Validate(models.Initiative{Title: "Underway", Progress: 35, Budget: decimal.NewFromInt(5000)}))
}

func TestNoRequirements(t *testing.T) {
	rules, err := Compile(models.EntityInitiative, nil)
	require.NoError(t, err)
	assert.NoError(t, rules.Validate(models.Initiative{}))
}
