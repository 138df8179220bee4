package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-history-client/internal/models"
	"stream-history-client/internal/selection"
)

func TestValidateStart(t *testing.T) {
	france := &models.TerritorySelection{Name: "France", Code: "FRA"}

	t.Run("Valid selection and year", func(t *testing.T) {
		params, err := selection.ValidateStart(france, "1789")
		require.NoError(t, err)
		assert.Equal(t, selection.StartParams{Country: "France", Code: "FRA", Year: 1789}, params)
	})

	t.Run("Negative years are supported", func(t *testing.T) {
		params, err := selection.ValidateStart(france, "-500")
		require.NoError(t, err)
		assert.Equal(t, -500, params.Year)
	})

	t.Run("Bounds are inclusive", func(t *testing.T) {
		_, err := selection.ValidateStart(france, "-3000")
		assert.NoError(t, err)
		_, err = selection.ValidateStart(france, "2100")
		assert.NoError(t, err)
	})

	t.Run("Missing territory", func(t *testing.T) {
		_, err := selection.ValidateStart(nil, "1789")
		assert.ErrorIs(t, err, selection.ErrNoTerritory)
	})

	t.Run("Year out of range", func(t *testing.T) {
		for _, input := range []string{"9999", "-3001", "2101"} {
			_, err := selection.ValidateStart(france, input)
			var vErr *selection.ValidationError
			assert.ErrorAs(t, err, &vErr, "input %q", input)
		}
	})

	t.Run("Year must parse as an integer", func(t *testing.T) {
		for _, input := range []string{"", "abc", "17.89", "l'an mil"} {
			_, err := selection.ValidateStart(france, input)
			var vErr *selection.ValidationError
			assert.ErrorAs(t, err, &vErr, "input %q", input)
		}
	})

	t.Run("Surrounding whitespace is tolerated", func(t *testing.T) {
		params, err := selection.ValidateStart(france, " 1805 ")
		require.NoError(t, err)
		assert.Equal(t, 1805, params.Year)
	})
}

func TestNormalizeFeature(t *testing.T) {
	t.Run("Prefers ADMIN and ISO_A3", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{
			"ADMIN":  "France",
			"name":   "république française",
			"ISO_A3": "FRA",
			"ISO_A2": "FR",
		})
		assert.Equal(t, models.TerritorySelection{Name: "France", Code: "FRA"}, sel)
	})

	t.Run("ISO_A3 placeholder -99 is skipped", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{
			"ADMIN":  "Norway",
			"ISO_A3": "-99",
			"ISO_A2": "NO",
		})
		assert.Equal(t, "NO", sel.Code)
	})

	t.Run("Lower-case property variants", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{
			"name":   "Japan",
			"iso_a3": "JPN",
		})
		assert.Equal(t, models.TerritorySelection{Name: "Japan", Code: "JPN"}, sel)
	})

	t.Run("Code derived from name when no ISO attribute exists", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{
			"sovereignt": "Prussia",
		})
		assert.Equal(t, models.TerritorySelection{Name: "Prussia", Code: "PRU"}, sel)
	})

	t.Run("Unknown feature", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{})
		assert.Equal(t, "Unknown", sel.Name)
		assert.Equal(t, "UNK", sel.Code)
	})

	t.Run("Non-string properties are ignored", func(t *testing.T) {
		sel := selection.NormalizeFeature(map[string]interface{}{
			"ADMIN":  "Egypt",
			"ISO_A3": 818,
			"ISO_A2": "EG",
		})
		assert.Equal(t, "EG", sel.Code)
	})
}
