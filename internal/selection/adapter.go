package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stream-history-client/internal/models"
)

// Supported historical range for a starting year.
const (
	MinYear = -3000
	MaxYear = 2100
)

// ErrNoTerritory is returned when the player tries to start a game
// without having picked a territory.
var ErrNoTerritory = errors.New("no territory chosen")

// ValidationError marks bad user input. It is resolved locally and never
// reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StartParams is the validated triple a new session is created from.
type StartParams struct {
	Country string
	Code    string
	Year    int
}

// ValidateStart checks a pending territory selection and a raw year input
// against the supported range. Pure function: no I/O, no side effects.
func ValidateStart(sel *models.TerritorySelection, yearInput string) (StartParams, error) {
	if sel == nil || sel.Name == "" {
		return StartParams{}, ErrNoTerritory
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearInput))
	if err != nil {
		return StartParams{}, &ValidationError{Message: "Entrez une année valide (entre -3000 et 2100)"}
	}
	if year < MinYear || year > MaxYear {
		return StartParams{}, &ValidationError{Message: "Entrez une année valide (entre -3000 et 2100)"}
	}
	return StartParams{Country: sel.Name, Code: sel.Code, Year: year}, nil
}

// NormalizeFeature turns the raw property bag of a picked map feature into
// a TerritorySelection. Vector datasets disagree on property names, so the
// lookup order is fixed: ADMIN, name, NAME, sovereignt for the name;
// ISO_A3 (ignoring the "-99" placeholder), ISO_A2, iso_a3, iso_a2 for the
// code, falling back to the first three letters of the name upper-cased.
func NormalizeFeature(props map[string]interface{}) models.TerritorySelection {
	name := firstString(props, "ADMIN", "name", "NAME", "sovereignt")
	if name == "" {
		name = "Unknown"
	}

	code := firstString(props, "ISO_A3", "ISO_A2", "iso_a3", "iso_a2")
	if code == "" {
		runes := []rune(name)
		if len(runes) > 3 {
			runes = runes[:3]
		}
		code = string(runes)
	}
	code = strings.ToUpper(code)

	return models.TerritorySelection{Name: name, Code: code}
}

func firstString(props map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := props[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" || s == "-99" {
			continue
		}
		return s
	}
	return ""
}

// Describe renders a selection for logs and error messages.
func Describe(sel models.TerritorySelection) string {
	return fmt.Sprintf("%s (%s)", sel.Name, sel.Code)
}
