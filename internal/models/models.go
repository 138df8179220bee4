package models

// RiskLevel is the qualitative classification attached to a choice.
// Informational only: it never changes how a choice is submitted.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether the level is one of the three known values.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Identity describes the logged-in (or guest) user. Immutable for the
// process lifetime; replaced only through login/logout.
type Identity struct {
	ID          int    `json:"id"`
	DisplayName string `json:"username"`
	Guest       bool   `json:"guest,omitempty"`
}

// GuestIdentity returns the anonymous fallback identity used when the
// player skips authentication.
func GuestIdentity() *Identity {
	return &Identity{ID: 0, DisplayName: "Invité", Guest: true}
}

// TerritorySelection is the (name, code) pair produced by picking a
// territory on the map surface. Ephemeral: it only exists between the
// pick and session creation.
type TerritorySelection struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Stats holds the five headline magnitudes of a session. Stability and
// Diplomacy are percentages; the rest are raw magnitudes. Values are
// stored as the server sent them, without client-side clamping.
type Stats struct {
	Gold       int64 `json:"gold"`
	Stability  int64 `json:"stability"`
	Army       int64 `json:"army"`
	Population int64 `json:"population"`
	Diplomacy  int64 `json:"diplomacy"`
}

// Choice is one selectable option within the current turn. Index is the
// stable 0-based ordinal the server expects back on submission.
type Choice struct {
	Index int       `json:"index"`
	Text  string    `json:"text"`
	Risk  RiskLevel `json:"risk_level"`
}

// SessionSnapshot is the authoritative in-memory state of one playthrough.
// It is replaced wholesale on every successful turn and never partially
// mutated, so a consumer can never observe a half-updated session.
type SessionSnapshot struct {
	SessionID   int64    `json:"game_id"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code,omitempty"`
	CurrentDate string   `json:"current_date"`
	Stats       Stats    `json:"stats"`
	Narrative   string   `json:"narrative"`
	Choices     []Choice `json:"choices"`
}

// HasChoice reports whether idx is a submittable choice ordinal for this
// snapshot.
func (s *SessionSnapshot) HasChoice(idx int) bool {
	return idx >= 0 && idx < len(s.Choices)
}

// SessionSummary is the read-only projection used by the load-game picker.
// It is never merged into a SessionSnapshot.
type SessionSummary struct {
	ID          int64  `json:"id"`
	Country     string `json:"country"`
	CurrentDate string `json:"current_date"`
	CreatedAt   string `json:"created_at"`
}

// HealthStatus is the result of probing the narrative backend. Probing
// never fails outward: transport errors are coerced into Available=false.
type HealthStatus struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}
