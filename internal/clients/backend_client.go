package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"stream-history-client/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ SessionGateway = (*HTTPBackendClient)(nil)

// SessionGateway is the typed boundary to the simulation backend. Every
// operation returns either a normalized payload or an error value from
// the taxonomy in errors.go; nothing panics across this boundary.
type SessionGateway interface {
	StartSession(ctx context.Context, country, code string, year int) (*models.SessionSnapshot, error)
	SubmitChoice(ctx context.Context, sessionID int64, choiceIndex int) (*models.SessionSnapshot, error)
	GetSession(ctx context.Context, sessionID int64) (*models.SessionSnapshot, error)
	ListSessions(ctx context.Context) []models.SessionSummary
	DeleteSession(ctx context.Context, sessionID int64) bool
	ProbeNarrativeBackend(ctx context.Context) models.HealthStatus

	Login(ctx context.Context, username, password string) (*models.Identity, string, error)
	Register(ctx context.Context, username, password string) (*models.Identity, string, error)

	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// HTTPBackendClient talks to the simulation backend over HTTP. It holds
// no game state; it only translates between wire shapes and the strict
// model types.
type HTTPBackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPBackendClient creates a new HTTP client for the simulation backend.
func NewHTTPBackendClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPBackendClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &HTTPBackendClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("HTTPBackendClient"),
	}
}

// --- Wire shapes (loose, as the backend sends them) ---

type wireStats struct {
	Gold       int64 `json:"gold"`
	Stability  int64 `json:"stability"`
	Army       int64 `json:"army"`
	Population int64 `json:"population"`
	Diplomacy  int64 `json:"diplomacy"`
}

type wireChoice struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	RiskLevel string `json:"risk_level"`
}

type wireGameState struct {
	GameID      int64        `json:"game_id"`
	Country     string       `json:"country"`
	CountryCode string       `json:"country_code"`
	CurrentDate string       `json:"current_date"`
	Stats       wireStats    `json:"stats"`
	Narrative   string       `json:"narrative"`
	Choices     []wireChoice `json:"choices"`
}

type wireTurnResponse struct {
	Success bool           `json:"success"`
	Game    *wireGameState `json:"game"`
	Error   string         `json:"error"`
}

type wireDetail struct {
	Detail string `json:"detail"`
}

type wireAuthResponse struct {
	Success bool             `json:"success"`
	User    *models.Identity `json:"user"`
	Token   string           `json:"token"`
}

// normalizeSnapshot converts a loose wire payload into the strict model
// shape. Choice indices are re-derived positionally so the set exposed to
// the consumer is always exactly 0..n-1, and unrecognized risk levels
// default to medium. A payload without a session id is rejected.
func normalizeSnapshot(w *wireGameState) (*models.SessionSnapshot, error) {
	if w == nil {
		return nil, fmt.Errorf("backend returned no game payload")
	}
	if w.GameID <= 0 {
		return nil, fmt.Errorf("backend returned game payload without id")
	}
	snap := &models.SessionSnapshot{
		SessionID:   w.GameID,
		Country:     w.Country,
		CountryCode: w.CountryCode,
		CurrentDate: w.CurrentDate,
		Stats: models.Stats{
			Gold:       w.Stats.Gold,
			Stability:  w.Stats.Stability,
			Army:       w.Stats.Army,
			Population: w.Stats.Population,
			Diplomacy:  w.Stats.Diplomacy,
		},
		Narrative: w.Narrative,
		Choices:   make([]models.Choice, 0, len(w.Choices)),
	}
	for i, c := range w.Choices {
		risk := models.RiskLevel(strings.ToLower(c.RiskLevel))
		if !risk.Valid() {
			risk = models.RiskMedium
		}
		snap.Choices = append(snap.Choices, models.Choice{
			Index: i, // positional, regardless of what the server numbered
			Text:  c.Text,
			Risk:  risk,
		})
	}
	return snap, nil
}

// --- Request plumbing ---

func (c *HTTPBackendClient) doJSON(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &NetworkError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to create %s request: %w", method, err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// statusError drains a non-OK response into a ServerError carrying the
// backend's detail message when one is present.
func statusError(resp *http.Response) error {
	var d wireDetail
	if err := json.NewDecoder(resp.Body).Decode(&d); err == nil && d.Detail != "" {
		return &ServerError{Detail: d.Detail}
	}
	return &ServerError{Detail: fmt.Sprintf("statut HTTP %d", resp.StatusCode)}
}

// --- Turn pipeline operations ---

// StartSession creates a new game session for the given country and year.
func (c *HTTPBackendClient) StartSession(ctx context.Context, country, code string, year int) (*models.SessionSnapshot, error) {
	log := c.logger.With(zap.String("country", country), zap.Int("year", year))
	log.Debug("Starting new session")

	requestBody := struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code,omitempty"`
		Year        int    `json:"year"`
	}{Country: country, CountryCode: code, Year: year}

	resp, err := c.doJSON(ctx, http.MethodPost, "/start_game", requestBody)
	if err != nil {
		log.Warn("Start session request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Start session rejected", zap.Int("status_code", resp.StatusCode))
		return nil, statusError(resp)
	}
	return decodeTurnResponse(resp, log)
}

// SubmitChoice submits the chosen option index and returns the next
// session snapshot.
func (c *HTTPBackendClient) SubmitChoice(ctx context.Context, sessionID int64, choiceIndex int) (*models.SessionSnapshot, error) {
	log := c.logger.With(zap.Int64("session_id", sessionID), zap.Int("choice_index", choiceIndex))
	log.Debug("Submitting choice")

	requestBody := struct {
		GameID      int64 `json:"game_id"`
		ChoiceIndex int   `json:"choice_index"`
	}{GameID: sessionID, ChoiceIndex: choiceIndex}

	resp, err := c.doJSON(ctx, http.MethodPost, "/make_decision", requestBody)
	if err != nil {
		log.Warn("Submit choice request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Submit choice rejected", zap.Int("status_code", resp.StatusCode))
		return nil, statusError(resp)
	}
	return decodeTurnResponse(resp, log)
}

func decodeTurnResponse(resp *http.Response, log *zap.Logger) (*models.SessionSnapshot, error) {
	var payload wireTurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn("Failed to decode turn response", zap.Error(err))
		return nil, &NetworkError{Err: fmt.Errorf("failed to decode turn response: %w", err)}
	}
	if !payload.Success {
		detail := payload.Error
		if detail == "" {
			detail = "le serveur a refusé la requête"
		}
		return nil, &ServerError{Detail: detail}
	}
	snap, err := normalizeSnapshot(payload.Game)
	if err != nil {
		log.Warn("Turn payload failed normalization", zap.Error(err))
		return nil, &NetworkError{Err: err}
	}
	return snap, nil
}

// GetSession fetches the current state of a saved session.
// Returns ErrSessionNotFound when the backend does not know the id.
func (c *HTTPBackendClient) GetSession(ctx context.Context, sessionID int64) (*models.SessionSnapshot, error) {
	log := c.logger.With(zap.Int64("session_id", sessionID))
	log.Debug("Fetching session")

	resp, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/games/%d", sessionID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSessionNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(resp)
	}

	var payload wireGameState
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to decode session: %w", err)}
	}
	snap, err := normalizeSnapshot(&payload)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return snap, nil
}

// ListSessions returns the saved-game summaries. Listing is best-effort
// and never blocking: any failure yields an empty list. The load-game
// picker then shows "no saved games", which is a deliberate choice, not
// a swallowed bug.
func (c *HTTPBackendClient) ListSessions(ctx context.Context) []models.SessionSummary {
	resp, err := c.doJSON(ctx, http.MethodGet, "/games", nil)
	if err != nil {
		c.logger.Warn("Failed to list sessions", zap.Error(err))
		return []models.SessionSummary{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("List sessions returned non-OK status", zap.Int("status_code", resp.StatusCode))
		return []models.SessionSummary{}
	}

	var summaries []models.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		c.logger.Warn("Failed to decode session list", zap.Error(err))
		return []models.SessionSummary{}
	}
	if summaries == nil {
		summaries = []models.SessionSummary{}
	}
	return summaries
}

// DeleteSession removes a saved session. Best-effort: the caller only
// learns whether the deletion was acknowledged.
func (c *HTTPBackendClient) DeleteSession(ctx context.Context, sessionID int64) bool {
	resp, err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/games/%d", sessionID), nil)
	if err != nil {
		c.logger.Warn("Failed to delete session", zap.Int64("session_id", sessionID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ProbeNarrativeBackend checks whether the narrative generator behind the
// backend is reachable. It never fails outward: every error becomes
// Available=false with a generic message.
func (c *HTTPBackendClient) ProbeNarrativeBackend(ctx context.Context) models.HealthStatus {
	resp, err := c.doJSON(ctx, http.MethodGet, "/health/ollama", nil)
	if err != nil {
		return models.HealthStatus{Available: false, Message: "Backend not available"}
	}
	defer resp.Body.Close()

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.HealthStatus{Available: false, Message: "Backend not available"}
	}
	return models.HealthStatus{
		Available: resp.StatusCode == http.StatusOK && payload.Status == "ok",
		Message:   payload.Message,
	}
}

// --- Auth operations ---

// Login authenticates a user and returns the identity plus the opaque
// credential token.
func (c *HTTPBackendClient) Login(ctx context.Context, username, password string) (*models.Identity, string, error) {
	return c.authenticate(ctx, "/auth/login", username, password)
}

// Register creates a new account and returns the identity plus the
// opaque credential token.
func (c *HTTPBackendClient) Register(ctx context.Context, username, password string) (*models.Identity, string, error) {
	return c.authenticate(ctx, "/auth/register", username, password)
}

func (c *HTTPBackendClient) authenticate(ctx context.Context, path, username, password string) (*models.Identity, string, error) {
	requestBody := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	resp, err := c.doJSON(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError(resp)
	}

	var payload wireAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", &NetworkError{Err: fmt.Errorf("failed to decode auth response: %w", err)}
	}
	if payload.User == nil {
		return nil, "", &NetworkError{Err: fmt.Errorf("auth response carried no user")}
	}
	return payload.User, payload.Token, nil
}

// --- Narration support ---

// SynthesizeSpeech asks the backend to render text as audio and returns
// the raw payload (WAV). This is the narration player's primary path;
// failures here are the player's cue to fall back to the local voice.
func (c *HTTPBackendClient) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	requestBody := struct {
		Text string `json:"text"`
	}{Text: text}

	resp, err := c.doJSON(ctx, http.MethodPost, "/tts", requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to read audio payload: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &NetworkError{Err: fmt.Errorf("backend returned empty audio payload")}
	}
	return audio, nil
}
