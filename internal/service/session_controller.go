package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"stream-history-client/internal/clients"
	"stream-history-client/internal/models"
	"stream-history-client/internal/selection"
)

// GamePhase is the controller's lifecycle phase.
type GamePhase string

const (
	PhaseUnauthenticated GamePhase = "unauthenticated"
	PhaseMenu            GamePhase = "menu"
	PhaseSetup           GamePhase = "setup"
	PhasePlaying         GamePhase = "playing"
)

// CredentialStore persists the identity and its opaque token between
// runs. Cleared in full on logout.
type CredentialStore interface {
	Save(identity *models.Identity, token string) error
	Load() (*models.Identity, string, error)
	Clear() error
}

// SessionController owns the authoritative session snapshot and mediates
// every mutation. It is the phase state machine of the client:
//
//	unauthenticated -> menu -> setup -> playing
//
// with explicit back-transitions to menu and logout back to
// unauthenticated. The turn pipeline (start, submit, load) is totally
// ordered by a single busy flag: while a turn is in flight, new triggers
// are rejected synchronously rather than queued, so the snapshot a
// consumer observes always corresponds to the most recently accepted
// request.
type SessionController struct {
	gateway clients.SessionGateway
	creds   CredentialStore
	logger  *zap.Logger

	mu       sync.Mutex
	phase    GamePhase
	identity *models.Identity
	pending  *models.TerritorySelection
	snapshot *models.SessionSnapshot
	busy     bool
	errMsg   string

	// gen invalidates in-flight turn results: Logout, BackToMenu and
	// NewGame bump it, and a completing pipeline call discards its
	// result when the value no longer matches the one it captured.
	gen uint64
}

// NewSessionController creates a controller in the unauthenticated phase.
func NewSessionController(gateway clients.SessionGateway, creds CredentialStore, logger *zap.Logger) *SessionController {
	return &SessionController{
		gateway: gateway,
		creds:   creds,
		logger:  logger.Named("SessionController"),
		phase:   PhaseUnauthenticated,
	}
}

// --- Accessors (all return copies; the internal state is never exposed) ---

// Phase returns the current lifecycle phase.
func (c *SessionController) Phase() GamePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Identity returns the current identity, or nil before login.
func (c *SessionController) Identity() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// Selection returns the pending territory selection, or nil.
func (c *SessionController) Selection() *models.TerritorySelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	sel := *c.pending
	return &sel
}

// Snapshot returns a copy of the current session snapshot, or nil when no
// session is live. The copy owns its own choice slice, so a later turn
// can never mutate what a consumer already holds.
func (c *SessionController) Snapshot() *models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySnapshot(c.snapshot)
}

// Busy reports whether a turn-pipeline operation is in flight.
func (c *SessionController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// ErrorMessage returns the surfaced error, or "" when the slot is clear.
func (c *SessionController) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// DismissError clears the error slot.
func (c *SessionController) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// --- Identity transitions ---

// Restore loads a persisted identity, if any, and moves to the menu.
// Called once at startup; a missing or unreadable credential simply
// leaves the controller unauthenticated.
func (c *SessionController) Restore() bool {
	identity, _, err := c.creds.Load()
	if err != nil || identity == nil {
		return false
	}
	c.mu.Lock()
	c.identity = identity
	c.phase = PhaseMenu
	c.mu.Unlock()
	c.logger.Info("Restored persisted identity", zap.String("username", identity.DisplayName))
	return true
}

// Login authenticates against the backend, persists the credential, and
// moves to the menu.
func (c *SessionController) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, username, password, c.gateway.Login)
}

// Register creates an account, persists the credential, and moves to the
// menu.
func (c *SessionController) Register(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, username, password, c.gateway.Register)
}

func (c *SessionController) authenticate(ctx context.Context, username, password string,
	call func(context.Context, string, string) (*models.Identity, string, error)) error {

	identity, token, err := call(ctx, username, password)
	if err != nil {
		c.logger.Warn("Authentication failed", zap.String("username", username), zap.Error(err))
		return errors.New(humanize(err))
	}

	if saveErr := c.creds.Save(identity, token); saveErr != nil {
		// Not fatal: the session works, it just won't survive a restart.
		c.logger.Warn("Failed to persist credentials", zap.Error(saveErr))
	}

	c.mu.Lock()
	c.identity = identity
	c.phase = PhaseMenu
	c.errMsg = ""
	c.mu.Unlock()
	c.logger.Info("Logged in", zap.String("username", identity.DisplayName))
	return nil
}

// ContinueAsGuest skips authentication with the anonymous identity.
func (c *SessionController) ContinueAsGuest() {
	c.mu.Lock()
	c.identity = models.GuestIdentity()
	c.phase = PhaseMenu
	c.errMsg = ""
	c.mu.Unlock()
	c.logger.Info("Continuing as guest")
}

// Logout clears the identity, the persisted credential, and any live
// session, returning to the unauthenticated phase. A later login starts
// from a clean slate: the previous snapshot is not resurrected.
func (c *SessionController) Logout() {
	if err := c.creds.Clear(); err != nil {
		c.logger.Warn("Failed to clear persisted credentials", zap.Error(err))
	}
	c.mu.Lock()
	c.identity = nil
	c.snapshot = nil
	c.pending = nil
	c.errMsg = ""
	c.phase = PhaseUnauthenticated
	c.gen++
	c.mu.Unlock()
	c.logger.Info("Logged out")
}

// --- Menu / setup transitions ---

// NewGame moves to the setup phase, discarding any previous selection and
// snapshot.
func (c *SessionController) NewGame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return ErrNotAuthenticated
	}
	c.phase = PhaseSetup
	c.pending = nil
	c.snapshot = nil
	c.errMsg = ""
	c.gen++
	return nil
}

// PickTerritory records the pending territory selection. Only meaningful
// during setup; picking again replaces the previous pick.
func (c *SessionController) PickTerritory(sel models.TerritorySelection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseSetup {
		return ErrWrongPhase
	}
	picked := sel
	c.pending = &picked
	c.errMsg = ""
	c.logger.Debug("Territory picked", zap.String("territory", selection.Describe(sel)))
	return nil
}

// BackToMenu abandons the current setup or playthrough. The server-side
// session survives; only the client snapshot is dropped.
func (c *SessionController) BackToMenu() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return ErrNotAuthenticated
	}
	c.phase = PhaseMenu
	c.snapshot = nil
	c.pending = nil
	c.errMsg = ""
	c.gen++
	return nil
}

// --- Turn pipeline (guarded by the busy flag) ---

// StartGame validates the pending selection and year, then creates a
// session. On success the controller enters the playing phase holding the
// new snapshot; on gateway failure it stays in setup with the error
// surfaced. Validation errors are returned to the caller directly and
// never reach the network or the error slot.
func (c *SessionController) StartGame(ctx context.Context, yearInput string) error {
	c.mu.Lock()
	if c.phase != PhaseSetup {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	if c.busy {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	params, err := selection.ValidateStart(c.pending, yearInput)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()

	snap, err := c.gateway.StartSession(ctx, params.Country, params.Code, params.Year)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.gen != gen {
		c.logger.Info("Discarding superseded session start", zap.String("country", params.Country))
		return ErrSuperseded
	}
	if err != nil {
		c.errMsg = humanize(err)
		c.logger.Warn("Failed to start session", zap.String("country", params.Country), zap.Error(err))
		return err
	}
	c.snapshot = snap
	c.pending = nil
	c.phase = PhasePlaying
	c.logger.Info("Session started",
		zap.Int64("session_id", snap.SessionID),
		zap.String("country", snap.Country),
		zap.String("current_date", snap.CurrentDate))
	return nil
}

// Submit forwards the chosen option index and replaces the snapshot
// wholesale on success. An index outside the current snapshot's choices
// is rejected before any request is dispatched.
func (c *SessionController) Submit(ctx context.Context, choiceIndex int) error {
	c.mu.Lock()
	if c.phase != PhasePlaying || c.snapshot == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.busy {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	if !c.snapshot.HasChoice(choiceIndex) {
		c.mu.Unlock()
		return ErrChoiceOutOfRange
	}
	sessionID := c.snapshot.SessionID
	c.busy = true
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()

	snap, err := c.gateway.SubmitChoice(ctx, sessionID, choiceIndex)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.gen != gen {
		c.logger.Info("Discarding superseded turn result", zap.Int64("session_id", sessionID))
		return ErrSuperseded
	}
	if err != nil {
		c.errMsg = humanize(err)
		c.logger.Warn("Turn submission failed", zap.Int64("session_id", sessionID), zap.Error(err))
		return err
	}
	c.snapshot = snap
	c.logger.Info("Turn applied",
		zap.Int64("session_id", snap.SessionID),
		zap.String("current_date", snap.CurrentDate),
		zap.Int("choices", len(snap.Choices)))
	return nil
}

// LoadGame fetches a saved session and enters the playing phase. On
// failure the controller stays in the menu with the error surfaced.
func (c *SessionController) LoadGame(ctx context.Context, sessionID int64) error {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.busy {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.busy = true
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()

	snap, err := c.gateway.GetSession(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.gen != gen {
		c.logger.Info("Discarding superseded session load", zap.Int64("session_id", sessionID))
		return ErrSuperseded
	}
	if err != nil {
		c.errMsg = humanize(err)
		c.logger.Warn("Failed to load session", zap.Int64("session_id", sessionID), zap.Error(err))
		return err
	}
	c.snapshot = snap
	c.phase = PhasePlaying
	c.logger.Info("Session loaded", zap.Int64("session_id", snap.SessionID))
	return nil
}

// --- Best-effort menu operations (outside the turn pipeline) ---

// ListSavedGames returns the saved-game summaries; empty on any failure.
func (c *SessionController) ListSavedGames(ctx context.Context) []models.SessionSummary {
	return c.gateway.ListSessions(ctx)
}

// DeleteSavedGame removes a saved game. The caller decides whether to
// refresh the listing.
func (c *SessionController) DeleteSavedGame(ctx context.Context, sessionID int64) bool {
	return c.gateway.DeleteSession(ctx, sessionID)
}

// ProbeBackend reports whether the narrative backend is reachable.
func (c *SessionController) ProbeBackend(ctx context.Context) models.HealthStatus {
	return c.gateway.ProbeNarrativeBackend(ctx)
}

// --- Helpers ---

func copySnapshot(s *models.SessionSnapshot) *models.SessionSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Choices = make([]models.Choice, len(s.Choices))
	copy(out.Choices, s.Choices)
	return &out
}

// humanize maps gateway failures to the message shown in the error slot.
// The backend speaks French, so the generic fallbacks do too.
func humanize(err error) string {
	var serverErr *clients.ServerError
	switch {
	case errors.Is(err, clients.ErrSessionNotFound):
		return "Impossible de charger la partie"
	case errors.As(err, &serverErr):
		return serverErr.Detail
	default:
		return "Erreur de connexion au serveur"
	}
}
