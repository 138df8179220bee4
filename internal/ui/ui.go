package ui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"stream-history-client/internal/models"
	"stream-history-client/internal/narration"
	"stream-history-client/internal/selection"
	"stream-history-client/internal/service"
)

// territoryFeatures stands in for the map widget: the property bags of
// the selectable territories, in the same loose shape a GeoJSON dataset
// carries, normalized through the selection adapter on pick.
var territoryFeatures = []map[string]interface{}{
	{"ADMIN": "France", "ISO_A3": "FRA"},
	{"ADMIN": "United Kingdom", "ISO_A3": "GBR"},
	{"ADMIN": "Germany", "ISO_A3": "DEU"},
	{"ADMIN": "Spain", "ISO_A3": "ESP"},
	{"ADMIN": "Italy", "ISO_A3": "ITA"},
	{"ADMIN": "Russia", "ISO_A3": "RUS"},
	{"ADMIN": "United States of America", "ISO_A3": "USA"},
	{"ADMIN": "China", "ISO_A3": "CHN"},
	{"ADMIN": "Japan", "ISO_A3": "JPN"},
	{"ADMIN": "Brazil", "ISO_A3": "BRA"},
	{"ADMIN": "Egypt", "ISO_A3": "EGY"},
	{"ADMIN": "Turkey", "ISO_A3": "TUR"},
	{"ADMIN": "India", "ISO_A3": "IND"},
	{"ADMIN": "Mexico", "ISO_A3": "MEX"},
	{"ADMIN": "Sweden", "ISO_A3": "SWE"},
}

// eraPresets are the labelled starting years offered on the setup screen.
var eraPresets = []struct {
	Label string
	Year  int
}{
	{"Antiquité", -500},
	{"Empire Romain", 100},
	{"Moyen Âge", 1200},
	{"Renaissance", 1500},
	{"Révolution", 1789},
	{"Ère Napoléon", 1805},
	{"Belle Époque", 1900},
	{"Entre-deux-guerres", 1930},
	{"Guerre Froide", 1960},
	{"Moderne", 2000},
}

// --- Messages ---

type authResultMsg struct{ err error }

type turnResultMsg struct{ err error }

type savedGamesMsg struct{ games []models.SessionSummary }

type healthMsg struct{ status models.HealthStatus }

type narrationDoneMsg struct {
	pb      *narration.Playback
	outcome narration.Outcome
}

type deleteResultMsg struct{ ok bool }

// authField identifies the focused input on the auth screen.
type authField int

const (
	fieldUsername authField = iota
	fieldPassword
)

// Model is the bubbletea model driving the whole client. It renders the
// controller's state and translates keys into controller operations; it
// holds no game state of its own beyond input buffers and cursors.
type Model struct {
	ctx        context.Context
	controller *service.SessionController
	player     *narration.Player
	logger     *zap.Logger

	width  int
	height int

	// auth screen
	username    string
	password    string
	focused     authField
	registering bool
	authErr     string

	// menu screen
	saved      []models.SessionSummary
	menuCursor int
	menuNote   string
	health     *models.HealthStatus

	// setup screen
	territoryCursor int
	yearInput       string
	setupErr        string

	// playing screen
	narrating     bool
	playback      *narration.Playback
	narrationNote string
}

// New creates the UI model.
func New(ctx context.Context, controller *service.SessionController, player *narration.Player, logger *zap.Logger) Model {
	return Model{
		ctx:        ctx,
		controller: controller,
		player:     player,
		logger:     logger.Named("UI"),
		yearInput:  "1800",
	}
}

// Init probes the backend and fetches the saved games list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.probeCmd(), m.listCmd())
}

// --- Commands ---

func (m Model) probeCmd() tea.Cmd {
	return func() tea.Msg {
		return healthMsg{status: m.controller.ProbeBackend(m.ctx)}
	}
}

func (m Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		return savedGamesMsg{games: m.controller.ListSavedGames(m.ctx)}
	}
}

func (m Model) loginCmd(username, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		if register {
			return authResultMsg{err: m.controller.Register(m.ctx, username, password)}
		}
		return authResultMsg{err: m.controller.Login(m.ctx, username, password)}
	}
}

func (m Model) startCmd(yearInput string) tea.Cmd {
	return func() tea.Msg {
		return turnResultMsg{err: m.controller.StartGame(m.ctx, yearInput)}
	}
}

func (m Model) submitCmd(idx int) tea.Cmd {
	return func() tea.Msg {
		return turnResultMsg{err: m.controller.Submit(m.ctx, idx)}
	}
}

func (m Model) loadCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return turnResultMsg{err: m.controller.LoadGame(m.ctx, id)}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return deleteResultMsg{ok: m.controller.DeleteSavedGame(m.ctx, id)}
	}
}

func watchNarration(pb *narration.Playback) tea.Cmd {
	return func() tea.Msg {
		<-pb.Done()
		return narrationDoneMsg{pb: pb, outcome: pb.Outcome()}
	}
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case healthMsg:
		status := msg.status
		m.health = &status
		return m, nil

	case savedGamesMsg:
		m.saved = msg.games
		if m.menuCursor >= len(m.saved) {
			m.menuCursor = 0
		}
		return m, nil

	case authResultMsg:
		if msg.err != nil {
			m.authErr = msg.err.Error()
			return m, nil
		}
		m.authErr = ""
		m.password = ""
		return m, m.listCmd()

	case turnResultMsg:
		// The controller already holds the authoritative outcome; the
		// error slot and phase tell the view everything it needs.
		return m, nil

	case deleteResultMsg:
		if !msg.ok {
			m.menuNote = "Impossible de supprimer la partie"
			return m, nil
		}
		m.menuNote = ""
		return m, m.listCmd()

	case narrationDoneMsg:
		// Settlements from handles that were toggled away are ignored;
		// only the current playback drives the indicator.
		if msg.pb != m.playback {
			return m, nil
		}
		m.narrating = false
		m.playback = nil
		if msg.outcome == narration.OutcomeSilent {
			m.narrationNote = "Narration indisponible"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.player.Stop()
		return m, tea.Quit
	}

	switch m.controller.Phase() {
	case service.PhaseUnauthenticated:
		return m.updateAuth(msg)
	case service.PhaseMenu:
		return m.updateMenu(msg)
	case service.PhaseSetup:
		return m.updateSetup(msg)
	case service.PhasePlaying:
		return m.updatePlaying(msg)
	}
	return m, nil
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "up":
		if m.focused == fieldUsername {
			m.focused = fieldPassword
		} else {
			m.focused = fieldUsername
		}
	case "ctrl+r":
		m.registering = !m.registering
	case "ctrl+g":
		m.controller.ContinueAsGuest()
		return m, m.listCmd()
	case "enter":
		if m.username == "" || m.password == "" {
			m.authErr = "Nom d'utilisateur et mot de passe requis"
			return m, nil
		}
		return m, m.loginCmd(m.username, m.password, m.registering)
	case "backspace":
		if m.focused == fieldUsername {
			m.username = trimLast(m.username)
		} else {
			m.password = trimLast(m.password)
		}
	default:
		if len(msg.Runes) > 0 {
			if m.focused == fieldUsername {
				m.username += string(msg.Runes)
			} else {
				m.password += string(msg.Runes)
			}
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.player.Stop()
		return m, tea.Quit
	case "n":
		if err := m.controller.NewGame(); err == nil {
			m.territoryCursor = 0
			m.yearInput = "1800"
			m.setupErr = ""
		}
	case "r":
		return m, m.listCmd()
	case "l":
		m.controller.Logout()
		m.username = ""
		m.password = ""
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(m.saved)-1 {
			m.menuCursor++
		}
	case "d":
		if m.menuCursor < len(m.saved) {
			return m, m.deleteCmd(m.saved[m.menuCursor].ID)
		}
	case "enter":
		if m.menuCursor < len(m.saved) {
			return m, m.loadCmd(m.saved[m.menuCursor].ID)
		}
	}
	return m, nil
}

func (m Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.controller.BackToMenu()
		return m, m.listCmd()
	case "up", "k":
		if m.territoryCursor > 0 {
			m.territoryCursor--
		}
	case "down", "j":
		if m.territoryCursor < len(territoryFeatures)-1 {
			m.territoryCursor++
		}
	case " ":
		sel := selection.NormalizeFeature(territoryFeatures[m.territoryCursor])
		m.controller.PickTerritory(sel)
		m.setupErr = ""
	case "backspace":
		m.yearInput = trimLast(m.yearInput)
	case "enter":
		if m.controller.Busy() {
			return m, nil
		}
		// Validation failures stay local to the setup form.
		if m.controller.Selection() == nil {
			m.setupErr = "Choisissez d'abord un territoire"
			return m, nil
		}
		if _, err := selection.ValidateStart(m.controller.Selection(), m.yearInput); err != nil {
			m.setupErr = err.Error()
			return m, nil
		}
		m.setupErr = ""
		return m, m.startCmd(m.yearInput)
	case "left":
		m.yearInput = strconv.Itoa(m.nearestPreset(-1))
	case "right":
		m.yearInput = strconv.Itoa(m.nearestPreset(1))
	default:
		if len(msg.Runes) == 1 {
			r := msg.Runes[0]
			if (r >= '0' && r <= '9') || (r == '-' && m.yearInput == "") {
				m.yearInput += string(r)
			}
		}
	}
	return m, nil
}

// nearestPreset walks the era presets relative to the current year input.
func (m Model) nearestPreset(dir int) int {
	current, err := strconv.Atoi(strings.TrimSpace(m.yearInput))
	if err != nil {
		return eraPresets[0].Year
	}
	if dir > 0 {
		for _, p := range eraPresets {
			if p.Year > current {
				return p.Year
			}
		}
		return eraPresets[len(eraPresets)-1].Year
	}
	for i := len(eraPresets) - 1; i >= 0; i-- {
		if eraPresets[i].Year < current {
			return eraPresets[i].Year
		}
	}
	return eraPresets[0].Year
}

func (m Model) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc", "m":
		m.player.Stop()
		m.narrating = false
		m.playback = nil
		m.controller.BackToMenu()
		return m, m.listCmd()
	case "t":
		snap := m.controller.Snapshot()
		if snap == nil {
			return m, nil
		}
		m.narrationNote = ""
		pb := m.player.Toggle(m.ctx, snap.Narrative)
		if pb == nil {
			m.narrating = false
			m.playback = nil
			return m, nil
		}
		m.narrating = true
		m.playback = pb
		return m, watchNarration(pb)
	case "e":
		m.controller.DismissError()
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		snap := m.controller.Snapshot()
		if snap != nil && snap.HasChoice(idx) && !m.controller.Busy() {
			return m, m.submitCmd(idx)
		}
	}
	return m, nil
}

func trimLast(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}
