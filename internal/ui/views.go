package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"stream-history-client/internal/models"
	"stream-history-client/internal/service"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	riskStyles = map[models.RiskLevel]lipgloss.Style{
		models.RiskLow:    okStyle,
		models.RiskMedium: warnStyle,
		models.RiskHigh:   errorStyle,
	}
)

// View renders the screen for the controller's current phase.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.controller.Phase() {
	case service.PhaseUnauthenticated:
		b.WriteString(m.viewAuth())
	case service.PhaseMenu:
		b.WriteString(m.viewMenu())
	case service.PhaseSetup:
		b.WriteString(m.viewSetup())
	case service.PhasePlaying:
		b.WriteString(m.viewPlaying())
	}
	return b.String()
}

func (m Model) header() string {
	parts := []string{titleStyle.Render("🌍 STREAM History"), subtleStyle.Render("Simulation Géopolitique")}

	if m.health != nil {
		if m.health.Available {
			parts = append(parts, okStyle.Render("● IA Active"))
		} else {
			parts = append(parts, errorStyle.Render("● IA Hors ligne"))
		}
	}
	if id := m.controller.Identity(); id != nil {
		parts = append(parts, subtleStyle.Render("👤 "+id.DisplayName))
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewAuth() string {
	var b strings.Builder
	if m.registering {
		b.WriteString(titleStyle.Render("Créer un compte"))
	} else {
		b.WriteString(titleStyle.Render("Connexion"))
	}
	b.WriteString("\n\n")

	b.WriteString(field("Nom d'utilisateur", m.username, m.focused == fieldUsername))
	b.WriteString("\n")
	b.WriteString(field("Mot de passe", strings.Repeat("•", len([]rune(m.password))), m.focused == fieldPassword))
	b.WriteString("\n\n")

	if m.authErr != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.authErr))
		b.WriteString("\n\n")
	}
	b.WriteString(subtleStyle.Render("enter: valider • tab: champ suivant • ctrl+r: connexion/inscription • ctrl+g: continuer en invité • ctrl+c: quitter"))
	return b.String()
}

func field(label, value string, focused bool) string {
	marker := "  "
	if focused {
		marker = cursorStyle.Render("> ")
	}
	return fmt.Sprintf("%s%s: %s", marker, label, value)
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Menu principal"))
	b.WriteString("\n\n")

	if errMsg := m.controller.ErrorMessage(); errMsg != "" {
		b.WriteString(errorStyle.Render("⚠ " + errMsg))
		b.WriteString("\n\n")
	}
	if m.menuNote != "" {
		b.WriteString(warnStyle.Render("⚠ " + m.menuNote))
		b.WriteString("\n\n")
	}

	b.WriteString("Parties sauvegardées:\n")
	if len(m.saved) == 0 {
		b.WriteString(subtleStyle.Render("  (aucune partie sauvegardée)"))
		b.WriteString("\n")
	}
	for i, g := range m.saved {
		line := fmt.Sprintf("%s — %s", g.Country, g.CurrentDate)
		if i == m.menuCursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.controller.Busy() {
		b.WriteString(warnStyle.Render("Chargement..."))
		b.WriteString("\n\n")
	}
	b.WriteString(subtleStyle.Render("n: nouvelle partie • enter: charger • d: supprimer • r: rafraîchir • l: déconnexion • q: quitter"))
	return b.String()
}

func (m Model) viewSetup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Nouvelle partie"))
	b.WriteString("\n\n")

	b.WriteString("Territoire:\n")
	selected := m.controller.Selection()
	for i, props := range territoryFeatures {
		name, _ := props["ADMIN"].(string)
		line := name
		if selected != nil && selected.Name == name {
			line = selectedStyle.Render(name + " ✓")
		}
		if i == m.territoryCursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nAnnée de départ: ")
	b.WriteString(selectedStyle.Render(m.yearInput))
	b.WriteString(subtleStyle.Render("   (←/→: époques prédéfinies)"))
	b.WriteString("\n\n")

	if m.setupErr != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.setupErr))
		b.WriteString("\n\n")
	}
	if errMsg := m.controller.ErrorMessage(); errMsg != "" {
		b.WriteString(errorStyle.Render("⚠ " + errMsg))
		b.WriteString("\n\n")
	}
	if m.controller.Busy() {
		b.WriteString(warnStyle.Render("Génération de la situation initiale..."))
		b.WriteString("\n\n")
	}
	b.WriteString(subtleStyle.Render("espace: choisir le territoire • enter: commencer • esc: menu"))
	return b.String()
}

func (m Model) viewPlaying() string {
	snap := m.controller.Snapshot()
	if snap == nil {
		return subtleStyle.Render("Aucune partie en cours.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s — %s", snap.Country, snap.CurrentDate)))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(fmt.Sprintf(
		"Or: %d  Stabilité: %d%%  Armée: %d  Population: %d  Diplomatie: %d%%",
		snap.Stats.Gold,
		clampPercent(snap.Stats.Stability),
		snap.Stats.Army,
		snap.Stats.Population,
		clampPercent(snap.Stats.Diplomacy),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderNarrative(snap.Narrative))
	b.WriteString("\n")

	for _, c := range snap.Choices {
		risk := riskStyles[c.Risk].Render(string(c.Risk))
		b.WriteString(fmt.Sprintf("[%d] %s (%s)\n", c.Index+1, c.Text, risk))
	}
	b.WriteString("\n")

	if errMsg := m.controller.ErrorMessage(); errMsg != "" {
		b.WriteString(errorStyle.Render("⚠ " + errMsg + "  (e: fermer)"))
		b.WriteString("\n\n")
	}
	if m.controller.Busy() {
		b.WriteString(warnStyle.Render("L'histoire s'écrit..."))
		b.WriteString("\n\n")
	}

	if m.narrationNote != "" {
		b.WriteString(warnStyle.Render(m.narrationNote))
		b.WriteString("\n\n")
	}
	narration := "t: écouter la narration"
	if m.narrating {
		narration = "t: arrêter la narration 🔊"
	}
	b.WriteString(subtleStyle.Render(fmt.Sprintf("1-%d: choisir • %s • m: menu • ctrl+c: quitter", len(snap.Choices), narration)))
	return b.String()
}

// renderNarrative draws the narrative through glamour, falling back to
// the raw text when the renderer is unavailable.
func (m Model) renderNarrative(text string) string {
	width := m.width - 4
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return text + "\n"
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// clampPercent bounds a percentage for display only. The underlying
// snapshot keeps whatever the server sent.
func clampPercent(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
