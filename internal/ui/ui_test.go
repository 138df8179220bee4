package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-history-client/internal/narration"
)

func TestNarrationIndicator(t *testing.T) {
	t.Run("Stale handle settlement is ignored", func(t *testing.T) {
		stale := &narration.Playback{}
		current := &narration.Playback{}
		m := Model{narrating: true, playback: current}

		// The previous toggle's handle settles after the new narration
		// already started; the indicator must stay on.
		next, _ := m.Update(narrationDoneMsg{pb: stale, outcome: narration.OutcomeInterrupted})
		m = next.(Model)
		assert.True(t, m.narrating)

		next, _ = m.Update(narrationDoneMsg{pb: current, outcome: narration.OutcomePrimary})
		m = next.(Model)
		assert.False(t, m.narrating)
		assert.Nil(t, m.playback)
	})

	t.Run("Silent outcome surfaces a note", func(t *testing.T) {
		current := &narration.Playback{}
		m := Model{narrating: true, playback: current}

		next, _ := m.Update(narrationDoneMsg{pb: current, outcome: narration.OutcomeSilent})
		m = next.(Model)
		assert.False(t, m.narrating)
		assert.Equal(t, "Narration indisponible", m.narrationNote)
	})
}

func TestDeleteResult(t *testing.T) {
	t.Run("Failure is surfaced without refreshing", func(t *testing.T) {
		m := Model{}
		next, cmd := m.Update(deleteResultMsg{ok: false})
		m = next.(Model)
		assert.Equal(t, "Impossible de supprimer la partie", m.menuNote)
		assert.Nil(t, cmd)
	})

	t.Run("Success clears the note and refreshes the listing", func(t *testing.T) {
		m := Model{menuNote: "Impossible de supprimer la partie"}
		next, cmd := m.Update(deleteResultMsg{ok: true})
		m = next.(Model)
		assert.Empty(t, m.menuNote)
		require.NotNil(t, cmd, "the saved games listing is refreshed after a delete")
	})
}
