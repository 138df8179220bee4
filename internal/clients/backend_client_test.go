package clients_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stream-history-client/internal/clients"
	"stream-history-client/internal/models"
)

func newClient(t *testing.T, handler http.Handler) (*clients.HTTPBackendClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return clients.NewHTTPBackendClient(srv.URL, 5*time.Second, zap.NewNop()), srv
}

func gamePayload() map[string]interface{} {
	return map[string]interface{}{
		"game_id":      42,
		"country":      "France",
		"country_code": "FRA",
		"current_date": "1789",
		"stats": map[string]int64{
			"gold": 1000, "stability": 60, "army": 50000, "population": 1000000, "diplomacy": 50,
		},
		"narrative": "La Révolution gronde dans les rues de Paris.",
		"choices": []map[string]interface{}{
			{"index": 0, "text": "Convoquer les États généraux", "risk_level": "medium"},
			{"index": 1, "text": "Réprimer les émeutes", "risk_level": "high"},
		},
	}
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Success normalizes the payload", func(t *testing.T) {
		var gotBody map[string]interface{}
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/start_game", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "game": gamePayload()})
		}))

		snap, err := client.StartSession(ctx, "France", "FRA", 1789)
		require.NoError(t, err)

		assert.Equal(t, "France", gotBody["country"])
		assert.Equal(t, "FRA", gotBody["country_code"])
		assert.Equal(t, float64(1789), gotBody["year"])

		assert.Equal(t, int64(42), snap.SessionID)
		assert.Equal(t, "1789", snap.CurrentDate)
		assert.Equal(t, int64(60), snap.Stats.Stability)
		require.Len(t, snap.Choices, 2)
		assert.Equal(t, models.RiskHigh, snap.Choices[1].Risk)
	})

	t.Run("Application-level failure becomes a ServerError", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "Ollama n'est pas disponible",
			})
		}))

		_, err := client.StartSession(ctx, "France", "FRA", 1789)
		var serverErr *clients.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, "Ollama n'est pas disponible", serverErr.Detail)
	})

	t.Run("HTTP error status carries the detail", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Erreur interne"})
		}))

		_, err := client.StartSession(ctx, "France", "FRA", 1789)
		var serverErr *clients.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, "Erreur interne", serverErr.Detail)
	})

	t.Run("Transport failure becomes a NetworkError", func(t *testing.T) {
		client, srv := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := client.StartSession(ctx, "France", "FRA", 1789)
		var netErr *clients.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})
}

func TestDecodeNormalization(t *testing.T) {
	ctx := context.Background()

	t.Run("Choice indices are re-derived positionally", func(t *testing.T) {
		payload := gamePayload()
		payload["choices"] = []map[string]interface{}{
			{"index": 5, "text": "Premier choix", "risk_level": "low"},
			{"index": 9, "text": "Deuxième choix", "risk_level": "EXTREME"},
			{"index": 9, "text": "Troisième choix"},
		}
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "game": payload})
		}))

		snap, err := client.StartSession(ctx, "France", "FRA", 1789)
		require.NoError(t, err)
		require.Len(t, snap.Choices, 3)
		for i, c := range snap.Choices {
			assert.Equal(t, i, c.Index, "indices must be exactly 0..n-1")
			assert.True(t, c.Risk.Valid())
		}
		assert.Equal(t, models.RiskLow, snap.Choices[0].Risk)
		assert.Equal(t, models.RiskMedium, snap.Choices[1].Risk, "unrecognized risk defaults to medium")
		assert.Equal(t, models.RiskMedium, snap.Choices[2].Risk, "missing risk defaults to medium")
	})

	t.Run("Payload without a session id is rejected", func(t *testing.T) {
		payload := gamePayload()
		payload["game_id"] = 0
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "game": payload})
		}))

		_, err := client.StartSession(ctx, "France", "FRA", 1789)
		assert.Error(t, err)
	})

	t.Run("Risk levels are case-insensitive", func(t *testing.T) {
		payload := gamePayload()
		payload["choices"] = []map[string]interface{}{
			{"index": 0, "text": "Choix", "risk_level": "High"},
		}
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "game": payload})
		}))

		snap, err := client.StartSession(ctx, "France", "FRA", 1789)
		require.NoError(t, err)
		assert.Equal(t, models.RiskHigh, snap.Choices[0].Risk)
	})
}

func TestSubmitChoice(t *testing.T) {
	ctx := context.Background()

	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/make_decision", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["game_id"])
		assert.Equal(t, float64(1), body["choice_index"])
		payload := gamePayload()
		payload["current_date"] = "1790"
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "game": payload})
	}))

	snap, err := client.SubmitChoice(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, "1790", snap.CurrentDate)
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/games/42", r.URL.Path)
			json.NewEncoder(w).Encode(gamePayload())
		}))

		snap, err := client.GetSession(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), snap.SessionID)
	})

	t.Run("Not found", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Partie non trouvée"})
		}))

		_, err := client.GetSession(ctx, 99)
		assert.ErrorIs(t, err, clients.ErrSessionNotFound)
	})
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": 42, "country": "France", "current_date": "1790", "created_at": "2026-08-30T10:00:00"},
			})
		}))

		summaries := client.ListSessions(ctx)
		require.Len(t, summaries, 1)
		assert.Equal(t, int64(42), summaries[0].ID)
		assert.Equal(t, "France", summaries[0].Country)
	})

	t.Run("Listing is best-effort: empty on server error", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		assert.Empty(t, client.ListSessions(ctx))
	})

	t.Run("Empty on transport failure", func(t *testing.T) {
		client, srv := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()
		summaries := client.ListSessions(ctx)
		assert.NotNil(t, summaries)
		assert.Empty(t, summaries)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Acknowledged", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodDelete, r.Method)
			require.Equal(t, "/games/42", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		}))
		assert.True(t, client.DeleteSession(ctx, 42))
	})

	t.Run("Missing session is not acknowledged", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		assert.False(t, client.DeleteSession(ctx, 42))
	})
}

func TestProbeNarrativeBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("Healthy", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/health/ollama", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Ollama is running"})
		}))

		status := client.ProbeNarrativeBackend(ctx)
		assert.True(t, status.Available)
	})

	t.Run("Degraded status is unavailable", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Ollama is not available"})
		}))

		status := client.ProbeNarrativeBackend(ctx)
		assert.False(t, status.Available)
		assert.Equal(t, "Ollama is not available", status.Message)
	})

	t.Run("Transport failure is coerced, never an error", func(t *testing.T) {
		client, srv := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		status := client.ProbeNarrativeBackend(ctx)
		assert.False(t, status.Available)
	})
}

func TestAuthentication(t *testing.T) {
	ctx := context.Background()

	t.Run("Login success", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/login", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"user":    map[string]interface{}{"id": 7, "username": "marianne"},
				"token":   "user_7",
			})
		}))

		identity, token, err := client.Login(ctx, "marianne", "liberte")
		require.NoError(t, err)
		assert.Equal(t, 7, identity.ID)
		assert.Equal(t, "marianne", identity.DisplayName)
		assert.Equal(t, "user_7", token)
	})

	t.Run("Rejected credentials surface the backend detail", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Identifiants incorrects"})
		}))

		_, _, err := client.Login(ctx, "marianne", "wrong")
		var serverErr *clients.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, "Identifiants incorrects", serverErr.Detail)
	})

	t.Run("Register hits its own endpoint", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/register", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"user":    map[string]interface{}{"id": 8, "username": "danton"},
				"token":   "user_8",
			})
		}))

		identity, _, err := client.Register(ctx, "danton", "audace")
		require.NoError(t, err)
		assert.Equal(t, "danton", identity.DisplayName)
	})
}

func TestSynthesizeSpeech(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the raw audio payload", func(t *testing.T) {
		wav := []byte("RIFF....WAVEfmt ")
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/tts", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body["text"])
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(wav)
		}))

		audio, err := client.SynthesizeSpeech(ctx, "La Révolution gronde.")
		require.NoError(t, err)
		assert.Equal(t, wav, audio)
	})

	t.Run("Synthesis failure is an error for the player to handle", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "TTS model not available"})
		}))

		_, err := client.SynthesizeSpeech(ctx, "texte")
		assert.Error(t, err)
	})

	t.Run("Empty payload is an error", func(t *testing.T) {
		client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		_, err := client.SynthesizeSpeech(ctx, "texte")
		assert.Error(t, err)
	})
}
