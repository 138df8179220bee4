package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stream-history-client/internal/models"
)

// Mock SessionGateway
type SessionGateway struct {
	mock.Mock
}

func (m *SessionGateway) StartSession(ctx context.Context, country, code string, year int) (*models.SessionSnapshot, error) {
	args := m.Called(ctx, country, code, year)
	snap, _ := args.Get(0).(*models.SessionSnapshot)
	return snap, args.Error(1)
}

func (m *SessionGateway) SubmitChoice(ctx context.Context, sessionID int64, choiceIndex int) (*models.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID, choiceIndex)
	snap, _ := args.Get(0).(*models.SessionSnapshot)
	return snap, args.Error(1)
}

func (m *SessionGateway) GetSession(ctx context.Context, sessionID int64) (*models.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	snap, _ := args.Get(0).(*models.SessionSnapshot)
	return snap, args.Error(1)
}

func (m *SessionGateway) ListSessions(ctx context.Context) []models.SessionSummary {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]models.SessionSummary)
	return summaries
}

func (m *SessionGateway) DeleteSession(ctx context.Context, sessionID int64) bool {
	args := m.Called(ctx, sessionID)
	return args.Bool(0)
}

func (m *SessionGateway) ProbeNarrativeBackend(ctx context.Context) models.HealthStatus {
	args := m.Called(ctx)
	status, _ := args.Get(0).(models.HealthStatus)
	return status
}

func (m *SessionGateway) Login(ctx context.Context, username, password string) (*models.Identity, string, error) {
	args := m.Called(ctx, username, password)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.String(1), args.Error(2)
}

func (m *SessionGateway) Register(ctx context.Context, username, password string) (*models.Identity, string, error) {
	args := m.Called(ctx, username, password)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.String(1), args.Error(2)
}

func (m *SessionGateway) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	audio, _ := args.Get(0).([]byte)
	return audio, args.Error(1)
}
