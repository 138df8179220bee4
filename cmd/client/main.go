package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stream-history-client/internal/clients"
	"stream-history-client/internal/config"
	"stream-history-client/internal/credstore"
	"stream-history-client/internal/logger"
	"stream-history-client/internal/narration"
	"stream-history-client/internal/service"
	"stream-history-client/internal/ui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The TUI owns the terminal, so the logger writes to a file.
	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Starting STREAM History client",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("log_level", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := clients.NewHTTPBackendClient(cfg.APIBaseURL, cfg.APITimeout, zapLogger)
	creds := credstore.NewFileStore(credstore.DefaultPath())
	controller := service.NewSessionController(gateway, creds, zapLogger)
	controller.Restore()

	// Synthesis gets its own client with a tighter timeout: a stalled TTS
	// request should fall back long before a turn request would give up.
	ttsGateway := clients.NewHTTPBackendClient(cfg.APIBaseURL, cfg.TTSTimeout, zapLogger)
	player := narration.NewPlayer(
		ttsGateway,
		narration.NewExecSink(cfg.AudioPlayerCmd),
		narration.NewExecVoice(cfg.LocalVoiceCmd),
		zapLogger,
	)
	defer player.Stop()

	program := tea.NewProgram(
		ui.New(ctx, controller, player, zapLogger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		zapLogger.Error("Client exited with error", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("Client stopped")
}
