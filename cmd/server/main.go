package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkarpov/roomcast/internal/server"
)

func main() {
	config, err := server.ParseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(config)
	slog.SetDefault(logger)

	// Lifecycle notifications become the server's console output.
	events := &server.Events{
		RoomCreated: func(roomID string) {
			logger.Info("room created", "room", roomID)
		},
		RoomDestroyed: func(roomID string) {
			logger.Info("room destroyed", "room", roomID)
		},
		ClientConnected: func(roomID, clientID string) {
			logger.Info("client connected", "room", roomID, "client", clientID)
		},
		ClientDisconnected: func(clientID string) {
			logger.Info("client disconnected", "client", clientID)
		},
		MessageReceived: func(roomID, clientID, text string) {
			logger.Debug("message received", "room", roomID, "client", clientID, "text", text)
		},
		Error: func(err error) {
			logger.Error("server error", "error", err)
		},
	}

	srv := server.NewServer(config, logger, events)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	logger.Info("shutting down")
	if err := srv.Stop(); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(config *server.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(config.Log.Level)}
	if config.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
