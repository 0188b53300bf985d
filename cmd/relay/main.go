package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/rickyrobinett/basic-chat/internal/backend"
	"github.com/rickyrobinett/basic-chat/internal/config"
	"github.com/rickyrobinett/basic-chat/internal/handler"
	"github.com/rickyrobinett/basic-chat/internal/middleware"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("relay starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
	)

	// Inference backend client
	backendClient := backend.New(backend.Config{
		BaseURL:   cfg.BackendBaseURL,
		AccountID: cfg.CFAccountID,
		APIToken:  cfg.CFAPIToken,
		Model:     cfg.Model,
	}, logger)

	chatHandler := handler.NewChatHandler(backendClient, cfg.MaxTokens, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", chatHandler.HealthCheck)
	mux.HandleFunc("POST /api/chat", chatHandler.Chat)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestID → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived token streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("relay listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
