/**
 * @description
 * This is the entry point for the standalone mock bank backend. It hosts the
 * full API surface the banking client talks to, seeded with a demo account,
 * so the CLI and integration tests can run without the real backend.
 *
 * @dependencies
 * - internal/mockbank: The in-memory backend implementation.
 * - internal/config, internal/logging: Configuration and structured logging.
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vastrust/banking-client/internal/config"
	"github.com/vastrust/banking-client/internal/logging"
	"github.com/vastrust/banking-client/internal/mockbank"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	port := os.Getenv("MOCKBANK_PORT")
	if port == "" {
		port = "8083"
	}

	server := mockbank.NewServer(mockbank.Config{
		BasicUser: cfg.APIUser,
		BasicPass: cfg.APIPassword,
	}, mockbank.WithLogger(logger))

	// Seed a verified demo account so the client can log in immediately.
	userID, accountNumber, err := server.SeedUser(mockbank.SeedUserSpec{
		Email:     "demo@vastrust.test",
		Password:  "password123",
		PIN:       "1234",
		FirstName: "Demo",
		LastName:  "Customer",
		Phone:     "08010000000",
		Balance:   250000,
		Verified:  true,
	})
	if err != nil {
		logger.Fatal("demo account seed failed", zap.Error(err))
	}
	logger.Info("demo account ready",
		zap.String("email", "demo@vastrust.test"),
		zap.String("user_id", userID),
		zap.String("account_number", accountNumber),
	)

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("mock bank listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown started")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
