package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/ironboard/internal/devapi"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	opts := []devapi.Option{
		devapi.WithLogger(logger.NewWriter(os.Stderr, logger.ParseLevel(os.Getenv("LOG_LEVEL")))),
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		opts = append(opts, devapi.WithSecret([]byte(secret)))
	}
	srv := devapi.New(opts...)

	// Optional demo account, e.g. DEV_USER=demo:demo@example.com:secret
	if seed := os.Getenv("DEV_USER"); seed != "" {
		if err := seedDemo(srv, seed); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	go func() {
		log.Printf("IronBoard dev API starting on :%s", port)
		if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error closing server: %v", err)
	}
}
