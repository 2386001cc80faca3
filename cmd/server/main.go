package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pzmarket/quote-backend/config"
	"github.com/pzmarket/quote-backend/internal/app"
	httpDelivery "github.com/pzmarket/quote-backend/internal/delivery/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PZ Quote Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s, session TTL: %s", cfg.Cache.TTL, cfg.Cache.SessionTTL)
	log.Printf("Default category: %s", cfg.Pricing.DefaultCategory)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer application.Close()

	if cfg.Server.StaffKey == "" {
		log.Printf("WARNING: staff key not configured - staff routes are disabled")
	}

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Quotes:   application.Quotes,
		Sessions: application.Sessions,
		Segments: application.Segments,
		Savings:  application.Savings,
		Catalog:  application.Catalog,
	}, cfg.Server.MaxUploadBytes)

	router := httpDelivery.SetupRouter(cfg, handler, application.Registry)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
