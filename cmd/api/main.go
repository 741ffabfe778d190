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

	"home-price-api/config"
	"home-price-api/handlers"
	"home-price-api/services"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, closeDB, err := services.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	model, err := services.FitDefaultPriceModel()
	if err != nil {
		log.Fatalf("Failed to train price model: %v", err)
	}
	coef := model.Coefficients()
	log.Printf("Price model ready: intercept=%.2f sqft=%.4f bedrooms=%.2f", coef.Intercept, coef.SquareFootage, coef.Bedrooms)

	// Redis is optional
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("WARNING: %v; session cache and live updates disabled", err)
	}
	defer cache.Close()

	store := services.NewGormPredictionStore(db)
	svc, err := services.NewPredictionService(store, model, cache, time.Duration(cfg.Cache.SessionTTLSeconds)*time.Second)
	if err != nil {
		log.Fatalf("Failed to build prediction service: %v", err)
	}

	router := handlers.SetupRouter(svc, cache, cfg.CORS)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
