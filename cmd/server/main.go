package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/fittrack/internal/api"
	"alcyxob/fittrack/internal/app"
	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/logging"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// @title Fittrack API
// @version 1.0
// @description Workout logging and nutrition tracking.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Info("starting fittrack server...")

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret (JWT_SECRET) must be set")
	}
	settings, err := service.NewNutritionSettings(cfg.Nutrition)
	if err != nil {
		log.Fatalf("invalid nutrition settings: %v", err)
	}

	// --- Repositories ---
	repos, err := app.OpenRepositories(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer repos.Close()

	// --- Collaborators ---
	ctx := context.Background()
	fileStorage, err := app.NewFileStorage(ctx, cfg.S3)
	if err != nil {
		log.Fatal(err)
	}
	foodLookup := app.NewFoodLookup(cfg.FoodData)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager(metrics.Namespace, metrics.Subsystem, reg)

	// --- Services ---
	clk := clock.System()
	authService := service.NewAuthService(repos.Users, clk, cfg.JWT.Secret, cfg.JWT.Expiration)
	workoutService := service.NewWorkoutService(repos.Workouts, clk, metricsManager)
	nutritionService := service.NewNutritionService(repos.Entries, foodLookup, fileStorage, clk, metricsManager, settings)

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	api.SetupRoutes(router, api.Dependencies{
		AuthService:      authService,
		WorkoutService:   workoutService,
		NutritionService: nutritionService,
		Clock:            clk,
		Metrics:          metricsManager,
		Gatherer:         reg,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	hits, misses := foodLookup.Stats()
	log.Infof("food lookup cache: %d hits, %d misses", hits, misses)
	log.Info("server exiting")
}
