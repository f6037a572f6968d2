package api

import (
	"net/http"

	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP API is built on. Gatherer may be nil
// to leave /metrics unregistered.
type Dependencies struct {
	AuthService      service.AuthService
	WorkoutService   service.WorkoutService
	NutritionService service.NutritionService
	Clock            clock.Clock
	Metrics          *metrics.Manager
	Gatherer         prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService)
	workoutHandler := NewWorkoutHandler(deps.WorkoutService)
	nutritionHandler := NewNutritionHandler(deps.NutritionService, deps.Clock)

	if deps.Metrics != nil {
		router.Use(metrics.RequestMetrics(deps.Metrics), metrics.Recovery(deps.Metrics))
	} else {
		router.Use(gin.Recovery())
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.AuthService))
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := mustUserID(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Workout Routes ---
		workouts := protected.Group("/workouts")
		{
			workouts.GET("", workoutHandler.ListWorkouts)
			workouts.POST("", workoutHandler.CreateWorkout)
			workouts.POST("/restore", workoutHandler.RestoreWorkout)
			workouts.GET("/:id", workoutHandler.GetWorkout)
			workouts.DELETE("/:id", workoutHandler.DeleteWorkout)

			workouts.POST("/:id/start", workoutHandler.StartWorkout)
			workouts.POST("/:id/complete", workoutHandler.CompleteWorkout)
			workouts.POST("/:id/cancel", workoutHandler.CancelWorkout)
			workouts.POST("/:id/template", workoutHandler.DuplicateAsTemplate)
			workouts.POST("/:id/instantiate", workoutHandler.InstantiateTemplate)

			workouts.POST("/:id/exercises", workoutHandler.AddExercise)
			workouts.PATCH("/:id/exercises/:exerciseId", workoutHandler.UpdateExercise)
			workouts.DELETE("/:id/exercises/:exerciseId", workoutHandler.RemoveExercise)
			workouts.GET("/:id/exercises/:exerciseId/rest", workoutHandler.RestStatus)

			// POST /api/v1/workouts/{id}/exercises/{exerciseId}/sets?progressive=true
			workouts.POST("/:id/exercises/:exerciseId/sets", workoutHandler.AddSet)
			workouts.PATCH("/:id/exercises/:exerciseId/sets/:setId", workoutHandler.UpdateSet)
			workouts.DELETE("/:id/exercises/:exerciseId/sets/:setId", workoutHandler.RemoveSet)
			workouts.POST("/:id/exercises/:exerciseId/sets/:setId/complete", workoutHandler.CompleteSet)
			workouts.POST("/:id/exercises/:exerciseId/sets/:setId/reset", workoutHandler.ResetSet)
		}

		// --- Nutrition Routes ---
		nutrition := protected.Group("/nutrition")
		{
			nutrition.GET("/daily", nutritionHandler.DailySummary)
			nutrition.GET("/metrics", nutritionHandler.Metrics)

			entries := nutrition.Group("/entries")
			entries.GET("", nutritionHandler.ListEntries)
			entries.POST("", nutritionHandler.LogManual)
			entries.POST("/search", nutritionHandler.LogFromSearch)
			entries.POST("/barcode", nutritionHandler.LogFromBarcode)
			entries.POST("/restore", nutritionHandler.RestoreEntry)
			entries.GET("/:id", nutritionHandler.GetEntry)
			entries.DELETE("/:id", nutritionHandler.DeleteEntry)

			entries.PATCH("/:id/quantity", nutritionHandler.UpdateQuantity)
			entries.PATCH("/:id/nutrition", nutritionHandler.UpdateNutrition)
			entries.POST("/:id/favorite", nutritionHandler.Favorite)
			entries.POST("/:id/unfavorite", nutritionHandler.Unfavorite)
			entries.POST("/:id/verify", nutritionHandler.Verify)
			entries.POST("/:id/duplicate", nutritionHandler.DuplicateEntry)
			entries.POST("/:id/log-again", nutritionHandler.LogAgain)
			entries.POST("/:id/ai", nutritionHandler.SetAIData)
			entries.POST("/:id/barcode", nutritionHandler.SetBarcodeData)
			entries.POST("/:id/photo", nutritionHandler.RequestPhotoUpload)
			entries.GET("/:id/photo", nutritionHandler.PhotoDownload)
		}
	}
}
