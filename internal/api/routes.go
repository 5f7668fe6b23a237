package api

import (
	"net/http"

	"fittrack/internal/service"
	"fittrack/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes wires the API surface over the per-identity stores.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	attachmentService service.AttachmentService,
	sessions *store.Manager,
) {
	authHandler := NewAuthHandler(authService, sessions)
	exerciseHandler := NewExerciseHandler(sessions, attachmentService)
	workoutHandler := NewWorkoutHandler(sessions)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Exercise Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.GetExercises)
			exerciseGroup.GET("/grouped", exerciseHandler.GetGroupedExercises)
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.POST("/refresh", exerciseHandler.RefreshExercises)
			exerciseGroup.PATCH("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/favorite", exerciseHandler.ToggleFavorite)
			exerciseGroup.POST("/:id/select", exerciseHandler.SelectExercise)
			exerciseGroup.POST("/selection/clear", exerciseHandler.ClearSelection)

			// Demo video attachments
			exerciseGroup.POST("/:id/video/upload-url", exerciseHandler.RequestVideoUploadURL)
			exerciseGroup.POST("/:id/video/confirm", exerciseHandler.ConfirmVideoUpload)
			exerciseGroup.GET("/:id/video/download-url", exerciseHandler.GetVideoDownloadURL)
			exerciseGroup.DELETE("/:id/video", exerciseHandler.RemoveVideo)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.GetWorkouts)
			workoutGroup.GET("/:id", workoutHandler.GetWorkoutDetail)
			workoutGroup.POST("", workoutHandler.ComposeWorkout)
			workoutGroup.POST("/refresh", workoutHandler.RefreshWorkouts)
			workoutGroup.PUT("/:id", workoutHandler.ReplaceWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
		}
	}
}
