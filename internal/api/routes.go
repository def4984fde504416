package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"enrollhub-backend-go/internal/config"
	"enrollhub-backend-go/internal/core"
	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is expected to be
// applied to the router before this is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	checkoutService core.CheckoutService,
	enrollmentService core.EnrollmentService,
	notificationService core.NotificationService,
	settingsService core.SettingsService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized; routes cannot be secured.")
		panic("Firebase Auth client is nil during route setup")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	checkoutHandler := NewCheckoutHandler(checkoutService)
	enrollmentHandler := NewEnrollmentHandler(enrollmentService)
	notificationHandler := NewNotificationHandler(notificationService)
	settingsHandler := NewSettingsHandler(settingsService)

	apiV1 := router.Group("/api/v1")
	{
		// Checkout and finalize are public: the buyer has no account until
		// the finalizer creates one. The gateway redirect lands the browser
		// on the client app, which posts the carried state here.
		apiV1.POST("/checkout/payment-link", checkoutHandler.IssuePaymentLink)
		apiV1.POST("/enrollment/finalize", enrollmentHandler.Finalize)

		apiV1.GET("/enrollments/me", authMW.VerifyToken(), enrollmentHandler.GetOwnEnrollment)

		notificationsGroup := apiV1.Group("/notifications", authMW.VerifyToken())
		{
			notificationsGroup.GET("", notificationHandler.List)
			notificationsGroup.GET("/stream", notificationHandler.Stream)
			notificationsGroup.POST("/read-all", notificationHandler.MarkAllRead)
			notificationsGroup.POST("/:notificationId/read", notificationHandler.MarkRead)
			notificationsGroup.DELETE("/:notificationId", notificationHandler.DeleteOne)
			notificationsGroup.DELETE("", notificationHandler.DeleteAll)
		}

		settingsGroup := apiV1.Group("/settings", authMW.VerifyToken())
		{
			settingsGroup.GET("", settingsHandler.Fetch)
			settingsGroup.PUT("", settingsHandler.Save)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "EnrollHub backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
