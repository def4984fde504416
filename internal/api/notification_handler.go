package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"enrollhub-backend-go/internal/core"
	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/models"
)

// NotificationHandler handles the notification feed and its mutations.
type NotificationHandler struct {
	notificationService core.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns core.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// recipientFromContext extracts the authenticated user id set by the auth
// middleware; responds and returns "" when it is absent.
func recipientFromContext(c *gin.Context) string {
	rawUserID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return ""
	}
	recipientID, ok := rawUserID.(string)
	if !ok || recipientID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format in context"})
		return ""
	}
	return recipientID
}

func mapNotificationErrorToStatus(c *gin.Context, err error) {
	if errors.Is(err, db.ErrForbidden) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Notification belongs to another user"})
		return
	}
	if errors.Is(err, core.ErrStore) {
		log.Printf("Store Error in NotificationHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Storage error", Details: "The operation did not apply. Please try again."})
		return
	}
	log.Printf("Internal Server Error in NotificationHandler: %v", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
}

// List handles GET /notifications: a one-shot snapshot of the recent feed.
func (h *NotificationHandler) List(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}

	notifications, err := h.notificationService.GetRecent(c.Request.Context(), recipientID)
	if err != nil {
		mapNotificationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// Stream handles GET /notifications/stream as server-sent events. Each
// event carries the full refreshed feed, starting with the initial snapshot
// (an empty list for a recipient with no notifications).
func (h *NotificationHandler) Stream(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}

	updates := make(chan []*models.Notification, 1)
	feedErrs := make(chan error, 1)

	unsubscribe := h.notificationService.Subscribe(recipientID,
		func(notifications []*models.Notification) {
			// Latest-wins: every event is the full feed, so when the client
			// is slow the stale snapshot is dropped for the fresh one.
			select {
			case updates <- notifications:
			default:
				select {
				case <-updates:
				default:
				}
				updates <- notifications
			}
		},
		func(err error) {
			select {
			case feedErrs <- err:
			default:
			}
		},
	)
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case notifications := <-updates:
			c.SSEvent("notifications", notifications)
			return true
		case err := <-feedErrs:
			log.Printf("Notification stream error for recipient %s: %v", recipientID, err)
			c.SSEvent("error", gin.H{"error": "notification feed interrupted"})
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// MarkRead handles POST /notifications/:notificationId/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}
	notificationID := c.Param("notificationId")
	if notificationID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "notificationId is required"})
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), recipientID, notificationID); err != nil {
		mapNotificationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked read"})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}

	count, err := h.notificationService.MarkAllRead(c.Request.Context(), recipientID)
	if err != nil {
		mapNotificationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

// DeleteOne handles DELETE /notifications/:notificationId.
func (h *NotificationHandler) DeleteOne(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}
	notificationID := c.Param("notificationId")
	if notificationID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "notificationId is required"})
		return
	}

	if err := h.notificationService.DeleteOne(c.Request.Context(), recipientID, notificationID); err != nil {
		mapNotificationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification deleted"})
}

// DeleteAll handles DELETE /notifications.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	recipientID := recipientFromContext(c)
	if recipientID == "" {
		return
	}

	count, err := h.notificationService.DeleteAll(c.Request.Context(), recipientID)
	if err != nil {
		mapNotificationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}
