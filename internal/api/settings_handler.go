package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"enrollhub-backend-go/internal/core"
	"enrollhub-backend-go/internal/models"
)

// SettingsHandler handles the per-user settings document.
type SettingsHandler struct {
	settingsService core.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ss core.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

// Fetch handles GET /settings. A user who never saved settings gets a JSON
// null body, mirroring the store's "no document" state.
func (h *SettingsHandler) Fetch(c *gin.Context) {
	userID := recipientFromContext(c)
	if userID == "" {
		return
	}

	settings, err := h.settingsService.Fetch(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrStore) {
			log.Printf("Store Error in SettingsHandler: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Storage error"})
			return
		}
		log.Printf("Internal Server Error in SettingsHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}
	if settings == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Save handles PUT /settings with merge semantics: keys present in the body
// overwrite, keys omitted survive in the stored document.
func (h *SettingsHandler) Save(c *gin.Context) {
	userID := recipientFromContext(c)
	if userID == "" {
		return
	}

	var req models.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.settingsService.Save(c.Request.Context(), userID, req.Values); err != nil {
		if errors.Is(err, core.ErrStore) {
			log.Printf("Store Error in SettingsHandler: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Storage error", Details: "Settings were not saved. Please try again."})
			return
		}
		log.Printf("Internal Server Error in SettingsHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Settings saved"})
}
