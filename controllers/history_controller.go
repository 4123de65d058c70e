package controllers

import (
	"net/http"

	"promptcoach/middlewares"
	"promptcoach/services"

	"github.com/gin-gonic/gin"
)

// HistoryController reads stored rounds. It never calls the gateway.
type HistoryController struct {
	store services.HistoryStore
}

func NewHistoryController(store services.HistoryStore) *HistoryController {
	return &HistoryController{store: store}
}

func (h *HistoryController) List(c *gin.Context) {
	entries, err := h.store.List(c.Request.Context(), middlewares.Owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
