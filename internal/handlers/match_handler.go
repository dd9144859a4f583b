package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sportpicks/sportpicks-backend/internal/services"
)

// MatchHandler handles match storefront requests
type MatchHandler struct {
	matchService services.MatchService
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// GetCurrent handles GET /matches?league=epl
func (h *MatchHandler) GetCurrent(c *gin.Context) {
	league := c.Query("league")
	if league == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "league query parameter is required"})
		return
	}

	views, err := h.matchService.ListCurrent(c.Request.Context(), league, time.Now().UTC())
	if err != nil {
		if errors.Is(err, services.ErrUnknownLeague) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown league: " + league})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list matches: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"league": league, "matches": views})
}

// GetArchive handles GET /matches/archive?league=epl&page=1&limit=20
func (h *MatchHandler) GetArchive(c *gin.Context) {
	league := c.Query("league")
	if league == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "league query parameter is required"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	matches, err := h.matchService.ListArchived(c.Request.Context(), league, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrUnknownLeague) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown league: " + league})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list archive: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"league": league, "page": page, "limit": limit, "matches": matches})
}
