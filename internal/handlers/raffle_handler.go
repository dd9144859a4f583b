package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sportpicks/sportpicks-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RaffleHandler handles raffle settlement requests
type RaffleHandler struct {
	settlementService services.SettlementService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(settlementService services.SettlementService) *RaffleHandler {
	return &RaffleHandler{
		settlementService: settlementService,
	}
}

// GetByMatch handles GET /raffles/:matchId
func (h *RaffleHandler) GetByMatch(c *gin.Context) {
	matchID, err := primitive.ObjectIDFromHex(c.Param("matchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
		return
	}

	raffle, err := h.settlementService.GetByMatchID(c.Request.Context(), matchID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No raffle for this match"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load raffle: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// List handles GET /raffles?page=1&limit=20
func (h *RaffleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	raffles, total, err := h.settlementService.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list raffles: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "raffles": raffles})
}

// RetryPayout handles POST /raffles/:matchId/payout (operator only)
func (h *RaffleHandler) RetryPayout(c *gin.Context) {
	matchID, err := primitive.ObjectIDFromHex(c.Param("matchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
		return
	}

	raffle, err := h.settlementService.RetryPayout(c.Request.Context(), matchID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyPaid) {
			c.JSON(http.StatusConflict, gin.H{"error": "Raffle payout already completed", "raffle": raffle})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry payout: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payout retried", "raffle": raffle})
}
