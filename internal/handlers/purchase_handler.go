package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sportpicks/sportpicks-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// PurchaseHandler handles purchase and prediction-unlock requests
type PurchaseHandler struct {
	purchaseService   services.PurchaseService
	predictionService services.PredictionService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService services.PurchaseService, predictionService services.PredictionService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService:   purchaseService,
		predictionService: predictionService,
	}
}

// CreatePurchaseRequest is the POST /purchases payload
type CreatePurchaseRequest struct {
	MatchID      string  `json:"matchId" binding:"required"`
	BuyerAddress string  `json:"buyerAddress" binding:"required"`
	PaymentRef   string  `json:"paymentRef" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	TokenSymbol  string  `json:"tokenSymbol" binding:"required"`
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	var request CreatePurchaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	matchID, err := primitive.ObjectIDFromHex(request.MatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
		return
	}

	purchase, err := h.purchaseService.Buy(c.Request.Context(), matchID, request.BuyerAddress, request.PaymentRef, request.Amount, request.TokenSymbol, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyPurchased):
			c.JSON(http.StatusConflict, gin.H{"error": "Buyer already purchased this match"})
		case errors.Is(err, services.ErrNotBuyable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Match is not currently buyable"})
		case errors.Is(err, services.ErrUnknownLeague):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown league"})
		default:
			slog.Warn("Purchase rejected", "error", err, "matchId", request.MatchID, "buyer", request.BuyerAddress)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

// List handles GET /purchases?matchId=&buyer=
func (h *PurchaseHandler) List(c *gin.Context) {
	var matchID *primitive.ObjectID
	if raw := c.Query("matchId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
			return
		}
		matchID = &id
	}
	buyer := c.Query("buyer")
	if matchID == nil && buyer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "matchId or buyer query parameter is required"})
		return
	}

	purchases, err := h.purchaseService.Find(c.Request.Context(), matchID, buyer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchases: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// GetCount handles GET /matches/:id/purchases/count
func (h *PurchaseHandler) GetCount(c *gin.Context) {
	matchID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
		return
	}

	count, err := h.purchaseService.Count(c.Request.Context(), matchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count purchases: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, count)
}

// GetPrediction handles GET /matches/:id/prediction?buyer=
// The prediction body is paid content: only an address that purchased the
// match may read it.
func (h *PurchaseHandler) GetPrediction(c *gin.Context) {
	matchID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID format"})
		return
	}
	buyer := c.Query("buyer")
	if buyer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buyer query parameter is required"})
		return
	}

	purchases, err := h.purchaseService.Find(c.Request.Context(), &matchID, buyer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify purchase: " + err.Error()})
		return
	}
	if len(purchases) == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Prediction is locked: no purchase found for this buyer"})
		return
	}

	prediction, err := h.predictionService.GetByMatchID(c.Request.Context(), matchID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No prediction for this match"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load prediction: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, prediction)
}
