package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sportpicks/sportpicks-backend/internal/services"
)

// SchedulerHandler handles cron trigger requests
type SchedulerHandler struct {
	schedulerService services.SchedulerService
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(schedulerService services.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
	}
}

// TriggerPhase handles POST /scheduler/:league/:phase
func (h *SchedulerHandler) TriggerPhase(c *gin.Context) {
	league := strings.ToLower(c.Param("league"))
	phase := strings.ToLower(c.Param("phase"))

	result, err := h.schedulerService.RunPhase(c.Request.Context(), league, phase, time.Now().UTC())
	if err != nil {
		if errors.Is(err, services.ErrUnknownLeague) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown league: " + league})
			return
		}
		if errors.Is(err, services.ErrUnknownPhase) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown phase: " + phase})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Phase failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TriggerReconcile handles POST /scheduler/reconcile
func (h *SchedulerHandler) TriggerReconcile(c *gin.Context) {
	result, err := h.schedulerService.RunPhase(c.Request.Context(), "", services.PhaseReconcile, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconcile failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
