package handlers

import (
	"context"
	"log"
	"net/http"

	"opsboard/internal/retention"

	"github.com/gin-gonic/gin"
)

type SweepRunner interface {
	RunOnce(ctx context.Context) (retention.SweepResult, error)
	LastResult() (retention.SweepResult, bool)
}

// SweepEnqueuer hands a sweep to the background worker.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context) (string, error)
}

type MaintenanceHandler struct {
	sweeper  SweepRunner
	enqueuer SweepEnqueuer
}

// NewMaintenanceHandler runs sweeps inline unless enqueuer is non-nil.
func NewMaintenanceHandler(sweeper SweepRunner, enqueuer SweepEnqueuer) *MaintenanceHandler {
	return &MaintenanceHandler{sweeper: sweeper, enqueuer: enqueuer}
}

func (h *MaintenanceHandler) Sweep(c *gin.Context) {
	if h.enqueuer != nil {
		jobID, err := h.enqueuer.EnqueueSweep(c.Request.Context())
		if err == nil {
			c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Sweep queued", "job_id": jobID})
			return
		}
		log.Printf("[worker] failed to queue sweep, running inline: %v", err)
	}

	result, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sweep completed", "result": result})
}

func (h *MaintenanceHandler) LastSweep(c *gin.Context) {
	result, ran := h.sweeper.LastResult()
	if !ran {
		c.JSON(http.StatusOK, gin.H{"ran": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ran": true, "result": result})
}
