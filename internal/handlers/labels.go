package handlers

import (
	"net/http"

	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type LabelHandler struct {
	labelService services.LabelService
}

func NewLabelHandler(labelService services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

func (h *LabelHandler) ListLabels(c *gin.Context) {
	labels, err := h.labelService.ListLabels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *LabelHandler) CreateLabel(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	label, err := h.labelService.CreateLabel(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, label)
}

func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	id, ok := parseID(c, "id", "label")
	if !ok {
		return
	}

	if err := h.labelService.DeleteLabel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Label deleted")
}

func (h *LabelHandler) AddTaskLabel(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	var req struct {
		LabelID uint  `json:"label_id"`
		UserID  *uint `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.LabelID == 0 {
		badRequest(c, "Invalid label ID")
		return
	}

	if err := h.labelService.AddTaskLabel(c.Request.Context(), taskID, req.LabelID, actingUser(c, req.UserID)); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Label added")
}

func (h *LabelHandler) RemoveTaskLabel(c *gin.Context) {
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	labelID, ok := parseID(c, "labelId", "label")
	if !ok {
		return
	}

	var req actorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.labelService.RemoveTaskLabel(c.Request.Context(), taskID, labelID, actingUser(c, req.UserID)); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Label removed")
}
