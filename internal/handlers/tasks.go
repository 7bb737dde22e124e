package handlers

import (
	"net/http"
	"strconv"

	"opsboard/internal/models"
	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// actorRequest is the body of mutations that only carry the acting user.
type actorRequest struct {
	UserID *uint `json:"user_id"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    string  `json:"priority"`
		ColumnID    uint    `json:"column_id"`
		BoardID     uint    `json:"board_id"`
		CreatedBy   *uint   `json:"created_by"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    models.Priority(req.Priority),
		ColumnID:    req.ColumnID,
		BoardID:     req.BoardID,
		CreatedBy:   actingUser(c, req.CreatedBy),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	details, err := h.taskService.GetTaskDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    *string `json:"priority"`
		ColumnID    *uint   `json:"column_id"`
		UserID      *uint   `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	update := services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		ColumnID:    req.ColumnID,
		UserID:      actingUser(c, req.UserID),
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		update.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) MoveTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	var req struct {
		ColumnID uint  `json:"column_id"`
		UserID   *uint `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.ColumnID == 0 {
		badRequest(c, "Valid column_id required")
		return
	}

	if _, err := h.taskService.MoveTask(c.Request.Context(), id, req.ColumnID, actingUser(c, req.UserID)); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Task moved")
}

func (h *TaskHandler) ArchiveTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	var req actorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.taskService.ArchiveTask(c.Request.Context(), id, actingUser(c, req.UserID)); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Task archived")
}

func (h *TaskHandler) RestoreTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	var req actorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.taskService.RestoreTask(c.Request.Context(), id, actingUser(c, req.UserID)); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Task restored")
}

func (h *TaskHandler) ListArchived(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Query("board_id"), 10, 64)
	if err != nil || boardID == 0 {
		badRequest(c, "Valid board_id required")
		return
	}

	tasks, err := h.taskService.ListArchived(c.Request.Context(), uint(boardID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Task and associated files deleted")
}
