package handlers

import (
	"net/http"

	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type ColumnHandler struct {
	columnService services.ColumnService
}

func NewColumnHandler(columnService services.ColumnService) *ColumnHandler {
	return &ColumnHandler{columnService: columnService}
}

func (h *ColumnHandler) ListColumns(c *gin.Context) {
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	columns, err := h.columnService.ListColumns(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, columns)
}

func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	var req struct {
		BoardID uint   `json:"board_id"`
		Name    string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.BoardID == 0 {
		badRequest(c, "board_id is required")
		return
	}

	column, err := h.columnService.CreateColumn(c.Request.Context(), req.BoardID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, column)
}

func (h *ColumnHandler) RenameColumn(c *gin.Context) {
	id, ok := parseID(c, "id", "column")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	column, err := h.columnService.RenameColumn(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Column updated", "column": column})
}

func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	var req struct {
		Columns []services.ColumnPosition `json:"columns"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.columnService.ReorderColumns(c.Request.Context(), req.Columns); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Columns reordered")
}

// DeleteColumn accepts an optional body naming the fallback column. The
// fallback may also be given as a query parameter.
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	id, ok := parseID(c, "id", "column")
	if !ok {
		return
	}

	var req struct {
		FallbackColumnID *uint `json:"fallback_column_id" form:"fallback_column_id"`
		UserID           *uint `json:"user_id" form:"user_id"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.columnService.DeleteColumn(c.Request.Context(), id, req.FallbackColumnID, actingUser(c, req.UserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Section deleted and tasks reassigned",
		"fallback_column_id": result.FallbackColumnID,
		"moved_tasks":        result.MovedTasks,
	})
}
