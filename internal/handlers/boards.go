package handlers

import (
	"net/http"

	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	boardService services.BoardService
}

func NewBoardHandler(boardService services.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

type boardRequest struct {
	Name string `json:"name"`
}

func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boardService.ListBoards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	id, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	details, err := h.boardService.GetBoardDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *BoardHandler) RenameBoard(c *gin.Context) {
	id, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	board, err := h.boardService.RenameBoard(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Board updated", "board": board})
}

func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	id, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	success(c, "Board deleted")
}
