package handlers_test

import (
	"net/http"
	"testing"

	"opsboard/internal/handlers"
	"opsboard/internal/middleware"
	"opsboard/internal/models"
	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

func setupTaskHandler() (*handlers.TaskHandler, *MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService)
	router := gin.New()
	router.POST("/tasks", handler.CreateTask)
	router.GET("/tasks/:id", handler.GetTask)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)
	router.PATCH("/tasks/:id/move", handler.MoveTask)
	router.PATCH("/tasks/:id/archive", handler.ArchiveTask)
	router.PATCH("/tasks/:id/restore", handler.RestoreTask)
	router.GET("/archived-tasks", handler.ListArchived)
	return handler, mockService, router
}

func TestCreateTask(t *testing.T) {
	_, mockService, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", map[string]interface{}{
		"title":      "Rotate certificates",
		"priority":   "High",
		"column_id":  4,
		"board_id":   1,
		"created_by": 2,
		"due_date":   "2026-11-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	input := mockService.input
	if input.Title != "Rotate certificates" || input.ColumnID != 4 || input.BoardID != 1 {
		t.Errorf("Unexpected input %+v", input)
	}
	if input.Priority != models.PriorityHigh {
		t.Errorf("Expected priority High, got %q", input.Priority)
	}
	if input.CreatedBy == nil || *input.CreatedBy != 2 {
		t.Errorf("Expected creator 2, got %v", input.CreatedBy)
	}
	if input.DueDate == nil || *input.DueDate != "2026-11-01" {
		t.Errorf("Expected due date, got %v", input.DueDate)
	}
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	_, _, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", "invalid json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTaskUnknownColumn(t *testing.T) {
	_, mockService, router := setupTaskHandler()
	mockService.err = &services.Error{Kind: services.KindInvalidReference, Message: "column 9 does not exist"}

	w := doJSON(router, "POST", "/tasks", map[string]interface{}{"title": "x", "column_id": 9})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTaskIdentityWinsOverBody(t *testing.T) {
	_, mockService, _ := setupTaskHandler()
	authed := gin.New()
	authed.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uint(11))
		c.Next()
	})
	authed.POST("/tasks", handlers.NewTaskHandler(mockService).CreateTask)

	w := doJSON(authed, "POST", "/tasks", map[string]interface{}{"title": "x", "column_id": 1, "created_by": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if mockService.input.CreatedBy == nil || *mockService.input.CreatedBy != 11 {
		t.Errorf("Expected creator 11, got %v", mockService.input.CreatedBy)
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	_, mockService, router := setupTaskHandler()

	w := doJSON(router, "PUT", "/tasks/1", map[string]interface{}{"priority": "Low", "user_id": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	update := mockService.update
	if update.Title != nil || update.Description != nil || update.ColumnID != nil {
		t.Errorf("Expected untouched fields to stay nil, got %+v", update)
	}
	if update.Priority == nil || *update.Priority != models.PriorityLow {
		t.Errorf("Expected priority Low, got %v", update.Priority)
	}
	if update.UserID == nil || *update.UserID != 3 {
		t.Errorf("Expected acting user 3, got %v", update.UserID)
	}
}

func TestMoveTask(t *testing.T) {
	_, mockService, router := setupTaskHandler()

	w := doJSON(router, "PATCH", "/tasks/1/move", map[string]interface{}{"column_id": 6})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.movedTo != 6 {
		t.Errorf("Expected move to column 6, got %d", mockService.movedTo)
	}
	if body := decodeBody(w); body["message"] != "Task moved" {
		t.Errorf("Unexpected message %v", body["message"])
	}

	w = doJSON(router, "PATCH", "/tasks/1/move", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d without column, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestArchiveAndRestoreTask(t *testing.T) {
	_, mockService, router := setupTaskHandler()

	w := doJSON(router, "PATCH", "/tasks/1/archive", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.userID != nil {
		t.Errorf("Expected no acting user, got %v", *mockService.userID)
	}

	w = doJSON(router, "PATCH", "/tasks/1/restore", map[string]interface{}{"user_id": 4})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body := decodeBody(w); body["message"] != "Task restored" {
		t.Errorf("Unexpected message %v", body["message"])
	}
	if mockService.userID == nil || *mockService.userID != 4 {
		t.Errorf("Expected acting user 4, got %v", mockService.userID)
	}
}

func TestArchiveTaskNotFound(t *testing.T) {
	_, mockService, router := setupTaskHandler()
	mockService.err = &services.Error{Kind: services.KindNotFound, Message: "task not found"}

	w := doJSON(router, "PATCH", "/tasks/99/archive", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestListArchivedRequiresBoard(t *testing.T) {
	_, _, router := setupTaskHandler()

	w := doJSON(router, "GET", "/archived-tasks", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	w = doJSON(router, "GET", "/archived-tasks?board_id=2", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	_, _, router := setupTaskHandler()

	w := doJSON(router, "DELETE", "/tasks/1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body := decodeBody(w); body["message"] != "Task and associated files deleted" {
		t.Errorf("Unexpected message %v", body["message"])
	}
}

func TestGetTaskInvalidID(t *testing.T) {
	_, _, router := setupTaskHandler()

	w := doJSON(router, "GET", "/tasks/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
