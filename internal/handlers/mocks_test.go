package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"opsboard/internal/models"
	"opsboard/internal/retention"
	"opsboard/internal/services"
)

type MockBoardService struct {
	err     error
	boards  []models.Board
	renamed string
	deleted uint
	details services.BoardDetails
}

func (m *MockBoardService) ListBoards(ctx context.Context) ([]models.Board, error) {
	return m.boards, m.err
}

func (m *MockBoardService) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	if m.err != nil {
		return models.Board{}, m.err
	}
	return models.Board{ID: 1, Name: name}, nil
}

func (m *MockBoardService) RenameBoard(ctx context.Context, id uint, name string) (models.Board, error) {
	m.renamed = name
	return models.Board{ID: id, Name: name}, m.err
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, id uint) error {
	m.deleted = id
	return m.err
}

func (m *MockBoardService) GetBoardDetails(ctx context.Context, id uint) (services.BoardDetails, error) {
	return m.details, m.err
}

type MockColumnService struct {
	err        error
	reordered  []services.ColumnPosition
	fallbackID *uint
	userID     *uint
	result     services.DeleteColumnResult
}

func (m *MockColumnService) ListColumns(ctx context.Context, boardID uint) ([]models.Column, error) {
	return []models.Column{{ID: 1, BoardID: boardID, Name: "To Do"}}, m.err
}

func (m *MockColumnService) CreateColumn(ctx context.Context, boardID uint, name string) (models.Column, error) {
	return models.Column{ID: 9, BoardID: boardID, Name: name}, m.err
}

func (m *MockColumnService) RenameColumn(ctx context.Context, columnID uint, name string) (models.Column, error) {
	return models.Column{ID: columnID, Name: name}, m.err
}

func (m *MockColumnService) ReorderColumns(ctx context.Context, updates []services.ColumnPosition) error {
	m.reordered = updates
	return m.err
}

func (m *MockColumnService) DeleteColumn(ctx context.Context, columnID uint, fallbackID *uint, userID *uint) (services.DeleteColumnResult, error) {
	m.fallbackID = fallbackID
	m.userID = userID
	return m.result, m.err
}

type MockTaskService struct {
	err     error
	input   services.TaskInput
	update  services.TaskUpdate
	movedTo uint
	userID  *uint
}

func (m *MockTaskService) CreateTask(ctx context.Context, input services.TaskInput) (models.Task, error) {
	m.input = input
	if m.err != nil {
		return models.Task{}, m.err
	}
	return models.Task{ID: 1, Title: input.Title, ColumnID: input.ColumnID, Priority: input.Priority}, nil
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id uint, update services.TaskUpdate) (models.Task, error) {
	m.update = update
	return models.Task{ID: id}, m.err
}

func (m *MockTaskService) MoveTask(ctx context.Context, id, columnID uint, userID *uint) (models.Task, error) {
	m.movedTo = columnID
	m.userID = userID
	return models.Task{ID: id, ColumnID: columnID}, m.err
}

func (m *MockTaskService) ArchiveTask(ctx context.Context, id uint, userID *uint) error {
	m.userID = userID
	return m.err
}

func (m *MockTaskService) RestoreTask(ctx context.Context, id uint, userID *uint) error {
	m.userID = userID
	return m.err
}

func (m *MockTaskService) ListArchived(ctx context.Context, boardID uint) ([]models.Task, error) {
	return []models.Task{{ID: 3, BoardID: boardID, Archived: true}}, m.err
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id uint) error {
	return m.err
}

func (m *MockTaskService) GetTaskDetails(ctx context.Context, id uint) (services.TaskDetails, error) {
	return services.TaskDetails{Task: models.Task{ID: id}}, m.err
}

type MockLabelService struct {
	err     error
	labelID uint
}

func (m *MockLabelService) ListLabels(ctx context.Context) ([]models.Label, error) {
	return models.DefaultLabels, m.err
}

func (m *MockLabelService) CreateLabel(ctx context.Context, name, color string) (models.Label, error) {
	return models.Label{ID: 7, Name: name, Color: color}, m.err
}

func (m *MockLabelService) DeleteLabel(ctx context.Context, id uint) error {
	return m.err
}

func (m *MockLabelService) AddTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error {
	m.labelID = labelID
	return m.err
}

func (m *MockLabelService) RemoveTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error {
	m.labelID = labelID
	return m.err
}

type MockUserService struct {
	err error
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: 1, Name: "alex"}}, m.err
}

func (m *MockUserService) GetUser(ctx context.Context, id uint) (models.User, error) {
	return models.User{ID: id, Name: "alex"}, m.err
}

func (m *MockUserService) CreateUser(ctx context.Context, name string) (models.User, error) {
	return models.User{ID: 2, Name: name}, m.err
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uint) error {
	return m.err
}

type MockAttachmentService struct {
	err     error
	upload  services.UploadInput
	outcome services.DeleteOutcome
	taskID  uint
}

func (m *MockAttachmentService) Upload(ctx context.Context, input services.UploadInput) (models.Attachment, error) {
	m.upload = input
	if m.err != nil {
		return models.Attachment{}, m.err
	}
	return models.Attachment{ID: 5, TaskID: input.TaskID, OriginalName: input.OriginalName, Filename: input.OriginalName}, nil
}

func (m *MockAttachmentService) Get(ctx context.Context, id uint) (models.Attachment, error) {
	return models.Attachment{ID: id}, m.err
}

func (m *MockAttachmentService) SoftDelete(ctx context.Context, id uint, userID *uint) (models.Attachment, error) {
	return models.Attachment{ID: id}, m.err
}

func (m *MockAttachmentService) Purge(ctx context.Context, id uint, userID *uint) error {
	return m.err
}

func (m *MockAttachmentService) Delete(ctx context.Context, taskID, id uint, userID *uint) (services.DeleteOutcome, error) {
	m.taskID = taskID
	return m.outcome, m.err
}

func (m *MockAttachmentService) ListExpired(ctx context.Context, window time.Duration) ([]uint, error) {
	return nil, m.err
}

type MockSweeper struct {
	err    error
	runs   int
	result retention.SweepResult
}

func (m *MockSweeper) RunOnce(ctx context.Context) (retention.SweepResult, error) {
	m.runs++
	return m.result, m.err
}

func (m *MockSweeper) LastResult() (retention.SweepResult, bool) {
	return m.result, m.runs > 0
}

type MockEnqueuer struct {
	err   error
	calls int
}

func (m *MockEnqueuer) EnqueueSweep(ctx context.Context) (string, error) {
	m.calls++
	return "job-1", m.err
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			payload, _ := json.Marshal(body)
			reader = bytes.NewBuffer(payload)
		}
	}
	req, _ := http.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}
