package services

import (
	"context"
	"strings"

	"opsboard/internal/models"
	"opsboard/internal/storage"

	"gorm.io/gorm"
)

// BoardDetails is a consistent snapshot of one board.
type BoardDetails struct {
	Board   models.Board    `json:"board"`
	Columns []models.Column `json:"columns"`
	Tasks   []models.Task   `json:"tasks"`
}

type BoardService interface {
	ListBoards(ctx context.Context) ([]models.Board, error)
	CreateBoard(ctx context.Context, name string) (models.Board, error)
	RenameBoard(ctx context.Context, id uint, name string) (models.Board, error)
	DeleteBoard(ctx context.Context, id uint) error
	GetBoardDetails(ctx context.Context, id uint) (BoardDetails, error)
}

type BoardServiceImpl struct {
	db      *gorm.DB
	cleaner FolderCleaner
}

func NewBoardService(db *gorm.DB, cleaner FolderCleaner) *BoardServiceImpl {
	return &BoardServiceImpl{db: db, cleaner: cleaner}
}

func (s *BoardServiceImpl) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&boards).Error; err != nil {
		return nil, fromStore(err, "boards")
	}
	return boards, nil
}

// CreateBoard creates the board together with its default columns.
func (s *BoardServiceImpl) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, invalidInput("board name is required")
	}

	board := models.Board{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		columns := make([]models.Column, len(models.DefaultColumnNames))
		for i, columnName := range models.DefaultColumnNames {
			columns[i] = models.Column{Name: columnName, BoardID: board.ID, Position: i}
		}
		return tx.Create(&columns).Error
	})
	if err != nil {
		return models.Board{}, fromStore(err, "board")
	}
	return board, nil
}

func (s *BoardServiceImpl) RenameBoard(ctx context.Context, id uint, name string) (models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, invalidInput("board name is required")
	}

	db := s.db.WithContext(ctx)

	var board models.Board
	if err := db.First(&board, id).Error; err != nil {
		return models.Board{}, fromStore(err, "board")
	}
	if err := db.Model(&board).Update("name", name).Error; err != nil {
		return models.Board{}, fromStore(err, "board")
	}
	board.Name = name
	return board, nil
}

// DeleteBoard removes the board and, through the store cascades, its columns
// and tasks. Upload folders are cleaned up after commit.
func (s *BoardServiceImpl) DeleteBoard(ctx context.Context, id uint) error {
	var folders []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []models.Task
		if err := tx.Select("id", "title").Where("board_id = ?", id).Find(&tasks).Error; err != nil {
			return err
		}

		var err error
		folders, err = uploadFolders(tx, tasks)
		if err != nil {
			return err
		}

		res := tx.Delete(&models.Board{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("board")
		}
		return nil
	})
	if err != nil {
		return fromStore(err, "board")
	}

	if s.cleaner != nil && len(folders) > 0 {
		s.cleaner.CleanupFolders(ctx, folders)
	}
	return nil
}

func (s *BoardServiceImpl) GetBoardDetails(ctx context.Context, id uint) (BoardDetails, error) {
	var details BoardDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&details.Board, id).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Order("position, id").Find(&details.Columns).Error; err != nil {
			return err
		}

		err := tx.Model(&models.Task{}).
			Select("tasks.*, users.name AS creator_name").
			Joins("LEFT JOIN users ON users.id = tasks.created_by").
			Where("tasks.board_id = ? AND tasks.archived = ?", id, false).
			Order("tasks.id").
			Scan(&details.Tasks).Error
		if err != nil {
			return err
		}
		return attachLabels(tx, details.Tasks)
	})
	if err != nil {
		return BoardDetails{}, fromStore(err, "board")
	}
	if details.Columns == nil {
		details.Columns = []models.Column{}
	}
	if details.Tasks == nil {
		details.Tasks = []models.Task{}
	}
	return details, nil
}

type taskLabelRow struct {
	TaskID uint
	ID     uint
	Name   string
	Color  string
}

// attachLabels loads the labels of every task in one query.
func attachLabels(tx *gorm.DB, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]uint, len(tasks))
	index := make(map[uint]int, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
		index[task.ID] = i
		tasks[i].Labels = []models.Label{}
	}

	var rows []taskLabelRow
	err := tx.Table("task_labels").
		Select("task_labels.task_id, labels.id, labels.name, labels.color").
		Joins("JOIN labels ON labels.id = task_labels.label_id").
		Where("task_labels.task_id IN ?", ids).
		Order("labels.id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		i := index[row.TaskID]
		tasks[i].Labels = append(tasks[i].Labels, models.Label{ID: row.ID, Name: row.Name, Color: row.Color})
	}
	return nil
}

// uploadFolders returns every folder that may hold files of the given tasks:
// the folders pinned on their attachments plus the folder derived from each
// current title.
func uploadFolders(tx *gorm.DB, tasks []models.Task) ([]string, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}

	var pinned []string
	err := tx.Model(&models.Attachment{}).
		Where("task_id IN ? AND folder <> ''", ids).
		Distinct().
		Pluck("folder", &pinned).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var folders []string
	add := func(folder string) {
		if folder != "" && !seen[folder] {
			seen[folder] = true
			folders = append(folders, folder)
		}
	}
	for _, folder := range pinned {
		add(folder)
	}
	for _, task := range tasks {
		add(storage.TaskFolder(task.ID, task.Title))
	}
	return folders, nil
}
