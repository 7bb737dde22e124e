package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"opsboard/internal/database"
	"opsboard/internal/models"
	"opsboard/internal/storage"

	"gorm.io/gorm"
)

const (
	DefaultRetentionWindow = 7 * 24 * time.Hour
	DefaultMaxUploadSize   = 50 << 20
)

type DeleteOutcome string

const (
	OutcomeSoftDeleted DeleteOutcome = "soft_deleted"
	OutcomePurged      DeleteOutcome = "purged"
)

type AttachmentConfig struct {
	RetentionWindow time.Duration
	MaxUploadSize   int64
}

type UploadInput struct {
	TaskID       uint
	Data         []byte
	OriginalName string
	UserID       *uint
}

type AttachmentService interface {
	Upload(ctx context.Context, input UploadInput) (models.Attachment, error)
	Get(ctx context.Context, id uint) (models.Attachment, error)
	SoftDelete(ctx context.Context, id uint, userID *uint) (models.Attachment, error)
	Purge(ctx context.Context, id uint, userID *uint) error
	Delete(ctx context.Context, taskID, id uint, userID *uint) (DeleteOutcome, error)
	ListExpired(ctx context.Context, window time.Duration) ([]uint, error)
}

type AttachmentServiceImpl struct {
	db       *gorm.DB
	files    storage.FileStore
	activity ActivityRecorder
	config   AttachmentConfig
}

func NewAttachmentService(db *gorm.DB, files storage.FileStore, activity ActivityRecorder, config AttachmentConfig) *AttachmentServiceImpl {
	if config.RetentionWindow <= 0 {
		config.RetentionWindow = DefaultRetentionWindow
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}
	return &AttachmentServiceImpl{db: db, files: files, activity: activity, config: config}
}

func (s *AttachmentServiceImpl) Upload(ctx context.Context, input UploadInput) (models.Attachment, error) {
	originalName := strings.TrimSpace(input.OriginalName)
	if len(input.Data) == 0 {
		return models.Attachment{}, invalidInput("no file uploaded")
	}
	if originalName == "" {
		return models.Attachment{}, invalidInput("file name is required")
	}
	if int64(len(input.Data)) > s.config.MaxUploadSize {
		return models.Attachment{}, invalidInput("file exceeds the %d byte upload limit", s.config.MaxUploadSize)
	}

	db := s.db.WithContext(ctx)

	var task models.Task
	if err := db.First(&task, input.TaskID).Error; err != nil {
		return models.Attachment{}, fromStore(err, "task")
	}

	folder := storage.TaskFolder(task.ID, task.Title)
	path, err := s.files.Store(folder, originalName, input.Data)
	if err != nil {
		return models.Attachment{}, storageFault("failed to store file", err)
	}

	attachment := models.Attachment{
		TaskID:       task.ID,
		Filename:     filepath.Base(path),
		OriginalName: originalName,
		Folder:       folder,
		Path:         path,
	}
	if err := db.Create(&attachment).Error; err != nil {
		if delErr := s.files.Delete(path); delErr != nil {
			log.Printf("failed to remove orphaned upload %s: %v", path, delErr)
		}
		return models.Attachment{}, fromStore(err, "attachment")
	}

	s.activity.Record(ctx, task.ID, models.ActionAttachmentAdded, input.UserID, fmt.Sprintf("Uploaded %s", originalName))
	return attachment, nil
}

func (s *AttachmentServiceImpl) Get(ctx context.Context, id uint) (models.Attachment, error) {
	var attachment models.Attachment
	if err := s.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		return models.Attachment{}, fromStore(err, "attachment")
	}
	return attachment, nil
}

// SoftDelete starts the grace window. Calling it on an attachment that is
// already pending deletion leaves deleted_at untouched.
func (s *AttachmentServiceImpl) SoftDelete(ctx context.Context, id uint, userID *uint) (models.Attachment, error) {
	attachment, err := s.Get(ctx, id)
	if err != nil {
		return models.Attachment{}, err
	}
	if attachment.IsPendingDeletion() {
		return attachment, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", database.CurrentTimestamp())
	if res.Error != nil {
		return models.Attachment{}, fromStore(res.Error, "attachment")
	}

	attachment, err = s.Get(ctx, id)
	if err != nil {
		return models.Attachment{}, err
	}
	if res.RowsAffected > 0 {
		details := fmt.Sprintf("Deleted %s. Will be removed permanently in %s.", attachment.OriginalName, formatDays(s.config.RetentionWindow))
		s.activity.Record(ctx, attachment.TaskID, models.ActionAttachmentDeleted, userID, details)
	}
	return attachment, nil
}

// Purge removes the file and then the row. A file that cannot be removed is
// logged and left behind; the row is deleted regardless. A nil userID marks
// a purge done by the system.
func (s *AttachmentServiceImpl) Purge(ctx context.Context, id uint, userID *uint) error {
	attachment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.files.Delete(attachment.Path); err != nil {
		log.Printf("failed to delete file %s of attachment %d: %v", attachment.Path, attachment.ID, err)
	}

	res := s.db.WithContext(ctx).Delete(&models.Attachment{}, id)
	if res.Error != nil {
		return fromStore(res.Error, "attachment")
	}
	if res.RowsAffected == 0 {
		return notFound("attachment")
	}

	details := fmt.Sprintf("Permanently deleted %s.", attachment.OriginalName)
	if userID == nil {
		details = fmt.Sprintf("Attachment %s was permanently removed by the system.", attachment.OriginalName)
	}
	s.activity.Record(ctx, attachment.TaskID, models.ActionAttachmentPurged, userID, details)
	return nil
}

// Delete soft-deletes an active attachment and purges one that is already
// pending deletion. A non-zero taskID must own the attachment.
func (s *AttachmentServiceImpl) Delete(ctx context.Context, taskID, id uint, userID *uint) (DeleteOutcome, error) {
	attachment, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if taskID != 0 && attachment.TaskID != taskID {
		return "", notFound("attachment")
	}

	if attachment.IsPendingDeletion() {
		if err := s.Purge(ctx, id, userID); err != nil {
			return "", err
		}
		return OutcomePurged, nil
	}

	if _, err := s.SoftDelete(ctx, id, userID); err != nil {
		return "", err
	}
	return OutcomeSoftDeleted, nil
}

// ListExpired returns the attachments whose grace window has passed
// according to the database clock.
func (s *AttachmentServiceImpl) ListExpired(ctx context.Context, window time.Duration) ([]uint, error) {
	if window <= 0 {
		window = s.config.RetentionWindow
	}

	db := s.db.WithContext(ctx)

	var ids []uint
	err := db.Model(&models.Attachment{}).
		Where("deleted_at IS NOT NULL").
		Where(database.OlderThan(db, "deleted_at", window)).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fromStore(err, "attachments")
	}
	return ids, nil
}

func formatDays(window time.Duration) string {
	days := int(window.Round(24*time.Hour) / (24 * time.Hour))
	if days <= 1 {
		if window < 24*time.Hour {
			return window.String()
		}
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
