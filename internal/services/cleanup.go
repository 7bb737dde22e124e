package services

import (
	"context"
	"log"

	"opsboard/internal/storage"
)

// FolderCleaner removes upload folders of tasks that no longer exist.
// Failures are logged, never returned to the deleting caller.
type FolderCleaner interface {
	CleanupFolders(ctx context.Context, folders []string)
}

type InlineFolderCleaner struct {
	files storage.FileStore
}

func NewInlineFolderCleaner(files storage.FileStore) *InlineFolderCleaner {
	return &InlineFolderCleaner{files: files}
}

func (c *InlineFolderCleaner) CleanupFolders(ctx context.Context, folders []string) {
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		if err := c.files.RemoveFolder(folder); err != nil {
			log.Printf("failed to remove upload folder %s: %v", folder, err)
		}
	}
}

// RemoveFolders satisfies the worker's folder remover so the queue can fall
// back to the same code path.
func (c *InlineFolderCleaner) RemoveFolders(ctx context.Context, folders []string) error {
	var firstErr error
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		if err := c.files.RemoveFolder(folder); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
