package worker

import (
	"context"
	"fmt"
	"log"

	"opsboard/internal/retention"
)

// FolderRemover deletes upload folders from storage.
type FolderRemover interface {
	RemoveFolders(ctx context.Context, folders []string) error
}

// SweepRunner runs one retention sweep.
type SweepRunner interface {
	RunOnce(ctx context.Context) (retention.SweepResult, error)
}

// FolderQueue hands folder cleanup to the worker. When the job cannot be
// queued the folders are removed inline.
type FolderQueue struct {
	queue    *JobQueue
	fallback FolderRemover
}

func NewFolderQueue(queue *JobQueue, fallback FolderRemover) *FolderQueue {
	return &FolderQueue{queue: queue, fallback: fallback}
}

func (q *FolderQueue) CleanupFolders(ctx context.Context, folders []string) {
	if len(folders) == 0 {
		return
	}

	id, err := q.queue.Enqueue(ctx, DefaultQueue, JobTypeFolderCleanup, map[string]interface{}{
		"folders": folders,
	})
	if err == nil {
		log.Printf("[worker] queued folder cleanup %s for %d folder(s)", id, len(folders))
		return
	}

	log.Printf("[worker] %v; removing folders inline", err)
	if err := q.fallback.RemoveFolders(ctx, folders); err != nil {
		log.Printf("[worker] inline folder cleanup failed: %v", err)
	}
}

// EnqueueSweep asks the worker for a retention sweep.
func (q *FolderQueue) EnqueueSweep(ctx context.Context) (string, error) {
	return q.queue.Enqueue(ctx, DefaultQueue, JobTypeAttachmentSweep, nil)
}

func NewFolderCleanupHandler(remover FolderRemover) JobHandler {
	return func(ctx context.Context, job *Job) error {
		folders, err := foldersFromPayload(job.Payload)
		if err != nil {
			return err
		}
		return remover.RemoveFolders(ctx, folders)
	}
}

func NewSweepHandler(runner SweepRunner) JobHandler {
	return func(ctx context.Context, job *Job) error {
		result, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.Printf("[worker] sweep job %s purged %d of %d (%d failed)",
			job.ID, result.Purged, result.Candidates, result.Failed)
		return nil
	}
}

// foldersFromPayload reads the folder list back from its JSON form.
func foldersFromPayload(payload map[string]interface{}) ([]string, error) {
	raw, ok := payload["folders"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("folder cleanup payload has no folders")
	}

	folders := make([]string, 0, len(raw))
	for _, item := range raw {
		folder, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("folder cleanup payload has a non-string folder: %v", item)
		}
		folders = append(folders, folder)
	}
	return folders, nil
}
