package services

import (
	"context"
	"log"
	"time"

	"opsboard/internal/cache"
	"opsboard/internal/models"
)

const (
	labelsCacheKey = "labels:all"
	boardsCacheKey = "boards:all"
	listCacheTTL   = 10 * time.Minute
)

// CachedLabelService serves the label list from cache. Every label mutation
// drops the cached list.
type CachedLabelService struct {
	LabelService
	cache cache.Cache
}

func NewCachedLabelService(labelService LabelService, cacheInstance cache.Cache) *CachedLabelService {
	return &CachedLabelService{LabelService: labelService, cache: cacheInstance}
}

func (s *CachedLabelService) ListLabels(ctx context.Context) ([]models.Label, error) {
	var cached []models.Label
	if err := s.cache.Get(labelsCacheKey, &cached); err == nil {
		return cached, nil
	}

	labels, err := s.LabelService.ListLabels(ctx)
	if err != nil {
		return labels, err
	}

	if err := s.cache.Set(labelsCacheKey, labels, listCacheTTL); err != nil {
		log.Printf("[cache] failed to cache label list: %v", err)
	}
	return labels, nil
}

func (s *CachedLabelService) CreateLabel(ctx context.Context, name, color string) (models.Label, error) {
	label, err := s.LabelService.CreateLabel(ctx, name, color)
	if err != nil {
		return label, err
	}
	s.invalidate(labelsCacheKey)
	return label, nil
}

func (s *CachedLabelService) DeleteLabel(ctx context.Context, id uint) error {
	if err := s.LabelService.DeleteLabel(ctx, id); err != nil {
		return err
	}
	s.invalidate(labelsCacheKey)
	return nil
}

func (s *CachedLabelService) invalidate(key string) {
	if err := s.cache.Delete(key); err != nil {
		log.Printf("[cache] failed to invalidate %s: %v", key, err)
	}
}

// CachedBoardService serves the board list from cache. Board details are
// always read from the store.
type CachedBoardService struct {
	BoardService
	cache cache.Cache
}

func NewCachedBoardService(boardService BoardService, cacheInstance cache.Cache) *CachedBoardService {
	return &CachedBoardService{BoardService: boardService, cache: cacheInstance}
}

func (s *CachedBoardService) ListBoards(ctx context.Context) ([]models.Board, error) {
	var cached []models.Board
	if err := s.cache.Get(boardsCacheKey, &cached); err == nil {
		return cached, nil
	}

	boards, err := s.BoardService.ListBoards(ctx)
	if err != nil {
		return boards, err
	}

	if err := s.cache.Set(boardsCacheKey, boards, listCacheTTL); err != nil {
		log.Printf("[cache] failed to cache board list: %v", err)
	}
	return boards, nil
}

func (s *CachedBoardService) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	board, err := s.BoardService.CreateBoard(ctx, name)
	if err != nil {
		return board, err
	}
	s.invalidate()
	return board, nil
}

func (s *CachedBoardService) RenameBoard(ctx context.Context, id uint, name string) (models.Board, error) {
	board, err := s.BoardService.RenameBoard(ctx, id, name)
	if err != nil {
		return board, err
	}
	s.invalidate()
	return board, nil
}

func (s *CachedBoardService) DeleteBoard(ctx context.Context, id uint) error {
	if err := s.BoardService.DeleteBoard(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *CachedBoardService) invalidate() {
	if err := s.cache.DeletePattern("boards:*"); err != nil {
		log.Printf("[cache] failed to invalidate board list: %v", err)
	}
}

func (s *CachedBoardService) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}
