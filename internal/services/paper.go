package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/openconf/apiserver/internal/storage"
	"github.com/openconf/apiserver/types"
)

// PaperRepository defines persistence operations for papers.
type PaperRepository interface {
	Get(ctx context.Context, id int) (types.Paper, error)
	ListByUser(ctx context.Context, userID int) ([]types.Paper, error)
	List(ctx context.Context, status string, offset, limit int) ([]types.Paper, int, error)
	Create(ctx context.Context, paper types.Paper) (types.Paper, error)
	Decide(ctx context.Context, id int, status, note string, decidedBy int) (types.Paper, error)
	Delete(ctx context.Context, id int) error
}

// PaperService encapsulates paper-submission use-cases.
type PaperService struct {
	repo    PaperRepository
	storage *storage.Storage
}

func NewPaperService(repo PaperRepository, store *storage.Storage) *PaperService {
	return &PaperService{repo: repo, storage: store}
}

func (s *PaperService) Get(ctx context.Context, id int) (types.Paper, error) {
	return s.repo.Get(ctx, id)
}

func (s *PaperService) ListByUser(ctx context.Context, userID int) ([]types.Paper, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *PaperService) List(ctx context.Context, status string, offset, limit int) ([]types.Paper, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, status, offset, limit)
}

// Submit uploads the manuscript to object storage, then records the
// submission with status pending.
func (s *PaperService) Submit(ctx context.Context, userID int, title, abstract, fileName string, data []byte) (types.Paper, error) {
	key := fmt.Sprintf("papers/%s%s", uuid.NewString(), path.Ext(fileName))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return types.Paper{}, fmt.Errorf("upload manuscript: %w", err)
	}

	paper := types.Paper{
		UserID:   userID,
		Title:    title,
		Abstract: abstract,
		FileKey:  key,
		FileName: fileName,
	}
	created, err := s.repo.Create(ctx, paper)
	if err != nil {
		// Orphaned objects are cleaned up opportunistically.
		_ = s.storage.Delete(ctx, key)
		return types.Paper{}, err
	}
	return created, nil
}

// Decide records a reviewer decision on a pending paper.
func (s *PaperService) Decide(ctx context.Context, id int, status, note string, decidedBy int) (types.Paper, error) {
	return s.repo.Decide(ctx, id, status, note, decidedBy)
}

// OpenFile streams the stored manuscript.
func (s *PaperService) OpenFile(ctx context.Context, paper types.Paper) (io.ReadCloser, error) {
	return s.storage.Get(ctx, paper.FileKey)
}
