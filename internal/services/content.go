package services

import (
	"context"

	"github.com/openconf/apiserver/types"
)

// ContentRepository defines persistence operations for site content.
type ContentRepository interface {
	ListCommittee(ctx context.Context) ([]types.CommitteeMember, error)
	CreateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error)
	UpdateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error)
	DeleteCommitteeMember(ctx context.Context, id int) error

	ListSpeakers(ctx context.Context) ([]types.Speaker, error)
	CreateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error)
	UpdateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error)
	DeleteSpeaker(ctx context.Context, id int) error

	ListEvents(ctx context.Context) ([]types.Event, error)
	CreateEvent(ctx context.Context, e types.Event) (types.Event, error)
	UpdateEvent(ctx context.Context, e types.Event) (types.Event, error)
	DeleteEvent(ctx context.Context, id int) error

	ListSettings(ctx context.Context) ([]types.Setting, error)
	GetSetting(ctx context.Context, key string) (types.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (types.Setting, error)
}

// ContentService encapsulates public-content use-cases.
type ContentService struct {
	repo ContentRepository
}

func NewContentService(repo ContentRepository) *ContentService {
	return &ContentService{repo: repo}
}

func (s *ContentService) ListCommittee(ctx context.Context) ([]types.CommitteeMember, error) {
	return s.repo.ListCommittee(ctx)
}

func (s *ContentService) CreateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	return s.repo.CreateCommitteeMember(ctx, m)
}

func (s *ContentService) UpdateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	return s.repo.UpdateCommitteeMember(ctx, m)
}

func (s *ContentService) DeleteCommitteeMember(ctx context.Context, id int) error {
	return s.repo.DeleteCommitteeMember(ctx, id)
}

func (s *ContentService) ListSpeakers(ctx context.Context) ([]types.Speaker, error) {
	return s.repo.ListSpeakers(ctx)
}

func (s *ContentService) CreateSpeaker(ctx context.Context, speaker types.Speaker) (types.Speaker, error) {
	return s.repo.CreateSpeaker(ctx, speaker)
}

func (s *ContentService) UpdateSpeaker(ctx context.Context, speaker types.Speaker) (types.Speaker, error) {
	return s.repo.UpdateSpeaker(ctx, speaker)
}

func (s *ContentService) DeleteSpeaker(ctx context.Context, id int) error {
	return s.repo.DeleteSpeaker(ctx, id)
}

func (s *ContentService) ListEvents(ctx context.Context) ([]types.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *ContentService) CreateEvent(ctx context.Context, event types.Event) (types.Event, error) {
	return s.repo.CreateEvent(ctx, event)
}

func (s *ContentService) UpdateEvent(ctx context.Context, event types.Event) (types.Event, error) {
	return s.repo.UpdateEvent(ctx, event)
}

func (s *ContentService) DeleteEvent(ctx context.Context, id int) error {
	return s.repo.DeleteEvent(ctx, id)
}

func (s *ContentService) ListSettings(ctx context.Context) ([]types.Setting, error) {
	return s.repo.ListSettings(ctx)
}

func (s *ContentService) GetSetting(ctx context.Context, key string) (types.Setting, error) {
	return s.repo.GetSetting(ctx, key)
}

func (s *ContentService) UpsertSetting(ctx context.Context, key, value string) (types.Setting, error) {
	return s.repo.UpsertSetting(ctx, key, value)
}
