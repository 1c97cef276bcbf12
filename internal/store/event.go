package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openconf/apiserver/types"
)

// ContentRepository handles persistence for the public site content:
// committee members, speakers, events, and settings.
type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) ListCommittee(ctx context.Context) ([]types.CommitteeMember, error) {
	const query = `
		SELECT id, name, role_title, affiliation, COALESCE(photo_url, ''), sort_order, created_at, updated_at
		FROM committee_members
		ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []types.CommitteeMember
	for rows.Next() {
		var m types.CommitteeMember
		if err := rows.Scan(&m.ID, &m.Name, &m.RoleTitle, &m.Affiliation, &m.PhotoURL, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ContentRepository) CreateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	const query = `
		INSERT INTO committee_members (name, role_title, affiliation, photo_url, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, m.Name, m.RoleTitle, m.Affiliation, m.PhotoURL, m.SortOrder, m.CreatedAt, m.UpdatedAt).Scan(&m.ID); err != nil {
		return types.CommitteeMember{}, err
	}
	return m, nil
}

func (r *ContentRepository) UpdateCommitteeMember(ctx context.Context, m types.CommitteeMember) (types.CommitteeMember, error) {
	m.UpdatedAt = time.Now()

	const query = `
		UPDATE committee_members
		SET name = $1, role_title = $2, affiliation = $3, photo_url = $4, sort_order = $5, updated_at = $6
		WHERE id = $7`
	if err := r.execExpectingRow(ctx, query, m.Name, m.RoleTitle, m.Affiliation, m.PhotoURL, m.SortOrder, m.UpdatedAt, m.ID); err != nil {
		return types.CommitteeMember{}, err
	}
	return m, nil
}

func (r *ContentRepository) DeleteCommitteeMember(ctx context.Context, id int) error {
	return r.execExpectingRow(ctx, `DELETE FROM committee_members WHERE id = $1`, id)
}

func (r *ContentRepository) ListSpeakers(ctx context.Context) ([]types.Speaker, error) {
	const query = `
		SELECT id, name, title, bio, COALESCE(photo_url, ''), COALESCE(talk_title, ''), created_at, updated_at
		FROM speakers
		ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var speakers []types.Speaker
	for rows.Next() {
		var s types.Speaker
		if err := rows.Scan(&s.ID, &s.Name, &s.Title, &s.Bio, &s.PhotoURL, &s.TalkTitle, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		speakers = append(speakers, s)
	}
	return speakers, rows.Err()
}

func (r *ContentRepository) CreateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error) {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	const query = `
		INSERT INTO speakers (name, title, bio, photo_url, talk_title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, s.Name, s.Title, s.Bio, s.PhotoURL, s.TalkTitle, s.CreatedAt, s.UpdatedAt).Scan(&s.ID); err != nil {
		return types.Speaker{}, err
	}
	return s, nil
}

func (r *ContentRepository) UpdateSpeaker(ctx context.Context, s types.Speaker) (types.Speaker, error) {
	s.UpdatedAt = time.Now()

	const query = `
		UPDATE speakers
		SET name = $1, title = $2, bio = $3, photo_url = $4, talk_title = $5, updated_at = $6
		WHERE id = $7`
	if err := r.execExpectingRow(ctx, query, s.Name, s.Title, s.Bio, s.PhotoURL, s.TalkTitle, s.UpdatedAt, s.ID); err != nil {
		return types.Speaker{}, err
	}
	return s, nil
}

func (r *ContentRepository) DeleteSpeaker(ctx context.Context, id int) error {
	return r.execExpectingRow(ctx, `DELETE FROM speakers WHERE id = $1`, id)
}

func (r *ContentRepository) ListEvents(ctx context.Context) ([]types.Event, error) {
	const query = `
		SELECT id, title, description, location, starts_at, ends_at, created_at, updated_at
		FROM events
		ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var e types.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *ContentRepository) CreateEvent(ctx context.Context, e types.Event) (types.Event, error) {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	const query = `
		INSERT INTO events (title, description, location, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.CreatedAt, e.UpdatedAt).Scan(&e.ID); err != nil {
		return types.Event{}, err
	}
	return e, nil
}

func (r *ContentRepository) UpdateEvent(ctx context.Context, e types.Event) (types.Event, error) {
	e.UpdatedAt = time.Now()

	const query = `
		UPDATE events
		SET title = $1, description = $2, location = $3, starts_at = $4, ends_at = $5, updated_at = $6
		WHERE id = $7`
	if err := r.execExpectingRow(ctx, query, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.UpdatedAt, e.ID); err != nil {
		return types.Event{}, err
	}
	return e, nil
}

func (r *ContentRepository) DeleteEvent(ctx context.Context, id int) error {
	return r.execExpectingRow(ctx, `DELETE FROM events WHERE id = $1`, id)
}

func (r *ContentRepository) ListSettings(ctx context.Context) ([]types.Setting, error) {
	const query = `SELECT key, value, updated_at FROM settings ORDER BY key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []types.Setting
	for rows.Next() {
		var s types.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *ContentRepository) GetSetting(ctx context.Context, key string) (types.Setting, error) {
	const query = `SELECT key, value, updated_at FROM settings WHERE key = $1`
	var s types.Setting
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Setting{}, ErrNotFound
		}
		return types.Setting{}, err
	}
	return s, nil
}

func (r *ContentRepository) UpsertSetting(ctx context.Context, key, value string) (types.Setting, error) {
	setting := types.Setting{Key: key, Value: value, UpdatedAt: time.Now()}

	const query = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.UpdatedAt); err != nil {
		return types.Setting{}, err
	}
	return setting, nil
}

func (r *ContentRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
