package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openconf/apiserver/types"
)

// PaperRepository handles persistence for paper submissions.
type PaperRepository struct {
	db *sql.DB
}

func NewPaperRepository(db *sql.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

const paperColumns = `
	id, user_id, title, abstract, file_key, file_name, status,
	COALESCE(decision_note, ''), COALESCE(decided_by, 0),
	created_at, updated_at`

func (r *PaperRepository) Get(ctx context.Context, id int) (types.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE id = $1`
	return scanPaper(r.db.QueryRowContext(ctx, query, id))
}

func (r *PaperRepository) ListByUser(ctx context.Context, userID int) ([]types.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPapers(rows)
}

// List returns a page of papers, optionally filtered by status.
func (r *PaperRepository) List(ctx context.Context, status string, offset, limit int) ([]types.Paper, int, error) {
	var total int
	if status == "" {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	var rows *sql.Rows
	var err error
	if status == "" {
		query := `SELECT ` + paperColumns + ` FROM papers ORDER BY created_at DESC OFFSET $1 LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, offset, limit)
	} else {
		query := `SELECT ` + paperColumns + ` FROM papers WHERE status = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`
		rows, err = r.db.QueryContext(ctx, query, status, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	papers, err := collectPapers(rows)
	return papers, total, err
}

func (r *PaperRepository) Create(ctx context.Context, paper types.Paper) (types.Paper, error) {
	now := time.Now()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	paper.Status = types.StatusPending

	const query = `
		INSERT INTO papers (user_id, title, abstract, file_key, file_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		paper.UserID,
		paper.Title,
		paper.Abstract,
		paper.FileKey,
		paper.FileName,
		paper.Status,
		paper.CreatedAt,
		paper.UpdatedAt,
	).Scan(&paper.ID); err != nil {
		return types.Paper{}, err
	}
	return paper, nil
}

// Decide moves a pending paper to approved or rejected. The WHERE
// clause only matches pending rows, so an already-decided paper is
// reported as ErrConflict rather than silently overwritten.
func (r *PaperRepository) Decide(ctx context.Context, id int, status, note string, decidedBy int) (types.Paper, error) {
	const query = `
		UPDATE papers
		SET status = $1,
			decision_note = $2,
			decided_by = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
		RETURNING ` + paperColumns
	paper, err := scanPaper(r.db.QueryRowContext(ctx, query, status, note, decidedBy, time.Now(), id, types.StatusPending))
	if err == nil {
		return paper, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Paper{}, err
	}

	// Distinguish a missing paper from one already decided.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return types.Paper{}, getErr
	}
	return types.Paper{}, ErrConflict
}

func (r *PaperRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM papers WHERE id = $1`, id)
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

func scanPaper(row *sql.Row) (types.Paper, error) {
	var paper types.Paper
	err := row.Scan(
		&paper.ID,
		&paper.UserID,
		&paper.Title,
		&paper.Abstract,
		&paper.FileKey,
		&paper.FileName,
		&paper.Status,
		&paper.DecisionNote,
		&paper.DecidedBy,
		&paper.CreatedAt,
		&paper.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Paper{}, ErrNotFound
		}
		return types.Paper{}, err
	}
	return paper, nil
}

func collectPapers(rows *sql.Rows) ([]types.Paper, error) {
	var papers []types.Paper
	for rows.Next() {
		var paper types.Paper
		if err := rows.Scan(
			&paper.ID,
			&paper.UserID,
			&paper.Title,
			&paper.Abstract,
			&paper.FileKey,
			&paper.FileName,
			&paper.Status,
			&paper.DecisionNote,
			&paper.DecidedBy,
			&paper.CreatedAt,
			&paper.UpdatedAt,
		); err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}
