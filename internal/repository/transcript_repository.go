// Package repository provides Postgres-backed persistence for archived
// transcripts.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// TranscriptRepository encapsulates transcript archive persistence.
type TranscriptRepository interface {
	Create(ctx context.Context, record *domain.TranscriptRecord) error
	GetByID(ctx context.Context, id string) (*domain.TranscriptRecord, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]domain.TranscriptRecord, error)
}

type transcriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository instantiates the repository.
func NewTranscriptRepository(pool *pgxpool.Pool) TranscriptRepository {
	return &transcriptRepository{pool: pool}
}

func (r *transcriptRepository) Create(ctx context.Context, record *domain.TranscriptRecord) error {
	const query = `
        INSERT INTO transcripts (id, workspace_id, ticket_name, owner_id, closed_by_id, reason, content)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		record.ID,
		record.WorkspaceID,
		record.TicketName,
		record.OwnerID,
		record.ClosedByID,
		record.Reason,
		record.Content,
	).Scan(&record.CreatedAt)
}

func (r *transcriptRepository) GetByID(ctx context.Context, id string) (*domain.TranscriptRecord, error) {
	const query = `
        SELECT id, workspace_id, ticket_name, owner_id, closed_by_id, reason, content, created_at
        FROM transcripts WHERE id=$1`
	record := &domain.TranscriptRecord{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.WorkspaceID,
		&record.TicketName,
		&record.OwnerID,
		&record.ClosedByID,
		&record.Reason,
		&record.Content,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *transcriptRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]domain.TranscriptRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const query = `
        SELECT id, workspace_id, ticket_name, owner_id, closed_by_id, reason, created_at
        FROM transcripts WHERE workspace_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TranscriptRecord
	for rows.Next() {
		var record domain.TranscriptRecord
		if err := rows.Scan(
			&record.ID,
			&record.WorkspaceID,
			&record.TicketName,
			&record.OwnerID,
			&record.ClosedByID,
			&record.Reason,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// IsNotFound reports whether a repository error means the row is absent.
func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
