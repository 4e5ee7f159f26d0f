package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Clearway/internal/domain"
)

// SubmissionRepo — репозиторий записей об отправках в расчётную сеть.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepo создаёт новый SubmissionRepo.
func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// Create создаёт запись об отправке.
func (r *SubmissionRepo) Create(ctx context.Context, sub *domain.SubmissionRecord) error {
	query := `
		INSERT INTO submissions (id, message_id, transaction_hash, status, fees,
		                         retry_count, prior_tx_hash, error, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.MessageID,
		sub.TransactionHash,
		sub.Status,
		sub.Fees,
		sub.RetryCount,
		nullString(sub.PriorTxHash),
		nullString(sub.Error),
		sub.SubmittedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetByID возвращает запись по ID.
func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SubmissionRecord, error) {
	query := selectSubmission + ` WHERE id = $1`
	return r.scanSubmission(r.pool.QueryRow(ctx, query, id))
}

// GetByMessageID возвращает запись по идентификатору сообщения.
func (r *SubmissionRepo) GetByMessageID(ctx context.Context, messageID string) (*domain.SubmissionRecord, error) {
	query := selectSubmission + ` WHERE message_id = $1`
	return r.scanSubmission(r.pool.QueryRow(ctx, query, messageID))
}

// Update обновляет запись.
func (r *SubmissionRepo) Update(ctx context.Context, sub *domain.SubmissionRecord) error {
	query := `
		UPDATE submissions
		SET transaction_hash = $2, status = $3, fees = $4, retry_count = $5,
		    prior_tx_hash = $6, error = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.TransactionHash,
		sub.Status,
		sub.Fees,
		sub.RetryCount,
		nullString(sub.PriorTxHash),
		nullString(sub.Error),
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List возвращает записи с фильтрацией.
func (r *SubmissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]domain.SubmissionRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := selectSubmission + `
		WHERE ($1::text IS NULL OR status = $1::submission_status)
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListUnsettled возвращает записи в нетерминальных статусах —
// кандидатов для сверки с сетью.
func (r *SubmissionRepo) ListUnsettled(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	query := selectSubmission + `
		WHERE status IN ('PENDING', 'PROCESSING', 'RETRYING')
		ORDER BY updated_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsettled submissions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// --- Helpers ---

// SubmissionFilter — параметры фильтрации записей.
type SubmissionFilter struct {
	Status domain.SubmissionStatus
	Limit  int
	Offset int
}

const selectSubmission = `
	SELECT id, message_id, transaction_hash, status, fees,
	       retry_count, prior_tx_hash, error, submitted_at, updated_at
	FROM submissions
`

func (r *SubmissionRepo) collect(rows pgx.Rows) ([]domain.SubmissionRecord, error) {
	var subs []domain.SubmissionRecord
	for rows.Next() {
		sub, err := r.scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// scanSubmission сканирует одну строку в SubmissionRecord.
func (r *SubmissionRepo) scanSubmission(row pgx.Row) (*domain.SubmissionRecord, error) {
	var (
		sub         domain.SubmissionRecord
		priorTxHash *string
		subError    *string
	)
	err := row.Scan(
		&sub.ID,
		&sub.MessageID,
		&sub.TransactionHash,
		&sub.Status,
		&sub.Fees,
		&sub.RetryCount,
		&priorTxHash,
		&subError,
		&sub.SubmittedAt,
		&sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	if priorTxHash != nil {
		sub.PriorTxHash = *priorTxHash
	}
	if subError != nil {
		sub.Error = *subError
	}

	return &sub, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
