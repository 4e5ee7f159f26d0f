package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Clearway/internal/domain"
)

// MessageRepo — репозиторий входящих сообщений (аудиторский след).
//
// Сырой XML сохраняется при поступлении, разобранная форма
// дописывается после успешной трансформации.
type MessageRepo struct {
	pool *pgxpool.Pool
}

// NewMessageRepo создаёт новый MessageRepo.
func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Create сохраняет входящее сообщение.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.RawMessage) error {
	query := `
		INSERT INTO messages (id, message_type, payload, received_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.MessageType, msg.Payload, msg.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByID возвращает сообщение по ID.
func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RawMessage, error) {
	query := `
		SELECT id, message_type, payload, received_at
		FROM messages
		WHERE id = $1
	`
	var msg domain.RawMessage
	err := r.pool.QueryRow(ctx, query, id).Scan(&msg.ID, &msg.MessageType, &msg.Payload, &msg.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return &msg, nil
}

// AttachParsed дописывает разобранную форму сообщения.
func (r *MessageRepo) AttachParsed(ctx context.Context, id uuid.UUID, parsed *domain.ParsedMessage) error {
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("marshal parsed message: %w", err)
	}

	query := `UPDATE messages SET parsed = $2 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, parsedJSON)
	if err != nil {
		return fmt.Errorf("attach parsed message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
