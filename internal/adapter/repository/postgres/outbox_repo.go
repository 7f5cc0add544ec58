package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	pool Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

const outboxColumns = `id, aggregate_id, aggregate_type, event_type, payload, created_at, published, published_at`

// Create records an outbox event inside tx, atomically with the change it
// describes.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO wallet_outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		event.ID, event.AggregateID, event.AggregateType, event.EventType,
		payload, event.CreatedAt, event.Published,
	)

	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `SELECT ` + outboxColumns + ` FROM wallet_outbox
		WHERE published = false ORDER BY created_at LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	query := `UPDATE wallet_outbox SET published = true, published_at = $1 WHERE id = $2`

	_, err := r.pool.Exec(ctx, query, publishedAt, id)

	return err
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	query := `DELETE FROM wallet_outbox WHERE published = true AND created_at < $1`

	_, err := r.pool.Exec(ctx, query, before)

	return err
}

func scanOutboxEvent(row pgx.Row) (*domain.OutboxEvent, error) {
	var (
		event   domain.OutboxEvent
		payload []byte
	)

	err := row.Scan(&event.ID, &event.AggregateID, &event.AggregateType, &event.EventType,
		&payload, &event.CreatedAt, &event.Published, &event.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("outbox event not found")
		}

		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
	}

	return &event, nil
}
