package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/warmline/warmline/pkg/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres is the database-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL, runs pending migrations, and
// returns the store.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return goose.Up(db, "migrations")
}

func (p *Postgres) SaveTransfer(ctx context.Context, rec TransferRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO transfer_records
			(id, room_id, call_context, summary, summarizer, outgoing_identity, incoming_identity, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.RoomID, rec.CallContext, rec.Summary, rec.SummarizerName,
		rec.OutgoingIdentity, rec.IncomingIdentity, rec.Completed, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save transfer: %w", err)
	}
	return nil
}

func (p *Postgres) MarkCompleted(ctx context.Context, roomID string, completedAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE transfer_records
		SET completed = TRUE, completed_at = $2
		WHERE id = (
			SELECT id FROM transfer_records
			WHERE room_id = $1 AND NOT completed
			ORDER BY created_at DESC
			LIMIT 1
		)`, roomID, completedAt)
	if err != nil {
		return fmt.Errorf("mark transfer completed: %w", err)
	}
	return nil
}

func (p *Postgres) ListTransfers(ctx context.Context, roomID string, limit int) ([]TransferRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, call_context, summary, summarizer, outgoing_identity, incoming_identity,
		       completed, created_at, COALESCE(completed_at, 'epoch'::timestamptz)
		FROM transfer_records
		WHERE $1 = '' OR room_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		var rec TransferRecord
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.CallContext, &rec.Summary, &rec.SummarizerName,
			&rec.OutgoingIdentity, &rec.IncomingIdentity, &rec.Completed, &rec.CreatedAt, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) GetTransfer(ctx context.Context, id string) (TransferRecord, error) {
	var rec TransferRecord
	err := p.pool.QueryRow(ctx, `
		SELECT id, room_id, call_context, summary, summarizer, outgoing_identity, incoming_identity,
		       completed, created_at, COALESCE(completed_at, 'epoch'::timestamptz)
		FROM transfer_records
		WHERE id = $1`, id).
		Scan(&rec.ID, &rec.RoomID, &rec.CallContext, &rec.Summary, &rec.SummarizerName,
			&rec.OutgoingIdentity, &rec.IncomingIdentity, &rec.Completed, &rec.CreatedAt, &rec.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransferRecord{}, core.NewNotFoundError("transfer record not found: " + id)
	}
	if err != nil {
		return TransferRecord{}, fmt.Errorf("get transfer: %w", err)
	}
	return rec, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
