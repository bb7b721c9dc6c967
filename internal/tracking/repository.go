package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/platform/db"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// TxRepository is the transactional surface: every record mutation writes
// the record and its transition row in the same transaction.
type TxRepository interface {
	InsertRecord(ctx context.Context, rec Record) (int64, error)
	InsertTransition(ctx context.Context, t Transition) error
	UpdateStatus(ctx context.Context, recordID int64, status Status) error
	UpdateStep(ctx context.Context, recordID int64, step Step) error
}

// RepositoryPort defines data access for tracking records.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error)
	ListTransitions(ctx context.Context, recordID int64) ([]Transition, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps the callback in a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repository) GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `SELECT id, invoice_id, status, current_step, created_at, updated_at
FROM tracking_records WHERE invoice_id = $1`, invoiceID).
		Scan(&rec.ID, &rec.InvoiceID, &rec.Status, &rec.CurrentStep, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %d is not tracked", shared.ErrNotFound, invoiceID)
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) ListTransitions(ctx context.Context, recordID int64) ([]Transition, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, record_id, field, from_value, to_value, created_at
FROM tracking_transitions WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.ID, &t.RecordID, &t.Field, &t.FromValue, &t.ToValue, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO tracking_records (invoice_id, status, current_step, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		rec.InvoiceID, rec.Status, rec.CurrentStep, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("tracking: insert record: %w", err)
	}
	return id, nil
}

func (r *txRepo) InsertTransition(ctx context.Context, t Transition) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO tracking_transitions (record_id, field, from_value, to_value, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		t.RecordID, t.Field, t.FromValue, t.ToValue, time.Now())
	if err != nil {
		return fmt.Errorf("tracking: insert transition: %w", err)
	}
	return err
}

func (r *txRepo) UpdateStatus(ctx context.Context, recordID int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE tracking_records SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), recordID)
	return err
}

func (r *txRepo) UpdateStep(ctx context.Context, recordID int64, step Step) error {
	_, err := r.tx.Exec(ctx, `UPDATE tracking_records SET current_step = $1, updated_at = $2 WHERE id = $3`,
		step, time.Now(), recordID)
	return err
}

// isUniqueViolation reports a PostgreSQL unique constraint violation. The
// UNIQUE index on invoice_id makes taking an invoice into tracking
// idempotent under concurrent calls.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
