package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// RepositoryPort defines data access for assignments.
type RepositoryPort interface {
	Create(ctx context.Context, a Assignment) (int64, error)
	Get(ctx context.Context, id int64) (*Assignment, error)
	List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentColumns = `id, invoice_id, team_id, job_type, quantity, unit_price, price, status,
assigned_at, planned_start, planned_end, actual_start, actual_end, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, a Assignment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO assignments
(invoice_id, team_id, job_type, quantity, unit_price, price, status, assigned_at,
planned_start, planned_end, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		a.InvoiceID, a.TeamID, a.JobType, a.Quantity, a.UnitPrice, a.Price, a.Status, a.AssignedAt,
		a.PlannedStart, a.PlannedEnd, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("assignments: create: %w", err)
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id).
		Scan(&a.ID, &a.InvoiceID, &a.TeamID, &a.JobType, &a.Quantity, &a.UnitPrice, &a.Price, &a.Status,
			&a.AssignedAt, &a.PlannedStart, &a.PlannedEnd, &a.ActualStart, &a.ActualEnd, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: assignment %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, error) {
	where := " WHERE 1=1"
	var args []any
	if req.TeamID != nil {
		args = append(args, *req.TeamID)
		where += fmt.Sprintf(" AND team_id = $%d", len(args))
	}
	if req.InvoiceID != nil {
		args = append(args, *req.InvoiceID)
		where += fmt.Sprintf(" AND invoice_id = $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, `SELECT `+assignmentColumns+` FROM assignments`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.InvoiceID, &a.TeamID, &a.JobType, &a.Quantity, &a.UnitPrice, &a.Price,
			&a.Status, &a.AssignedAt, &a.PlannedStart, &a.PlannedEnd, &a.ActualStart, &a.ActualEnd,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, a Assignment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE assignments SET status = $2, actual_start = $3, actual_end = $4,
updated_at = $5 WHERE id = $1`, a.ID, a.Status, a.ActualStart, a.ActualEnd, time.Now())
	if err != nil {
		return fmt.Errorf("assignments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: assignment %d", shared.ErrNotFound, a.ID)
	}
	return nil
}
