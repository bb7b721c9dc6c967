package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// TeamTotals is the raw aggregate the dashboard is built from.
type TeamTotals struct {
	TeamID    int64
	TeamName  string
	TotalWork float64
	TotalPaid float64
}

// RepositoryPort defines data access for teams and their ledger.
type RepositoryPort interface {
	CreateTeam(ctx context.Context, t Team) (int64, error)
	GetTeam(ctx context.Context, id int64) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	CreatePayment(ctx context.Context, p Payment) (int64, error)
	ListPayments(ctx context.Context, teamID int64) ([]Payment, error)
	AssignmentTeam(ctx context.Context, assignmentID int64) (int64, error)
	SumAssignmentPrices(ctx context.Context, teamID int64) (float64, error)
	SumPayments(ctx context.Context, teamID int64) (float64, error)
	AssignmentBalances(ctx context.Context, teamID int64) ([]AssignmentBalance, error)
	AllTeamTotals(ctx context.Context) ([]TeamTotals, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateTeam(ctx context.Context, t Team) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO teams (name, specialty, phone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4) RETURNING id`, t.Name, t.Specialty, t.Phone, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("teams: create: %w", err)
	}
	return id, nil
}

func (r *Repository) GetTeam(ctx context.Context, id int64) (*Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, `SELECT id, name, specialty, phone, created_at, updated_at
FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.Specialty, &t.Phone, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: team %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, specialty, phone, created_at, updated_at
FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Specialty, &t.Phone, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO team_payments
(team_id, assignment_id, amount, method, paid_at, reference_number, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.TeamID, p.AssignmentID, p.Amount, p.Method, p.PaidAt, p.ReferenceNumber, p.Notes, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("teams: create payment: %w", err)
	}
	return id, nil
}

func (r *Repository) ListPayments(ctx context.Context, teamID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, team_id, assignment_id, amount, method, paid_at,
reference_number, notes, created_at FROM team_payments WHERE team_id = $1 ORDER BY paid_at, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.TeamID, &p.AssignmentID, &p.Amount, &p.Method, &p.PaidAt,
			&p.ReferenceNumber, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) AssignmentTeam(ctx context.Context, assignmentID int64) (int64, error) {
	var teamID int64
	err := r.pool.QueryRow(ctx, `SELECT team_id FROM assignments WHERE id = $1`, assignmentID).Scan(&teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: assignment %d", shared.ErrNotFound, assignmentID)
		}
		return 0, err
	}
	return teamID, nil
}

func (r *Repository) SumAssignmentPrices(ctx context.Context, teamID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(price), 0) FROM assignments WHERE team_id = $1`,
		teamID).Scan(&sum)
	return sum, err
}

func (r *Repository) SumPayments(ctx context.Context, teamID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM team_payments WHERE team_id = $1`,
		teamID).Scan(&sum)
	return sum, err
}

func (r *Repository) AssignmentBalances(ctx context.Context, teamID int64) ([]AssignmentBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.job_type, a.price, COALESCE(SUM(tp.amount), 0) AS paid
FROM assignments a
LEFT JOIN team_payments tp ON tp.assignment_id = a.id
WHERE a.team_id = $1
GROUP BY a.id, a.job_type, a.price
ORDER BY a.id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AssignmentBalance
	for rows.Next() {
		var b AssignmentBalance
		if err := rows.Scan(&b.AssignmentID, &b.JobType, &b.Price, &b.Paid); err != nil {
			return nil, err
		}
		b.Remaining = b.Price - b.Paid
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) AllTeamTotals(ctx context.Context) ([]TeamTotals, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name,
COALESCE((SELECT SUM(a.price) FROM assignments a WHERE a.team_id = t.id), 0) AS total_work,
COALESCE((SELECT SUM(tp.amount) FROM team_payments tp WHERE tp.team_id = t.id), 0) AS total_paid
FROM teams t ORDER BY t.name, t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TeamTotals
	for rows.Next() {
		var tt TeamTotals
		if err := rows.Scan(&tt.TeamID, &tt.TeamName, &tt.TotalWork, &tt.TotalPaid); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
