package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// RepositoryPort defines data access for customers and projects.
type RepositoryPort interface {
	CreateCustomer(ctx context.Context, c Customer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, int, error)
	CreateProject(ctx context.Context, p Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	UpdateTopology(ctx context.Context, projectID int64, t Topology) error
	ListProjectsByCustomer(ctx context.Context, customerID int64) ([]Project, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO customers (name, phone, address, tax_number, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, c.Name, c.Phone, c.Address, c.TaxNumber, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("projects: create customer: %w", err)
	}
	return id, nil
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, address, tax_number, created_at, updated_at
FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.TaxNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListCustomers(ctx context.Context, limit, offset int) ([]Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, address, tax_number, created_at, updated_at
FROM customers ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.TaxNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *Repository) CreateProject(ctx context.Context, p Project) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO projects
(customer_id, name, address, kind, floor_count, apartments_by_floor, apartments_per_floor, shop_count, device_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		p.CustomerID, p.Name, p.Address, p.Topology.Kind, p.Topology.FloorCount, p.Topology.ApartmentsByFloor,
		p.Topology.ApartmentsPerFloor, p.Topology.ShopCount, p.Topology.DeviceCount, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("projects: create project: %w", err)
	}
	return id, nil
}

func (r *Repository) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `SELECT id, customer_id, name, address, kind, floor_count, apartments_by_floor,
apartments_per_floor, shop_count, device_count, created_at, updated_at
FROM projects WHERE id = $1`, id).Scan(&p.ID, &p.CustomerID, &p.Name, &p.Address, &p.Topology.Kind,
		&p.Topology.FloorCount, &p.Topology.ApartmentsByFloor, &p.Topology.ApartmentsPerFloor,
		&p.Topology.ShopCount, &p.Topology.DeviceCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) UpdateTopology(ctx context.Context, projectID int64, t Topology) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET kind = $2, floor_count = $3, apartments_by_floor = $4,
apartments_per_floor = $5, shop_count = $6, device_count = $7, updated_at = $8 WHERE id = $1`,
		projectID, t.Kind, t.FloorCount, t.ApartmentsByFloor, t.ApartmentsPerFloor, t.ShopCount, t.DeviceCount, time.Now())
	if err != nil {
		return fmt.Errorf("projects: update topology: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project %d", shared.ErrNotFound, projectID)
	}
	return nil
}

func (r *Repository) ListProjectsByCustomer(ctx context.Context, customerID int64) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, name, address, kind, floor_count, apartments_by_floor,
apartments_per_floor, shop_count, device_count, created_at, updated_at
FROM projects WHERE customer_id = $1 ORDER BY id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name, &p.Address, &p.Topology.Kind, &p.Topology.FloorCount,
			&p.Topology.ApartmentsByFloor, &p.Topology.ApartmentsPerFloor, &p.Topology.ShopCount,
			&p.Topology.DeviceCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
