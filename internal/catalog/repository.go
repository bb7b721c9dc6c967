package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/platform/db"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// TxRepository exposes the writes that must share one transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (*Product, error)
	InsertMovement(ctx context.Context, m StockMovement) (int64, error)
	SetProductQuantity(ctx context.Context, productID int64, quantity float64) error
}

// RepositoryPort defines data access for the catalogue.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateProduct(ctx context.Context, p Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error)
	ListMovements(ctx context.Context, productID int64) ([]StockMovement, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, sku, unit_price, quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, p.Name, p.SKU, p.UnitPrice, p.Quantity, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("catalog: create product: %w", err)
	}
	return id, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT id, name, sku, unit_price, quantity, created_at, updated_at
FROM products WHERE id = $1`, id), id)
}

func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, sku, unit_price, quantity, created_at, updated_at
FROM products ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.UnitPrice, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *Repository) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, direction, quantity, note, created_at
FROM stock_movements WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Direction, &m.Quantity, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT id, name, sku, unit_price, quantity, created_at, updated_at
FROM products WHERE id = $1 FOR UPDATE`, id), id)
}

func (t *txRepo) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_movements (product_id, direction, quantity, note, created_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, m.ProductID, m.Direction, m.Quantity, m.Note, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("catalog: insert movement: %w", err)
	}
	return id, nil
}

func (t *txRepo) SetProductQuantity(ctx context.Context, productID int64, quantity float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE products SET quantity = $2, updated_at = $3 WHERE id = $1`,
		productID, quantity, time.Now())
	return err
}

func scanProduct(row pgx.Row, id int64) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.UnitPrice, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}
