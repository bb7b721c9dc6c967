package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

type memoryCatalogRepo struct {
	products  map[int64]*Product
	movements map[int64][]StockMovement
	nextID    int64
	nextMovID int64
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		products:  make(map[int64]*Product),
		movements: make(map[int64][]StockMovement),
	}
}

func (r *memoryCatalogRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Product, len(r.products))
	for id, p := range r.products {
		snapshot[id] = *p
	}
	movCount := make(map[int64]int, len(r.movements))
	for id, m := range r.movements {
		movCount[id] = len(m)
	}
	if err := fn(ctx, r); err != nil {
		for id := range r.products {
			p := snapshot[id]
			r.products[id] = &p
		}
		for id := range r.movements {
			r.movements[id] = r.movements[id][:movCount[id]]
		}
		return err
	}
	return nil
}

func (r *memoryCatalogRepo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = &p
	return p.ID, nil
}

func (r *memoryCatalogRepo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryCatalogRepo) GetProductForUpdate(ctx context.Context, id int64) (*Product, error) {
	return r.GetProduct(ctx, id)
}

func (r *memoryCatalogRepo) ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryCatalogRepo) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	return r.movements[productID], nil
}

func (r *memoryCatalogRepo) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	r.nextMovID++
	m.ID = r.nextMovID
	m.CreatedAt = time.Now()
	r.movements[m.ProductID] = append(r.movements[m.ProductID], m)
	return m.ID, nil
}

func (r *memoryCatalogRepo) SetProductQuantity(ctx context.Context, productID int64, quantity float64) error {
	p, ok := r.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Quantity = quantity
	return nil
}

func TestPostMovementAdjustsQuantity(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Combi boiler", UnitPrice: 1500, Quantity: 10})
	require.NoError(t, err)

	product, err = svc.PostMovement(ctx, product.ID, PostMovementRequest{Direction: MovementOut, Quantity: 4})
	require.NoError(t, err)
	require.InDelta(t, 6, product.Quantity, 1e-9)

	product, err = svc.PostMovement(ctx, product.ID, PostMovementRequest{Direction: MovementIn, Quantity: 1})
	require.NoError(t, err)
	require.InDelta(t, 7, product.Quantity, 1e-9)

	movements, err := svc.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
}

func TestPostMovementRefusesNegativeBalance(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Radiator", UnitPrice: 90, Quantity: 3})
	require.NoError(t, err)

	_, err = svc.PostMovement(ctx, product.ID, PostMovementRequest{Direction: MovementOut, Quantity: 5})
	require.ErrorIs(t, err, shared.ErrNegativeBalance)

	// The refused movement leaves no trace.
	product, err = svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.InDelta(t, 3, product.Quantity, 1e-9)
	movements, err := svc.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestPostMovementValidatesInput(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Valve", UnitPrice: 12, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.PostMovement(ctx, product.ID, PostMovementRequest{Direction: MovementOut, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.PostMovement(ctx, product.ID, PostMovementRequest{Direction: "sideways", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}
