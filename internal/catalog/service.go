package catalog

import (
	"context"
	"fmt"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// Service coordinates catalogue and stock operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateProduct(ctx, Product{
		Name:      req.Name,
		SKU:       req.SKU,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, page, perPage int) ([]Product, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	products, total, err := s.repo.ListProducts(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(p.Page, p.PerPage, total), nil
}

func (s *Service) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, productID)
}

// PostMovement records a stock movement and updates the product quantity in
// one transaction. An outbound movement that would drive the quantity below
// zero is refused.
func (s *Service) PostMovement(ctx context.Context, productID int64, req PostMovementRequest) (*Product, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		product, err := repo.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		newQuantity := product.Quantity + req.Quantity
		if req.Direction == MovementOut {
			newQuantity = product.Quantity - req.Quantity
		}
		if newQuantity < 0 {
			return fmt.Errorf("%w: product %d has %v on hand, movement of %v refused",
				shared.ErrNegativeBalance, productID, product.Quantity, req.Quantity)
		}

		if _, err := repo.InsertMovement(ctx, StockMovement{
			ProductID: productID,
			Direction: req.Direction,
			Quantity:  req.Quantity,
			Note:      req.Note,
		}); err != nil {
			return err
		}
		return repo.SetProductQuantity(ctx, productID, newQuantity)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetProduct(ctx, productID)
}
