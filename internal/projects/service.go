package projects

import (
	"context"
	"fmt"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// Service handles customer and project reference data.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateCustomer(ctx, Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		TaxNumber: req.TaxNumber,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, page, perPage int) ([]Customer, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	customers, total, err := s.repo.ListCustomers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return customers, shared.NewPagination(p.Page, p.PerPage, total), nil
}

func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	id, err := s.repo.CreateProject(ctx, Project{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Address:    req.Address,
		Topology:   topologyFromRequest(req.Topology),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, id)
}

func (s *Service) GetProject(ctx context.Context, id int64) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

// UpdateTopology replaces a project's building structure. Existing
// assignments keep the quantity they were sized with at creation; a topology
// edit never recomputes them.
func (s *Service) UpdateTopology(ctx context.Context, projectID int64, req TopologyRequest) (*Project, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTopology(ctx, projectID, topologyFromRequest(req)); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

func (s *Service) ListProjectsByCustomer(ctx context.Context, customerID int64) ([]Project, error) {
	return s.repo.ListProjectsByCustomer(ctx, customerID)
}

func topologyFromRequest(req TopologyRequest) Topology {
	return Topology{
		Kind:               req.Kind,
		FloorCount:         req.FloorCount,
		ApartmentsByFloor:  req.ApartmentsByFloor,
		ApartmentsPerFloor: req.ApartmentsPerFloor,
		ShopCount:          req.ShopCount,
		DeviceCount:        req.DeviceCount,
	}
}
