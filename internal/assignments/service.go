package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/hearth-erp/hearth-erp/internal/documents"
	"github.com/hearth-erp/hearth-erp/internal/projects"
	"github.com/hearth-erp/hearth-erp/internal/shared"
	"github.com/hearth-erp/hearth-erp/internal/teams"
)

// InvoiceDirectory resolves invoice references.
type InvoiceDirectory interface {
	Get(ctx context.Context, id int64) (*documents.DocumentDetail, error)
}

// ProjectDirectory resolves the project topology an invoice points at.
type ProjectDirectory interface {
	GetProject(ctx context.Context, id int64) (*projects.Project, error)
}

// TeamDirectory resolves subcontractor team references.
type TeamDirectory interface {
	GetTeam(ctx context.Context, id int64) (*teams.Team, error)
}

// Service creates and tracks priced job assignments.
type Service struct {
	repo       RepositoryPort
	invoices   InvoiceDirectory
	projectDir ProjectDirectory
	teamDir    TeamDirectory
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, invoices InvoiceDirectory, projectDir ProjectDirectory, teamDir TeamDirectory) *Service {
	return &Service{repo: repo, invoices: invoices, projectDir: projectDir, teamDir: teamDir}
}

// Create sizes and prices an assignment. The quantity comes from the
// invoice's project topology at this moment; later topology edits do not
// recompute existing assignments.
func (s *Service) Create(ctx context.Context, req CreateAssignmentRequest) (*Assignment, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	invoice, err := s.invoices.Get(ctx, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("verify invoice: %w", err)
	}
	if invoice.Kind != documents.KindInvoice {
		return nil, fmt.Errorf("%w: assignments attach to invoices, got %s", shared.ErrValidation, invoice.Kind)
	}
	if _, err := s.teamDir.GetTeam(ctx, req.TeamID); err != nil {
		return nil, fmt.Errorf("verify team: %w", err)
	}
	if invoice.ProjectID == nil {
		return nil, fmt.Errorf("%w: invoice %d has no project to size from", shared.ErrValidation, req.InvoiceID)
	}

	project, err := s.projectDir.GetProject(ctx, *invoice.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	quantity := projects.BillableUnits(project.Topology, req.JobType)
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: project %d sizes to zero units for %s",
			shared.ErrUnsizableProject, project.ID, req.JobType)
	}

	a := Assignment{
		InvoiceID:    req.InvoiceID,
		TeamID:       req.TeamID,
		JobType:      req.JobType,
		Quantity:     quantity,
		UnitPrice:    req.UnitPrice,
		Price:        float64(quantity) * req.UnitPrice,
		Status:       StatusAssigned,
		AssignedAt:   time.Now(),
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one assignment.
func (s *Service) Get(ctx context.Context, id int64) (*Assignment, error) {
	return s.repo.Get(ctx, id)
}

// List returns assignments matching the filter.
func (s *Service) List(ctx context.Context, req ListAssignmentsRequest) ([]Assignment, error) {
	return s.repo.List(ctx, req)
}

// UpdateStatus moves an assignment through its lifecycle, stamping the
// actual work window as it starts and completes.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Assignment, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, req.Status) {
		return nil, fmt.Errorf("%w: assignment %s -> %s", shared.ErrInvalidStatus, a.Status, req.Status)
	}

	now := time.Now()
	a.Status = req.Status
	switch req.Status {
	case StatusInProgress:
		a.ActualStart = &now
	case StatusCompleted:
		a.ActualEnd = &now
	}
	if err := s.repo.Update(ctx, *a); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
