package tracking

import (
	"context"
	"fmt"

	"github.com/hearth-erp/hearth-erp/internal/documents"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// InvoiceDirectory resolves invoice references.
type InvoiceDirectory interface {
	Get(ctx context.Context, id int64) (*documents.DocumentDetail, error)
}

// Service maintains per-invoice tracking records and their transition log.
type Service struct {
	repo           RepositoryPort
	invoices       InvoiceDirectory
	enforceForward bool
}

// NewService builds a Service instance. With enforceForward set, moving the
// current step to an earlier position in the sequence is rejected.
func NewService(repo RepositoryPort, invoices InvoiceDirectory, enforceForward bool) *Service {
	return &Service{repo: repo, invoices: invoices, enforceForward: enforceForward}
}

// Take puts an invoice into tracking. The record starts at status sold with
// no current step. Taking an already tracked invoice returns the existing
// record.
func (s *Service) Take(ctx context.Context, invoiceID int64) (*Record, error) {
	doc, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("verify invoice: %w", err)
	}
	if doc.Kind != documents.KindInvoice {
		return nil, fmt.Errorf("%w: tracking attaches to invoices, got %s", shared.ErrValidation, doc.Kind)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertRecord(ctx, Record{InvoiceID: invoiceID, Status: StatusSold})
		if err != nil {
			return err
		}
		return tx.InsertTransition(ctx, Transition{
			RecordID: id,
			Field:    FieldStatus,
			ToValue:  string(StatusSold),
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return s.repo.GetByInvoice(ctx, invoiceID)
		}
		return nil, err
	}
	return s.repo.GetByInvoice(ctx, invoiceID)
}

// Get returns the record and its full transition history.
func (s *Service) Get(ctx context.Context, invoiceID int64) (*Detail, error) {
	rec, err := s.repo.GetByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	transitions, err := s.repo.ListTransitions(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Record: *rec, Transitions: transitions}, nil
}

// SetStatus moves the lifecycle marker and logs the change. Any status may
// follow any other; the marker is operator-driven.
func (s *Service) SetStatus(ctx context.Context, invoiceID int64, req SetStatusRequest) (*Record, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if rec.Status == req.Status {
		return rec, nil
	}

	from := string(rec.Status)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStatus(ctx, rec.ID, req.Status); err != nil {
			return err
		}
		return tx.InsertTransition(ctx, Transition{
			RecordID:  rec.ID,
			Field:     FieldStatus,
			FromValue: &from,
			ToValue:   string(req.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByInvoice(ctx, invoiceID)
}

// SetStep moves the current installation step and logs the change. Backward
// movement is a correction mechanism and stays allowed unless the service
// was configured to enforce forward-only progression.
func (s *Service) SetStep(ctx context.Context, invoiceID int64, req SetStepRequest) (*Record, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if s.enforceForward && rec.CurrentStep != nil && StepIndex(req.Step) < StepIndex(*rec.CurrentStep) {
		return nil, fmt.Errorf("%w: step %s is earlier than current step %s",
			shared.ErrValidation, req.Step, *rec.CurrentStep)
	}

	var from *string
	if rec.CurrentStep != nil {
		v := string(*rec.CurrentStep)
		from = &v
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStep(ctx, rec.ID, req.Step); err != nil {
			return err
		}
		return tx.InsertTransition(ctx, Transition{
			RecordID:  rec.ID,
			Field:     FieldStep,
			FromValue: from,
			ToValue:   string(req.Step),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByInvoice(ctx, invoiceID)
}
