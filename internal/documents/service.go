package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hearth-erp/hearth-erp/internal/catalog"
	"github.com/hearth-erp/hearth-erp/internal/pricing"
	"github.com/hearth-erp/hearth-erp/internal/projects"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// CustomerDirectory resolves counterparty references.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (*projects.Customer, error)
}

// ProjectDirectory resolves project references.
type ProjectDirectory interface {
	GetProject(ctx context.Context, id int64) (*projects.Project, error)
}

// ProductCatalog resolves product references on line items.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// Service owns the commercial document lifecycle.
type Service struct {
	repo      RepositoryPort
	customers CustomerDirectory
	projects  ProjectDirectory
	products  ProductCatalog
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, customers CustomerDirectory, projectDir ProjectDirectory, products ProductCatalog) *Service {
	return &Service{repo: repo, customers: customers, projects: projectDir, products: products}
}

// DocumentDetail is a document with its payments and derived payment status.
type DocumentDetail struct {
	Document
	Payments     []Payment     `json:"payments,omitempty"`
	PaymentState PaymentStatus `json:"payment_status"`
}

// ConversionResult reports the invoice a conversion produced, and whether
// this call created it or found it already there.
type ConversionResult struct {
	Invoice    *Document `json:"invoice"`
	SourceKind Kind      `json:"source_kind"`
	Created    bool      `json:"created"`
}

// TransitionResult is a status change plus the invoice it may have produced.
type TransitionResult struct {
	Document   *Document         `json:"document"`
	Conversion *ConversionResult `json:"conversion,omitempty"`
}

// Create builds a document and its lines in one transaction. Line input is
// validated and priced before anything is written; a failing line insert
// rolls the parent back too.
func (s *Service) Create(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.customers.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	if req.ProjectID != nil {
		if _, err := s.projects.GetProject(ctx, *req.ProjectID); err != nil {
			return nil, fmt.Errorf("verify project: %w", err)
		}
	}

	lines, totals, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	docNumber, err := s.repo.GenerateNumber(ctx, req.Kind, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}

	doc := Document{
		Kind:            req.Kind,
		DocNumber:       docNumber,
		CustomerID:      req.CustomerID,
		ProjectID:       req.ProjectID,
		Status:          InitialStatus(req.Kind),
		Subtotal:        totals.Subtotal,
		DiscountTotal:   totals.DiscountTotal,
		TaxTotal:        totals.TaxTotal,
		FinalAmount:     totals.FinalAmount,
		RemainingAmount: totals.FinalAmount,
		Notes:           req.Notes,
	}

	var docID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		id, err := repo.Insert(ctx, doc)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		docID = id
		for _, line := range lines {
			line.DocumentID = docID
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, docID)
}

// Get returns a document with lines, payments and derived payment status.
func (s *Service) Get(ctx context.Context, id int64) (*DocumentDetail, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, Payments: payments, PaymentState: doc.PaymentStatus()}, nil
}

// List returns documents matching the filter.
func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]Document, shared.Pagination, error) {
	docs, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return docs, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// ReplaceLines swaps a mutable document's line set and recomputes totals.
func (s *Service) ReplaceLines(ctx context.Context, id int64, req ReplaceLinesRequest) (*Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	doc, err := s.ensureMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, totals, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		for _, line := range lines {
			line.DocumentID = id
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		remaining := totals.FinalAmount - doc.PaidAmount
		return repo.UpdateTotals(ctx, id, totals.Subtotal, totals.DiscountTotal, totals.TaxTotal,
			totals.FinalAmount, remaining)
	})
	if err != nil {
		return nil, fmt.Errorf("replace lines: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// SetTax applies a document-wide tax percent. The change cascades to every
// existing line, which is rebuilt with the new percent, and the document
// totals are re-derived from the rebuilt lines.
func (s *Service) SetTax(ctx context.Context, id int64, req SetTaxRequest) (*Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	doc, err := s.ensureMutable(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("%w: document has no lines", shared.ErrValidation)
	}

	var priced []pricing.PricedLine
	rebuilt := make([]Line, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		pl, err := pricing.Price(pricing.LineInput{
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			TaxPercent:      req.TaxPercent,
		})
		if err != nil {
			return nil, err
		}
		priced = append(priced, pl)
		l.TaxPercent = req.TaxPercent
		l.DiscountAmount = pl.DiscountAmount
		l.TaxAmount = pl.TaxAmount
		l.LineTotal = pl.Total
		rebuilt = append(rebuilt, l)
	}
	totals := pricing.CalculateDocumentTotals(priced)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		for _, line := range rebuilt {
			line.ID = 0
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		remaining := totals.FinalAmount - doc.PaidAmount
		return repo.UpdateTotals(ctx, id, totals.Subtotal, totals.DiscountTotal, totals.TaxTotal,
			totals.FinalAmount, remaining)
	})
	if err != nil {
		return nil, fmt.Errorf("set document tax: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// Transition moves a document to a new status. Approving a quote or
// company-signing a contract converts it in the same request; no other
// transition touches another entity.
func (s *Service) Transition(ctx context.Context, id int64, req TransitionRequest) (*TransitionResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(doc.Kind, doc.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s %s -> %s", shared.ErrInvalidStatus, doc.Kind, doc.Status, req.Status)
	}
	if triggersConversion(doc.Kind, req.Status) && len(doc.Lines) == 0 {
		return nil, fmt.Errorf("%w: cannot approve a document without line items", shared.ErrValidation)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		return repo.UpdateStatus(ctx, id, req.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	result := &TransitionResult{}
	if triggersConversion(doc.Kind, req.Status) {
		// The status update above has already committed. If the conversion
		// fails here the source stays approved with no invoice; a retry via
		// Convert picks it up, and the UNIQUE source constraint keeps the
		// retry single-shot.
		conv, err := s.Convert(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Conversion = conv
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Document = updated
	return result, nil
}

// Convert creates the invoice for an approved quote or company-signed
// contract. Converting the same source twice returns the existing invoice:
// the UNIQUE constraint on source_document_id makes the insert itself the
// duplicate check, so concurrent conversions cannot both create one.
func (s *Service) Convert(ctx context.Context, sourceID int64) (*ConversionResult, error) {
	src, err := s.repo.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.Kind == KindInvoice {
		return nil, fmt.Errorf("%w: an invoice has no conversion target", shared.ErrValidation)
	}
	if !convertibleStatus(src.Kind, src.Status) {
		return nil, fmt.Errorf("%w: %s in status %s cannot be converted", shared.ErrInvalidStatus, src.Kind, src.Status)
	}
	if len(src.Lines) == 0 {
		return nil, fmt.Errorf("%w: source document has no line items", shared.ErrValidation)
	}

	docNumber, err := s.repo.GenerateNumber(ctx, KindInvoice, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}

	invoice := Document{
		Kind:             KindInvoice,
		DocNumber:        docNumber,
		CustomerID:       src.CustomerID,
		ProjectID:        src.ProjectID,
		SourceDocumentID: &src.ID,
		Status:           StatusSold,
		Subtotal:         src.Subtotal,
		DiscountTotal:    src.DiscountTotal,
		TaxTotal:         src.TaxTotal,
		FinalAmount:      src.FinalAmount,
		PaidAmount:       0,
		RemainingAmount:  src.FinalAmount,
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		id, err := repo.Insert(ctx, invoice)
		if err != nil {
			return err
		}
		invoiceID = id
		for _, l := range src.Lines {
			l.ID = 0
			l.DocumentID = invoiceID
			if _, err := repo.InsertLine(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			existing, lookupErr := s.repo.GetBySource(ctx, sourceID)
			if lookupErr != nil {
				return nil, fmt.Errorf("%w: invoice exists but could not be loaded: %v", shared.ErrDuplicateConversion, lookupErr)
			}
			return &ConversionResult{Invoice: existing, SourceKind: src.Kind, Created: false}, nil
		}
		return nil, fmt.Errorf("convert document: %w", err)
	}

	created, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Invoice: created, SourceKind: src.Kind, Created: true}, nil
}

// RecordPayment appends a customer payment to an invoice and refreshes the
// stored paid and remaining amounts in the same transaction. The remaining
// amount is not clamped at the entity level.
func (s *Service) RecordPayment(ctx context.Context, documentID int64, req RecordPaymentRequest) (*DocumentDetail, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	doc, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Kind != KindInvoice {
		return nil, fmt.Errorf("%w: payments are recorded against invoices only", shared.ErrValidation)
	}

	payment := Payment{
		DocumentID:      documentID,
		Amount:          req.Amount,
		Method:          req.Method,
		PaidAt:          time.Now(),
		ReferenceNumber: uuid.NewString(),
		Notes:           req.Notes,
	}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}
	if req.ReferenceNumber != nil && *req.ReferenceNumber != "" {
		payment.ReferenceNumber = *req.ReferenceNumber
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if _, err := repo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		paid, err := repo.SumPayments(ctx, documentID)
		if err != nil {
			return err
		}
		return repo.UpdatePaid(ctx, documentID, paid, doc.FinalAmount-paid)
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	return s.Get(ctx, documentID)
}

// ensureMutable loads a document and refuses edits once it left its editable
// status or has already been converted.
func (s *Service) ensureMutable(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editableStatus(doc.Kind, doc.Status) {
		return nil, fmt.Errorf("%w: %s in status %s is frozen", shared.ErrInvalidStatus, doc.Kind, doc.Status)
	}
	if doc.Kind != KindInvoice {
		switch _, err := s.repo.GetBySource(ctx, id); {
		case err == nil:
			return nil, fmt.Errorf("%w: lines are frozen", shared.ErrDuplicateConversion)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, fmt.Errorf("check conversion: %w", err)
		}
	}
	return doc, nil
}

func (s *Service) buildLines(ctx context.Context, reqs []CreateLineRequest) ([]Line, pricing.DocumentTotals, error) {
	var priced []pricing.PricedLine
	lines := make([]Line, 0, len(reqs))
	for i, lr := range reqs {
		if _, err := s.products.GetProduct(ctx, lr.ProductID); err != nil {
			return nil, pricing.DocumentTotals{}, fmt.Errorf("verify product %d: %w", lr.ProductID, err)
		}
		pl, err := pricing.Price(pricing.LineInput{
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice,
			DiscountPercent: lr.DiscountPercent,
			TaxPercent:      lr.TaxPercent,
		})
		if err != nil {
			return nil, pricing.DocumentTotals{}, err
		}
		priced = append(priced, pl)

		line := Line{
			ProductID:       lr.ProductID,
			Description:     lr.Description,
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice,
			DiscountPercent: lr.DiscountPercent,
			DiscountAmount:  pl.DiscountAmount,
			TaxPercent:      lr.TaxPercent,
			TaxAmount:       pl.TaxAmount,
			LineTotal:       pl.Total,
			LineOrder:       lr.LineOrder,
		}
		if line.LineOrder == 0 {
			line.LineOrder = i + 1
		}
		lines = append(lines, line)
	}
	return lines, pricing.CalculateDocumentTotals(priced), nil
}
