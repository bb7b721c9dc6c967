package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/hearth-erp/hearth-erp/internal/catalog"
	"github.com/hearth-erp/hearth-erp/internal/projects"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

type memoryDocRepo struct {
	docs          map[int64]*Document
	lines         map[int64][]Line
	payments      map[int64][]Payment
	nextDocID     int64
	nextLineID    int64
	nextPaymentID int64
	seq           int64

	failLineInsertAfter int // 0 disables
	lineInserts         int
	failGetBySource     error
}

func newMemoryDocRepo() *memoryDocRepo {
	return &memoryDocRepo{
		docs:     make(map[int64]*Document),
		lines:    make(map[int64][]Line),
		payments: make(map[int64][]Payment),
	}
}

func (r *memoryDocRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	docsSnap := make(map[int64]Document, len(r.docs))
	for id, d := range r.docs {
		docsSnap[id] = *d
	}
	linesSnap := make(map[int64][]Line, len(r.lines))
	for id, ls := range r.lines {
		linesSnap[id] = append([]Line(nil), ls...)
	}
	paySnap := make(map[int64][]Payment, len(r.payments))
	for id, ps := range r.payments {
		paySnap[id] = append([]Payment(nil), ps...)
	}
	if err := fn(ctx, r); err != nil {
		r.docs = make(map[int64]*Document, len(docsSnap))
		for id := range docsSnap {
			d := docsSnap[id]
			r.docs[id] = &d
		}
		r.lines = linesSnap
		r.payments = paySnap
		return err
	}
	return nil
}

func (r *memoryDocRepo) Get(ctx context.Context, id int64) (*Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *d
	cp.Lines = append([]Line(nil), r.lines[id]...)
	return &cp, nil
}

func (r *memoryDocRepo) GetBySource(ctx context.Context, sourceID int64) (*Document, error) {
	if r.failGetBySource != nil {
		return nil, r.failGetBySource
	}
	for _, d := range r.docs {
		if d.SourceDocumentID != nil && *d.SourceDocumentID == sourceID {
			return r.Get(ctx, d.ID)
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryDocRepo) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	var out []Document
	for _, d := range r.docs {
		if req.Kind != nil && d.Kind != *req.Kind {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (r *memoryDocRepo) ListPayments(ctx context.Context, documentID int64) ([]Payment, error) {
	return append([]Payment(nil), r.payments[documentID]...), nil
}

func (r *memoryDocRepo) GenerateNumber(ctx context.Context, kind Kind, date time.Time) (string, error) {
	r.seq++
	return string(kind), nil
}

func (r *memoryDocRepo) Insert(ctx context.Context, d Document) (int64, error) {
	if d.SourceDocumentID != nil {
		for _, existing := range r.docs {
			if existing.SourceDocumentID != nil && *existing.SourceDocumentID == *d.SourceDocumentID {
				// Same error shape Postgres raises for the UNIQUE index.
				return 0, &pgconn.PgError{Code: "23505", ConstraintName: "documents_source_document_id_key"}
			}
		}
	}
	r.nextDocID++
	d.ID = r.nextDocID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.docs[d.ID] = &d
	return d.ID, nil
}

func (r *memoryDocRepo) InsertLine(ctx context.Context, l Line) (int64, error) {
	r.lineInserts++
	if r.failLineInsertAfter > 0 && r.lineInserts > r.failLineInsertAfter {
		return 0, errors.New("simulated line insert failure")
	}
	r.nextLineID++
	l.ID = r.nextLineID
	l.CreatedAt = time.Now()
	r.lines[l.DocumentID] = append(r.lines[l.DocumentID], l)
	return l.ID, nil
}

func (r *memoryDocRepo) DeleteLines(ctx context.Context, documentID int64) error {
	r.lines[documentID] = nil
	return nil
}

func (r *memoryDocRepo) UpdateTotals(ctx context.Context, id int64, subtotal, discountTotal, taxTotal, finalAmount, remaining float64) error {
	d, ok := r.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Subtotal = subtotal
	d.DiscountTotal = discountTotal
	d.TaxTotal = taxTotal
	d.FinalAmount = finalAmount
	d.RemainingAmount = remaining
	return nil
}

func (r *memoryDocRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	d, ok := r.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Status = status
	return nil
}

func (r *memoryDocRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	p.CreatedAt = time.Now()
	r.payments[p.DocumentID] = append(r.payments[p.DocumentID], p)
	return p.ID, nil
}

func (r *memoryDocRepo) SumPayments(ctx context.Context, documentID int64) (float64, error) {
	var sum float64
	for _, p := range r.payments[documentID] {
		sum += p.Amount
	}
	return sum, nil
}

func (r *memoryDocRepo) UpdatePaid(ctx context.Context, id int64, paid, remaining float64) error {
	d, ok := r.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.PaidAmount = paid
	d.RemainingAmount = remaining
	return nil
}

type stubDirectory struct{}

func (stubDirectory) GetCustomer(ctx context.Context, id int64) (*projects.Customer, error) {
	if id == 404 {
		return nil, shared.ErrNotFound
	}
	return &projects.Customer{ID: id, Name: "customer"}, nil
}

func (stubDirectory) GetProject(ctx context.Context, id int64) (*projects.Project, error) {
	if id == 404 {
		return nil, shared.ErrNotFound
	}
	return &projects.Project{ID: id, CustomerID: 1}, nil
}

func (stubDirectory) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if id == 404 {
		return nil, shared.ErrNotFound
	}
	return &catalog.Product{ID: id, Name: "product", UnitPrice: 100}, nil
}

func newTestService() (*Service, *memoryDocRepo) {
	repo := newMemoryDocRepo()
	dir := stubDirectory{}
	return NewService(repo, dir, dir, dir), repo
}

func quoteRequest(lines ...CreateLineRequest) CreateDocumentRequest {
	if len(lines) == 0 {
		lines = []CreateLineRequest{{ProductID: 1, Quantity: 3, UnitPrice: 100, DiscountPercent: 10, TaxPercent: 20}}
	}
	return CreateDocumentRequest{Kind: KindQuote, CustomerID: 1, Lines: lines}
}

func TestCreateComputesDocumentTotals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, quoteRequest(
		CreateLineRequest{ProductID: 1, Quantity: 3, UnitPrice: 100, DiscountPercent: 10, TaxPercent: 20},
		CreateLineRequest{ProductID: 2, Quantity: 2, UnitPrice: 50, TaxPercent: 20},
	))
	require.NoError(t, err)
	require.Equal(t, StatusPending, doc.Status)
	require.Len(t, doc.Lines, 2)
	require.InDelta(t, 30, doc.Lines[0].DiscountAmount, 1e-9)
	require.InDelta(t, 54, doc.Lines[0].TaxAmount, 1e-9)
	require.InDelta(t, 324, doc.Lines[0].LineTotal, 1e-9)

	var sum float64
	for _, l := range doc.Lines {
		sum += l.LineTotal
	}
	require.InDelta(t, sum, doc.FinalAmount, 1e-9)
	require.InDelta(t, doc.FinalAmount, doc.RemainingAmount, 1e-9)
}

func TestCreateRejectsInvalidLines(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, quoteRequest(CreateLineRequest{ProductID: 1, Quantity: -1, UnitPrice: 100}))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateDocumentRequest{Kind: KindQuote, CustomerID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, quoteRequest(CreateLineRequest{ProductID: 404, Quantity: 1, UnitPrice: 10}))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRollsBackOnLineFailure(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.failLineInsertAfter = 1

	_, err := svc.Create(ctx, quoteRequest(
		CreateLineRequest{ProductID: 1, Quantity: 1, UnitPrice: 10},
		CreateLineRequest{ProductID: 2, Quantity: 1, UnitPrice: 20},
	))
	require.Error(t, err)
	require.Empty(t, repo.docs, "parent document must not survive a failed line insert")
}

func TestApproveQuoteConvertsToInvoice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	result, err := svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, result.Document.Status)
	require.NotNil(t, result.Conversion)
	require.True(t, result.Conversion.Created)

	inv := result.Conversion.Invoice
	require.Equal(t, KindInvoice, inv.Kind)
	require.Equal(t, StatusSold, inv.Status)
	require.Equal(t, quote.ID, *inv.SourceDocumentID)
	require.InDelta(t, quote.FinalAmount, inv.FinalAmount, 1e-9)
	require.InDelta(t, 0, inv.PaidAmount, 1e-9)
	require.InDelta(t, inv.FinalAmount, inv.RemainingAmount, 1e-9)
	require.Equal(t, PaymentPending, inv.PaymentStatus())
	require.Len(t, inv.Lines, len(quote.Lines))
}

func TestConvertIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)

	first, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)
	require.False(t, first.Created)

	second, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.Invoice.ID, second.Invoice.ID)

	invoices := 0
	for _, d := range repo.docs {
		if d.Kind == KindInvoice {
			invoices++
		}
	}
	require.Equal(t, 1, invoices, "exactly one invoice per source")
}

func TestConvertPreconditions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	_, err = svc.Convert(ctx, quote.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus, "pending quote is not convertible")

	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)
	conv, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)

	_, err = svc.Convert(ctx, conv.Invoice.ID)
	require.ErrorIs(t, err, shared.ErrValidation, "invoices have no conversion target")
}

func TestContractCompanySignTriggersConversion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	contract, err := svc.Create(ctx, CreateDocumentRequest{
		Kind:       KindContract,
		CustomerID: 1,
		Lines:      []CreateLineRequest{{ProductID: 1, Quantity: 4, UnitPrice: 250, TaxPercent: 20}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, contract.Status)

	result, err := svc.Transition(ctx, contract.ID, TransitionRequest{Status: StatusCustomerSigned})
	require.NoError(t, err)
	require.Nil(t, result.Conversion, "customer signature alone does not convert")

	result, err = svc.Transition(ctx, contract.ID, TransitionRequest{Status: StatusCompanySigned})
	require.NoError(t, err)
	require.NotNil(t, result.Conversion)
	require.Equal(t, KindInvoice, result.Conversion.Invoice.Kind)
}

func TestTransitionRejectsUnknownEdges(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusActive})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusRejected})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.ErrorIs(t, err, shared.ErrInvalidStatus, "rejected is terminal")
}

func TestRecordPaymentDerivesPaymentStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest(CreateLineRequest{ProductID: 1, Quantity: 10, UnitPrice: 100}))
	require.NoError(t, err)
	result, err := svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)
	invoiceID := result.Conversion.Invoice.ID

	detail, err := svc.RecordPayment(ctx, invoiceID, RecordPaymentRequest{Amount: 400, Method: "bank_transfer"})
	require.NoError(t, err)
	require.InDelta(t, 400, detail.PaidAmount, 1e-9)
	require.InDelta(t, 600, detail.RemainingAmount, 1e-9)
	require.Equal(t, PaymentPartial, detail.PaymentState)
	require.NotEmpty(t, detail.Payments[0].ReferenceNumber)

	detail, err = svc.RecordPayment(ctx, invoiceID, RecordPaymentRequest{Amount: 700, Method: "cash"})
	require.NoError(t, err)
	require.InDelta(t, 1100, detail.PaidAmount, 1e-9)
	require.InDelta(t, -100, detail.RemainingAmount, 1e-9, "remaining amount is stored unclamped")
	require.Equal(t, PaymentPaid, detail.PaymentState)
}

func TestRecordPaymentOnlyOnInvoices(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, quote.ID, RecordPaymentRequest{Amount: 100, Method: "cash"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordPayment(ctx, quote.ID, RecordPaymentRequest{Amount: -5, Method: "cash"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSetTaxCascadesToEveryLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest(
		CreateLineRequest{ProductID: 1, Quantity: 2, UnitPrice: 100, TaxPercent: 8},
		CreateLineRequest{ProductID: 2, Quantity: 1, UnitPrice: 50, DiscountPercent: 10, TaxPercent: 8},
	))
	require.NoError(t, err)

	doc, err := svc.SetTax(ctx, quote.ID, SetTaxRequest{TaxPercent: 20})
	require.NoError(t, err)
	for _, l := range doc.Lines {
		require.InDelta(t, 20, l.TaxPercent, 1e-9)
	}
	require.InDelta(t, 2*100*1.2+50*0.9*1.2, doc.FinalAmount, 1e-9)
}

func TestLinesFreezeAfterConversion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)

	_, err = svc.ReplaceLines(ctx, quote.ID, ReplaceLinesRequest{
		Lines: []CreateLineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidStatus, "approved documents are frozen")
}

func TestReplaceLinesRecomputesTotals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	doc, err := svc.ReplaceLines(ctx, quote.ID, ReplaceLinesRequest{
		Lines: []CreateLineRequest{{ProductID: 1, Quantity: 5, UnitPrice: 40, TaxPercent: 10}},
	})
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	require.InDelta(t, 220, doc.FinalAmount, 1e-9)
	require.InDelta(t, 220, doc.RemainingAmount, 1e-9)
}

func TestLineDescriptionStaysOptional(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	note := "ground floor boiler"
	quote, err := svc.Create(ctx, quoteRequest(
		CreateLineRequest{ProductID: 1, Quantity: 1, UnitPrice: 100},
		CreateLineRequest{ProductID: 2, Quantity: 2, UnitPrice: 50, Description: &note},
	))
	require.NoError(t, err)
	require.Len(t, quote.Lines, 2)
	require.Nil(t, quote.Lines[0].Description)
	require.NotNil(t, quote.Lines[1].Description)
	require.Equal(t, note, *quote.Lines[1].Description)

	// Conversion copies the field as stored, nil included.
	result, err := svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.NoError(t, err)
	invoice := result.Conversion.Invoice
	require.Len(t, invoice.Lines, 2)
	require.Nil(t, invoice.Lines[0].Description)
	require.Equal(t, note, *invoice.Lines[1].Description)
}

func TestReplaceLinesPropagatesConversionCheckFailure(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	storeErr := errors.New("connection reset")
	repo.failGetBySource = storeErr
	_, err = svc.ReplaceLines(ctx, quote.ID, ReplaceLinesRequest{
		Lines: []CreateLineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
	})
	require.ErrorIs(t, err, storeErr, "a failed lookup is not proof of no conversion")

	repo.failGetBySource = nil
	_, err = svc.ReplaceLines(ctx, quote.ID, ReplaceLinesRequest{
		Lines: []CreateLineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
	})
	require.NoError(t, err)
}

func TestApproveSurvivesFailedConversion(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	quote, err := svc.Create(ctx, quoteRequest())
	require.NoError(t, err)

	repo.failLineInsertAfter = repo.lineInserts
	_, err = svc.Transition(ctx, quote.ID, TransitionRequest{Status: StatusApproved})
	require.Error(t, err)

	// The status change committed before the conversion attempt; the source
	// sits approved with no invoice until an explicit retry.
	doc, err := svc.Get(ctx, quote.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, doc.Status)
	_, err = repo.GetBySource(ctx, quote.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	repo.failLineInsertAfter = 0
	result, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Len(t, result.Invoice.Lines, 1)
	require.InDelta(t, doc.FinalAmount, result.Invoice.FinalAmount, 1e-9)
}
