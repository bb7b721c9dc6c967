package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/hearth-erp/hearth-erp/internal/documents"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

type memoryTrackingRepo struct {
	records     map[int64]*Record
	transitions []Transition
	nextRecID   int64
	nextTranID  int64
}

func newMemoryTrackingRepo() *memoryTrackingRepo {
	return &memoryTrackingRepo{records: make(map[int64]*Record)}
}

func (r *memoryTrackingRepo) snapshot() *memoryTrackingRepo {
	cp := &memoryTrackingRepo{
		records:    make(map[int64]*Record, len(r.records)),
		nextRecID:  r.nextRecID,
		nextTranID: r.nextTranID,
	}
	for id, rec := range r.records {
		c := *rec
		cp.records[id] = &c
	}
	cp.transitions = append(cp.transitions, r.transitions...)
	return cp
}

func (r *memoryTrackingRepo) restore(snap *memoryTrackingRepo) {
	r.records = snap.records
	r.transitions = snap.transitions
	r.nextRecID = snap.nextRecID
	r.nextTranID = snap.nextTranID
}

func (r *memoryTrackingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.snapshot()
	if err := fn(ctx, (*memoryTrackingTx)(r)); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryTrackingRepo) GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error) {
	for _, rec := range r.records {
		if rec.InvoiceID == invoiceID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryTrackingRepo) ListTransitions(ctx context.Context, recordID int64) ([]Transition, error) {
	var out []Transition
	for _, t := range r.transitions {
		if t.RecordID == recordID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memoryTrackingTx memoryTrackingRepo

func (r *memoryTrackingTx) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	for _, existing := range r.records {
		if existing.InvoiceID == rec.InvoiceID {
			return 0, &pgconn.PgError{Code: "23505", ConstraintName: "tracking_records_invoice_id_key"}
		}
	}
	r.nextRecID++
	rec.ID = r.nextRecID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	r.records[rec.ID] = &rec
	return rec.ID, nil
}

func (r *memoryTrackingTx) InsertTransition(ctx context.Context, t Transition) error {
	r.nextTranID++
	t.ID = r.nextTranID
	t.CreatedAt = time.Now()
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *memoryTrackingTx) UpdateStatus(ctx context.Context, recordID int64, status Status) error {
	rec, ok := r.records[recordID]
	if !ok {
		return shared.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	return nil
}

func (r *memoryTrackingTx) UpdateStep(ctx context.Context, recordID int64, step Step) error {
	rec, ok := r.records[recordID]
	if !ok {
		return shared.ErrNotFound
	}
	s := step
	rec.CurrentStep = &s
	rec.UpdatedAt = time.Now()
	return nil
}

type stubInvoices struct {
	byID map[int64]*documents.DocumentDetail
}

func (s *stubInvoices) Get(ctx context.Context, id int64) (*documents.DocumentDetail, error) {
	d, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return d, nil
}

func trackingFixture(enforceForward bool) (*Service, *memoryTrackingRepo) {
	repo := newMemoryTrackingRepo()
	invoices := &stubInvoices{byID: map[int64]*documents.DocumentDetail{
		10: {Document: documents.Document{ID: 10, Kind: documents.KindInvoice}},
		11: {Document: documents.Document{ID: 11, Kind: documents.KindQuote}},
	}}
	return NewService(repo, invoices, enforceForward), repo
}

func TestTakeIntoTracking(t *testing.T) {
	svc, repo := trackingFixture(false)
	ctx := context.Background()

	rec, err := svc.Take(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, StatusSold, rec.Status)
	require.Nil(t, rec.CurrentStep)

	transitions, err := repo.ListTransitions(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	require.Equal(t, FieldStatus, transitions[0].Field)
	require.Nil(t, transitions[0].FromValue)
	require.Equal(t, string(StatusSold), transitions[0].ToValue)
}

func TestTakeIsIdempotent(t *testing.T) {
	svc, repo := trackingFixture(false)
	ctx := context.Background()

	first, err := svc.Take(ctx, 10)
	require.NoError(t, err)
	again, err := svc.Take(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Len(t, repo.records, 1)
}

func TestTakeRejections(t *testing.T) {
	svc, _ := trackingFixture(false)
	ctx := context.Background()

	_, err := svc.Take(ctx, 11)
	require.ErrorIs(t, err, shared.ErrValidation, "only invoices are tracked")

	_, err = svc.Take(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetStepBackwardAllowedByDefault(t *testing.T) {
	svc, _ := trackingFixture(false)
	ctx := context.Background()

	_, err := svc.Take(ctx, 10)
	require.NoError(t, err)

	rec, err := svc.SetStep(ctx, 10, SetStepRequest{Step: StepProject})
	require.NoError(t, err)
	require.Equal(t, StepProject, *rec.CurrentStep)

	// Moving back to a lower-index step is a correction, not an error.
	rec, err = svc.SetStep(ctx, 10, SetStepRequest{Step: StepBoilerInstall})
	require.NoError(t, err)
	require.Equal(t, StepBoilerInstall, *rec.CurrentStep)

	detail, err := svc.Get(ctx, 10)
	require.NoError(t, err)
	require.Len(t, detail.Transitions, 3)
	last := detail.Transitions[2]
	require.Equal(t, FieldStep, last.Field)
	require.NotNil(t, last.FromValue)
	require.Equal(t, string(StepProject), *last.FromValue)
	require.Equal(t, string(StepBoilerInstall), last.ToValue)
}

func TestSetStepForwardOnlyEnforced(t *testing.T) {
	svc, _ := trackingFixture(true)
	ctx := context.Background()

	_, err := svc.Take(ctx, 10)
	require.NoError(t, err)

	_, err = svc.SetStep(ctx, 10, SetStepRequest{Step: StepProject})
	require.NoError(t, err)

	_, err = svc.SetStep(ctx, 10, SetStepRequest{Step: StepBoilerInstall})
	require.ErrorIs(t, err, shared.ErrValidation)

	// Staying put or moving forward remains fine.
	_, err = svc.SetStep(ctx, 10, SetStepRequest{Step: StepProject})
	require.NoError(t, err)
	rec, err := svc.SetStep(ctx, 10, SetStepRequest{Step: StepGasTurnOn})
	require.NoError(t, err)
	require.Equal(t, StepGasTurnOn, *rec.CurrentStep)
}

func TestSetStatusLogsTransition(t *testing.T) {
	svc, _ := trackingFixture(false)
	ctx := context.Background()

	_, err := svc.Take(ctx, 10)
	require.NoError(t, err)

	rec, err := svc.SetStatus(ctx, 10, SetStatusRequest{Status: StatusWorkStarted})
	require.NoError(t, err)
	require.Equal(t, StatusWorkStarted, rec.Status)

	// Setting the same status again appends nothing.
	_, err = svc.SetStatus(ctx, 10, SetStatusRequest{Status: StatusWorkStarted})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, 10)
	require.NoError(t, err)
	require.Len(t, detail.Transitions, 2)
	last := detail.Transitions[1]
	require.Equal(t, FieldStatus, last.Field)
	require.Equal(t, string(StatusSold), *last.FromValue)
	require.Equal(t, string(StatusWorkStarted), last.ToValue)

	_, err = svc.SetStatus(ctx, 10, SetStatusRequest{Status: "paused"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
