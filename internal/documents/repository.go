package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearth-erp/hearth-erp/internal/platform/db"
	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// TxRepository exposes the writes that must share one transaction.
type TxRepository interface {
	Insert(ctx context.Context, d Document) (int64, error)
	InsertLine(ctx context.Context, l Line) (int64, error)
	DeleteLines(ctx context.Context, documentID int64) error
	UpdateTotals(ctx context.Context, id int64, subtotal, discountTotal, taxTotal, finalAmount, remaining float64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	SumPayments(ctx context.Context, documentID int64) (float64, error)
	UpdatePaid(ctx context.Context, id int64, paid, remaining float64) error
}

// RepositoryPort defines data access for commercial documents.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Document, error)
	GetBySource(ctx context.Context, sourceID int64) (*Document, error)
	List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
	ListPayments(ctx context.Context, documentID int64) ([]Payment, error)
	GenerateNumber(ctx context.Context, kind Kind, date time.Time) (string, error)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The conversion guard leans on this: the UNIQUE index on
// source_document_id makes check-then-insert a single atomic step.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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

const documentColumns = `id, kind, doc_number, customer_id, project_id, source_document_id, status,
subtotal, discount_total, tax_total, final_amount, paid_amount, remaining_amount, notes, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Kind, &d.DocNumber, &d.CustomerID, &d.ProjectID, &d.SourceDocumentID, &d.Status,
		&d.Subtotal, &d.DiscountTotal, &d.TaxTotal, &d.FinalAmount, &d.PaidAmount, &d.RemainingAmount,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return d, nil
}

func (r *Repository) GetBySource(ctx context.Context, sourceID int64) (*Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source_document_id = $1`, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no invoice for source %d", shared.ErrNotFound, sourceID)
		}
		return nil, err
	}
	lines, err := r.getLines(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return d, nil
}

func (r *Repository) getLines(ctx context.Context, documentID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, document_id, product_id, description, quantity, unit_price,
discount_percent, discount_amount, tax_percent, tax_amount, line_total, line_order, created_at
FROM document_lines WHERE document_id = $1 ORDER BY line_order, id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.DiscountPercent, &l.DiscountAmount, &l.TaxPercent, &l.TaxAmount, &l.LineTotal,
			&l.LineOrder, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *Repository) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	where := " WHERE 1=1"
	var args []any
	if req.Kind != nil {
		args = append(args, *req.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		where += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, p.PerPage, p.Offset())
	query := fmt.Sprintf("SELECT %s FROM documents%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		documentColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Kind, &d.DocNumber, &d.CustomerID, &d.ProjectID, &d.SourceDocumentID,
			&d.Status, &d.Subtotal, &d.DiscountTotal, &d.TaxTotal, &d.FinalAmount, &d.PaidAmount,
			&d.RemainingAmount, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *Repository) ListPayments(ctx context.Context, documentID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, document_id, amount, method, paid_at, reference_number, notes, created_at
FROM payments WHERE document_id = $1 ORDER BY paid_at, id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Amount, &p.Method, &p.PaidAt, &p.ReferenceNumber,
			&p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

var numberPrefix = map[Kind]string{
	KindQuote:    "QT",
	KindContract: "CT",
	KindInvoice:  "IN",
}

// GenerateNumber produces the next document number from a shared sequence.
func (r *Repository) GenerateNumber(ctx context.Context, kind Kind, date time.Time) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('doc_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("documents: generate number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d", numberPrefix[kind], date.Format("200601"), n), nil
}

func (t *txRepo) Insert(ctx context.Context, d Document) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO documents
(kind, doc_number, customer_id, project_id, source_document_id, status, subtotal, discount_total,
tax_total, final_amount, paid_amount, remaining_amount, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14) RETURNING id`,
		d.Kind, d.DocNumber, d.CustomerID, d.ProjectID, d.SourceDocumentID, d.Status, d.Subtotal,
		d.DiscountTotal, d.TaxTotal, d.FinalAmount, d.PaidAmount, d.RemainingAmount, d.Notes, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("documents: insert: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertLine(ctx context.Context, l Line) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO document_lines
(document_id, product_id, description, quantity, unit_price, discount_percent, discount_amount,
tax_percent, tax_amount, line_total, line_order, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		l.DocumentID, l.ProductID, l.Description, l.Quantity, l.UnitPrice, l.DiscountPercent,
		l.DiscountAmount, l.TaxPercent, l.TaxAmount, l.LineTotal, l.LineOrder, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("documents: insert line: %w", err)
	}
	return id, nil
}

func (t *txRepo) DeleteLines(ctx context.Context, documentID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, documentID)
	return err
}

func (t *txRepo) UpdateTotals(ctx context.Context, id int64, subtotal, discountTotal, taxTotal, finalAmount, remaining float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE documents SET subtotal = $2, discount_total = $3, tax_total = $4,
final_amount = $5, remaining_amount = $6, updated_at = $7 WHERE id = $1`,
		id, subtotal, discountTotal, taxTotal, finalAmount, remaining, time.Now())
	return err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	return err
}

func (t *txRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO payments
(document_id, amount, method, paid_at, reference_number, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.DocumentID, p.Amount, p.Method, p.PaidAt, p.ReferenceNumber, p.Notes, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("documents: insert payment: %w", err)
	}
	return id, nil
}

func (t *txRepo) SumPayments(ctx context.Context, documentID int64) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE document_id = $1`,
		documentID).Scan(&sum)
	return sum, err
}

func (t *txRepo) UpdatePaid(ctx context.Context, id int64, paid, remaining float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE documents SET paid_amount = $2, remaining_amount = $3, updated_at = $4 WHERE id = $1`,
		id, paid, remaining, time.Now())
	return err
}
