package documents

import "time"

// Kind discriminates the three commercial document stages.
type Kind string

const (
	KindQuote    Kind = "quote"
	KindContract Kind = "contract"
	KindInvoice  Kind = "invoice"
)

// Status is the lifecycle state of a document. Each kind owns a subset of
// the vocabulary; the transition tables below are the single source of truth.
type Status string

const (
	// Quote statuses.
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"

	// Contract statuses.
	StatusDraft          Status = "draft"
	StatusCustomerSigned Status = "customer_signed"
	StatusCompanySigned  Status = "company_signed"
	StatusActive         Status = "active"

	// Invoice statuses.
	StatusSold       Status = "sold"
	StatusInProgress Status = "in_progress"

	// Shared terminal statuses.
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus derives from paid amount versus final amount; it is never
// stored.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// transitions maps each kind's status to the statuses reachable from it.
// Absence means terminal.
var transitions = map[Kind]map[Status][]Status{
	KindQuote: {
		StatusPending: {StatusApproved, StatusRejected, StatusCancelled},
	},
	KindContract: {
		StatusDraft:          {StatusCustomerSigned, StatusCompanySigned, StatusCancelled},
		StatusCustomerSigned: {StatusCompanySigned, StatusCancelled},
		StatusCompanySigned:  {StatusActive, StatusCancelled},
		StatusActive:         {StatusCompleted, StatusCancelled},
	},
	KindInvoice: {
		StatusSold:       {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
	},
}

// InitialStatus returns the status a freshly created document starts in.
func InitialStatus(kind Kind) Status {
	switch kind {
	case KindQuote:
		return StatusPending
	case KindContract:
		return StatusDraft
	default:
		return StatusSold
	}
}

// CanTransition reports whether a document of the given kind may move from
// one status to another.
func CanTransition(kind Kind, from, to Status) bool {
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// convertibleStatus reports whether a source document has reached the state
// that permits conversion into an invoice.
func convertibleStatus(kind Kind, status Status) bool {
	switch kind {
	case KindQuote:
		return status == StatusApproved
	case KindContract:
		return status == StatusCompanySigned || status == StatusActive || status == StatusCompleted
	default:
		return false
	}
}

// triggersConversion reports whether entering the status converts the
// document in the same request.
func triggersConversion(kind Kind, to Status) bool {
	return (kind == KindQuote && to == StatusApproved) ||
		(kind == KindContract && to == StatusCompanySigned)
}

// editableStatus reports whether line items may still change. A document
// that already has a downstream invoice is frozen regardless.
func editableStatus(kind Kind, status Status) bool {
	switch kind {
	case KindQuote:
		return status == StatusPending
	case KindContract:
		return status == StatusDraft
	default:
		return status == StatusSold
	}
}

// Line is one priced quantity of a product inside a document.
type Line struct {
	ID              int64     `json:"id"`
	DocumentID      int64     `json:"document_id"`
	ProductID       int64     `json:"product_id"`
	Description     *string   `json:"description,omitempty"`
	Quantity        float64   `json:"quantity"`
	UnitPrice       float64   `json:"unit_price"`
	DiscountPercent float64   `json:"discount_percent"`
	DiscountAmount  float64   `json:"discount_amount"`
	TaxPercent      float64   `json:"tax_percent"`
	TaxAmount       float64   `json:"tax_amount"`
	LineTotal       float64   `json:"line_total"`
	LineOrder       int       `json:"line_order"`
	CreatedAt       time.Time `json:"created_at"`
}

// Document is the tagged union over quotes, contracts and invoices. All
// three share shape; Kind selects the status vocabulary.
type Document struct {
	ID               int64     `json:"id"`
	Kind             Kind      `json:"kind"`
	DocNumber        string    `json:"doc_number"`
	CustomerID       int64     `json:"customer_id"`
	ProjectID        *int64    `json:"project_id,omitempty"`
	SourceDocumentID *int64    `json:"source_document_id,omitempty"`
	Status           Status    `json:"status"`
	Subtotal         float64   `json:"subtotal"`
	DiscountTotal    float64   `json:"discount_total"`
	TaxTotal         float64   `json:"tax_total"`
	FinalAmount      float64   `json:"final_amount"`
	PaidAmount       float64   `json:"paid_amount"`
	RemainingAmount  float64   `json:"remaining_amount"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Lines            []Line    `json:"lines,omitempty"`
}

// PaymentStatus derives the invoice payment marker from stored amounts.
func (d *Document) PaymentStatus() PaymentStatus {
	switch {
	case d.PaidAmount <= 0:
		return PaymentPending
	case d.PaidAmount < d.FinalAmount:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

// Payment is an append-only customer payment against an invoice.
type Payment struct {
	ID              int64     `json:"id"`
	DocumentID      int64     `json:"document_id"`
	Amount          float64   `json:"amount"`
	Method          string    `json:"method"`
	PaidAt          time.Time `json:"paid_at"`
	ReferenceNumber string    `json:"reference_number"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
