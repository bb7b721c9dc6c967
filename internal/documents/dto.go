package documents

import "time"

// CreateLineRequest is the operator-supplied part of one line item.
type CreateLineRequest struct {
	ProductID       int64   `json:"product_id" validate:"required,gt=0"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxPercent      float64 `json:"tax_percent" validate:"gte=0,lte=100"`
	LineOrder       int     `json:"line_order" validate:"gte=0"`
}

// CreateDocumentRequest creates a quote, contract or invoice with its lines
// in one transaction.
type CreateDocumentRequest struct {
	Kind       Kind                `json:"kind" validate:"required,oneof=quote contract invoice"`
	CustomerID int64               `json:"customer_id" validate:"required,gt=0"`
	ProjectID  *int64              `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	Notes      *string             `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReplaceLinesRequest swaps the full line set of a mutable document.
type ReplaceLinesRequest struct {
	Lines []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// TransitionRequest moves a document to a new lifecycle status.
type TransitionRequest struct {
	Status Status `json:"status" validate:"required"`
}

// SetTaxRequest applies a document-wide tax percent, cascading to every line.
type SetTaxRequest struct {
	TaxPercent float64 `json:"tax_percent" validate:"gte=0,lte=100"`
}

// RecordPaymentRequest appends a customer payment to an invoice.
type RecordPaymentRequest struct {
	Amount          float64    `json:"amount" validate:"required,gt=0"`
	Method          string     `json:"method" validate:"required,max=40"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ReferenceNumber *string    `json:"reference_number,omitempty" validate:"omitempty,max=60"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ListDocumentsRequest filters the document listing.
type ListDocumentsRequest struct {
	Kind       *Kind   `json:"kind,omitempty"`
	Status     *Status `json:"status,omitempty"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
}
