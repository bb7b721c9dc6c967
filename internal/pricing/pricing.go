// Package pricing holds the pure money math for commercial documents.
package pricing

import (
	"fmt"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// LineInput is the operator-supplied part of a line item.
type LineInput struct {
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
	TaxPercent      float64
}

// LineTotals is the derived part of a line item.
type LineTotals struct {
	DiscountAmount float64
	TaxAmount      float64
	Total          float64
}

// DocumentTotals aggregates per-line values across a document. They are sums
// of the line figures, never recomputed from document-level percentages.
type DocumentTotals struct {
	Subtotal      float64
	DiscountTotal float64
	TaxTotal      float64
	FinalAmount   float64
}

// ValidateLineInput rejects malformed line input before it is admitted to a
// document. Invalid numbers fail loudly instead of being coerced to zero.
func ValidateLineInput(in LineInput) error {
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %v", shared.ErrValidation, in.Quantity)
	}
	if in.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative, got %v", shared.ErrValidation, in.UnitPrice)
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount percent must be within [0,100], got %v", shared.ErrValidation, in.DiscountPercent)
	}
	if in.TaxPercent < 0 || in.TaxPercent > 100 {
		return fmt.Errorf("%w: tax percent must be within [0,100], got %v", shared.ErrValidation, in.TaxPercent)
	}
	return nil
}

// CalculateLineTotals derives the money figures for one line item.
func CalculateLineTotals(in LineInput) LineTotals {
	grossAmount := in.Quantity * in.UnitPrice
	discountAmount := grossAmount * (in.DiscountPercent / 100)
	netAmount := grossAmount - discountAmount
	taxAmount := netAmount * (in.TaxPercent / 100)
	return LineTotals{
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          netAmount + taxAmount,
	}
}

// PricedLine pairs input with its totals for aggregation.
type PricedLine struct {
	LineInput
	LineTotals
}

// Price validates and computes one line in a single call.
func Price(in LineInput) (PricedLine, error) {
	if err := ValidateLineInput(in); err != nil {
		return PricedLine{}, err
	}
	return PricedLine{LineInput: in, LineTotals: CalculateLineTotals(in)}, nil
}

// CalculateDocumentTotals sums line figures into document aggregates.
// Subtotal is the discounted pre-tax amount, matching what the document
// stores next to its tax and final totals.
func CalculateDocumentTotals(lines []PricedLine) DocumentTotals {
	var totals DocumentTotals
	for _, l := range lines {
		totals.Subtotal += l.Quantity*l.UnitPrice - l.DiscountAmount
		totals.DiscountTotal += l.DiscountAmount
		totals.TaxTotal += l.TaxAmount
		totals.FinalAmount += l.Total
	}
	return totals
}
