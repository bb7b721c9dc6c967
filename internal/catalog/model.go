package catalog

import "time"

// MovementDirection is the sign of a stock movement.
type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// Product is a sellable catalogue entry with a tracked on-hand quantity.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       *string   `json:"sku,omitempty"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  float64   `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovement adjusts a product's on-hand quantity. Append-only; the
// product row is updated in the same transaction.
type StockMovement struct {
	ID        int64             `json:"id"`
	ProductID int64             `json:"product_id"`
	Direction MovementDirection `json:"direction"`
	Quantity  float64           `json:"quantity"`
	Note      *string           `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
