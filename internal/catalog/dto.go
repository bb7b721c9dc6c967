package catalog

// CreateProductRequest adds a catalogue entry.
type CreateProductRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	SKU       *string `json:"sku,omitempty" validate:"omitempty,max=60"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Quantity  float64 `json:"quantity" validate:"gte=0"`
}

// PostMovementRequest adjusts a product's stock.
type PostMovementRequest struct {
	Direction MovementDirection `json:"direction" validate:"required,oneof=in out"`
	Quantity  float64           `json:"quantity" validate:"required,gt=0"`
	Note      *string           `json:"note,omitempty" validate:"omitempty,max=500"`
}
