package projects

// CreateCustomerRequest creates a counterparty record.
type CreateCustomerRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	TaxNumber *string `json:"tax_number,omitempty" validate:"omitempty,max=40"`
}

// TopologyRequest carries the building structure of a project.
type TopologyRequest struct {
	Kind               TopologyKind `json:"kind" validate:"required,oneof=residential commercial other"`
	FloorCount         int          `json:"floor_count" validate:"gte=0"`
	ApartmentsByFloor  []int        `json:"apartments_by_floor" validate:"omitempty,dive,gte=0"`
	ApartmentsPerFloor int          `json:"apartments_per_floor" validate:"gte=0"`
	ShopCount          int          `json:"shop_count" validate:"gte=0"`
	DeviceCount        int          `json:"device_count" validate:"gte=0"`
}

// CreateProjectRequest creates an installation site for a customer.
type CreateProjectRequest struct {
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	Name       string          `json:"name" validate:"required,max=200"`
	Address    *string         `json:"address,omitempty" validate:"omitempty,max=500"`
	Topology   TopologyRequest `json:"topology" validate:"required"`
}
