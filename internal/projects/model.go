package projects

import "time"

// TopologyKind classifies how a project's billable units are counted.
type TopologyKind string

const (
	TopologyResidential TopologyKind = "residential"
	TopologyCommercial  TopologyKind = "commercial"
	TopologyOther       TopologyKind = "other"
)

// JobType names a kind of subcontracted work. The riser job covers the
// shared vertical line and is sized one unit larger than per-unit work.
type JobType string

const (
	JobTypeRiser           JobType = "riser"
	JobTypeBoilerInstall   JobType = "boiler_install"
	JobTypeInternalInstall JobType = "internal_install"
	JobTypeFullInstall     JobType = "full_install"
)

// Customer is the counterparty of a commercial document.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	TaxNumber *string   `json:"tax_number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Topology is the floor/apartment/shop/device structure of an installation
// project. It is a read-only input to job costing.
type Topology struct {
	Kind               TopologyKind `json:"kind"`
	FloorCount         int          `json:"floor_count,omitempty"`
	ApartmentsByFloor  []int        `json:"apartments_by_floor,omitempty"`
	ApartmentsPerFloor int          `json:"apartments_per_floor,omitempty"`
	ShopCount          int          `json:"shop_count,omitempty"`
	DeviceCount        int          `json:"device_count,omitempty"`
}

// Project is one installation site owned by a customer.
type Project struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	Topology   Topology  `json:"topology"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
