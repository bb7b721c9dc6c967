package projects

// TotalApartments counts dwelling units in a topology. The per-floor list
// wins over the floors-times-per-floor shorthand; commercial projects fall
// back to their device count.
func TotalApartments(t Topology) int {
	if len(t.ApartmentsByFloor) > 0 {
		sum := 0
		for _, n := range t.ApartmentsByFloor {
			sum += n
		}
		return sum
	}
	if t.FloorCount > 0 && t.ApartmentsPerFloor > 0 {
		return t.FloorCount * t.ApartmentsPerFloor
	}
	if t.Kind == TopologyCommercial {
		return t.DeviceCount
	}
	return 0
}

// BillableUnits derives the quantity an assignment is priced over. Riser work
// covers every apartment and shop plus the shared line itself.
func BillableUnits(t Topology, jobType JobType) int {
	units := TotalApartments(t) + t.ShopCount
	if jobType == JobTypeRiser {
		units++
	}
	return units
}
