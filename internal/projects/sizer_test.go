package projects

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalApartments(t *testing.T) {
	cases := []struct {
		name string
		top  Topology
		want int
	}{
		{"per-floor list", Topology{Kind: TopologyResidential, FloorCount: 4, ApartmentsByFloor: []int{2, 3, 3, 2}}, 10},
		{"list wins over shorthand", Topology{Kind: TopologyResidential, FloorCount: 4, ApartmentsPerFloor: 9, ApartmentsByFloor: []int{1, 1}}, 2},
		{"floors times per-floor", Topology{Kind: TopologyResidential, FloorCount: 5, ApartmentsPerFloor: 3}, 15},
		{"commercial devices", Topology{Kind: TopologyCommercial, DeviceCount: 7}, 7},
		{"residential without data", Topology{Kind: TopologyResidential, DeviceCount: 7}, 0},
		{"empty", Topology{Kind: TopologyOther}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, TotalApartments(tc.top))
		})
	}
}

func TestBillableUnits(t *testing.T) {
	top := Topology{Kind: TopologyResidential, FloorCount: 4, ApartmentsByFloor: []int{2, 3, 3, 2}, ShopCount: 1}

	require.Equal(t, 12, BillableUnits(top, JobTypeRiser))
	require.Equal(t, 11, BillableUnits(top, JobTypeBoilerInstall))
	require.Equal(t, 11, BillableUnits(top, JobTypeInternalInstall))
}

func TestBillableUnitsRiserIsAlwaysOneMore(t *testing.T) {
	tops := []Topology{
		{Kind: TopologyResidential, ApartmentsByFloor: []int{4, 4, 4}},
		{Kind: TopologyCommercial, DeviceCount: 9, ShopCount: 2},
		{Kind: TopologyOther},
		{Kind: TopologyResidential, FloorCount: 8, ApartmentsPerFloor: 2, ShopCount: 3},
	}
	for _, top := range tops {
		require.Equal(t, BillableUnits(top, JobTypeFullInstall)+1, BillableUnits(top, JobTypeRiser))
	}
}
