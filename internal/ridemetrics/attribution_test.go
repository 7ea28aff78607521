package ridemetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// ATTRIBUTE TESTS
// ========================================

func TestAttribute_ActiveAndDeletedStations(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}, {ID: "B", Name: "Bayside"}, {ID: "C", Name: "Civic"}}

	result := Attribute(sampleRides(t), stations, WindowAll, now, AttributionOptions{})

	assert.Equal(t, WindowAll, result.Window)
	assert.Equal(t, AttributeByStart, result.Key)

	require.Len(t, result.Active, 3)
	assert.Equal(t, StationRevenueRow{StationID: "A", StationName: "Main", Revenue: 57.75, RideCount: 2}, result.Active[0])
	assert.Equal(t, StationRevenueRow{StationID: "B", StationName: "Bayside", Revenue: 15.5, RideCount: 1}, result.Active[1])
	assert.Equal(t, StationRevenueRow{StationID: "C", StationName: "Civic"}, result.Active[2])

	require.Len(t, result.Deleted, 2)
	assert.Equal(t, StationRevenueRow{StationID: "GONE2", StationName: UnknownStationName, Revenue: 40, RideCount: 1, IsDeleted: true}, result.Deleted[0])
	assert.Equal(t, StationRevenueRow{StationID: "GONE", StationName: "Old Pier", Revenue: 12.25, RideCount: 1, IsDeleted: true}, result.Deleted[1])

	assert.Equal(t, 1, result.UnattributedRides)
	assert.InDelta(t, 3.0, result.UnattributedRevenue, 1e-9)
}

func TestAttribute_DeletedStationConservation(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}}
	rides := []RideRecord{{ID: "x", EndedAt: ts(t, "2024-03-15T09:00:00Z"), StartStationID: "Z", AmountPaid: 42.5}}

	result := Attribute(rides, stations, WindowDaily, now, AttributionOptions{})

	require.Len(t, result.Deleted, 1)
	assert.Equal(t, "Z", result.Deleted[0].StationID)
	assert.True(t, result.Deleted[0].IsDeleted)
	assert.InDelta(t, 42.5, result.Deleted[0].Revenue, 1e-9)
	assert.Equal(t, 1, result.Deleted[0].RideCount)

	require.Len(t, result.Active, 1)
	assert.Equal(t, StationRevenueRow{StationID: "A", StationName: "Main"}, result.Active[0])
}

func TestAttribute_UsesFirstNameSnapshot(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	rides := []RideRecord{
		{EndedAt: ts(t, "2024-03-15T01:00:00Z"), StartStationID: "Z", AmountPaid: 1},
		{EndedAt: ts(t, "2024-03-15T02:00:00Z"), StartStationID: "Z", StartStationName: "  Riverside ", AmountPaid: 1},
		{EndedAt: ts(t, "2024-03-15T03:00:00Z"), StartStationID: "Z", StartStationName: "Riverside Renamed", AmountPaid: 1},
	}

	result := Attribute(rides, nil, WindowDaily, now, AttributionOptions{})

	require.Len(t, result.Deleted, 1)
	assert.Equal(t, "Riverside", result.Deleted[0].StationName)
	assert.Equal(t, 3, result.Deleted[0].RideCount)
	assert.Empty(t, result.Active)
}

func TestAttribute_ByEndStation(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}, {ID: "B", Name: "Bayside"}}

	result := Attribute(sampleRides(t), stations, WindowWeekly, now, AttributionOptions{Key: AttributeByEnd})

	assert.Equal(t, AttributeByEnd, result.Key)
	require.Len(t, result.Active, 2)
	assert.Equal(t, "B", result.Active[0].StationID)
	assert.InDelta(t, 50.0, result.Active[0].Revenue, 1e-9)
	assert.Equal(t, "A", result.Active[1].StationID)
	assert.InDelta(t, 15.5, result.Active[1].Revenue, 1e-9)

	// ride 3 has no end station
	assert.Empty(t, result.Deleted)
	assert.Equal(t, 1, result.UnattributedRides)
}

func TestAttribute_InvalidKeyFallsBackToStart(t *testing.T) {
	opts := AttributionOptions{Key: AttributionKey("middle")}
	assert.Equal(t, AttributeByStart, opts.key())
}

func TestAttribute_TieBreaks(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{
		{ID: "s3", Name: "Charlie"},
		{ID: "s2", Name: "Bravo"},
		{ID: "s1", Name: "Alpha"},
		{ID: "s4", Name: "Alpha"},
	}
	rides := []RideRecord{
		{EndedAt: ts(t, "2024-03-15T01:00:00Z"), StartStationID: "s3", AmountPaid: 10},
		{EndedAt: ts(t, "2024-03-15T01:00:00Z"), StartStationID: "s2", AmountPaid: 5},
		{EndedAt: ts(t, "2024-03-15T01:00:00Z"), StartStationID: "s2", AmountPaid: 5},
	}

	result := Attribute(rides, stations, WindowDaily, now, AttributionOptions{})

	ids := make([]string, 0, len(result.Active))
	for _, row := range result.Active {
		ids = append(ids, row.StationID)
	}
	assert.Equal(t, []string{"s2", "s3", "s1", "s4"}, ids)
}

func TestAttribute_DuplicateStationIDsKeepFirst(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}, {ID: "A", Name: "Duplicate"}, {ID: "", Name: "Blank"}}

	result := Attribute(nil, stations, WindowAll, now, AttributionOptions{})

	require.Len(t, result.Active, 1)
	assert.Equal(t, "Main", result.Active[0].StationName)
	assert.NotNil(t, result.Deleted)
}

// ========================================
// SORT ROWS TESTS
// ========================================

func TestSortRows(t *testing.T) {
	rows := []StationRevenueRow{
		{StationID: "1", StationName: "Bravo", Revenue: 20, RideCount: 1},
		{StationID: "2", StationName: "Alpha", Revenue: 10, RideCount: 5},
		{StationID: "3", StationName: "Charlie", Revenue: 30, RideCount: 3},
	}

	tests := []struct {
		name     string
		field    SortField
		dir      SortDirection
		expected []string
	}{
		{name: "revenue desc", field: SortByRevenue, dir: SortDesc, expected: []string{"3", "1", "2"}},
		{name: "revenue asc", field: SortByRevenue, dir: SortAsc, expected: []string{"2", "1", "3"}},
		{name: "rides desc", field: SortByRides, dir: SortDesc, expected: []string{"2", "3", "1"}},
		{name: "name asc", field: SortByName, dir: SortAsc, expected: []string{"2", "1", "3"}},
		{name: "name desc", field: SortByName, dir: SortDesc, expected: []string{"3", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := SortRows(rows, tt.field, tt.dir)

			ids := make([]string, 0, len(sorted))
			for _, row := range sorted {
				ids = append(ids, row.StationID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	// input untouched
	assert.Equal(t, "1", rows[0].StationID)
}
