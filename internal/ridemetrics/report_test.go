package ridemetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboardRides(t *testing.T) []RideRecord {
	t.Helper()
	return []RideRecord{
		{ID: "r1", EndedAt: ts(t, "2024-03-15T08:00:00Z"), StartStationID: "A", AmountPaid: 50},
		{ID: "r2", EndedAt: ts(t, "2024-03-08T00:00:01Z"), StartStationID: "A", AmountPaid: 30},
		{ID: "r3", EndedAt: ts(t, "2024-02-01T00:00:00Z"), StartStationID: "B", AmountPaid: 20},
	}
}

// ========================================
// BUILD REPORT TESTS
// ========================================

func TestBuildReport_DashboardScenario(t *testing.T) {
	now := *ts(t, "2024-03-15T00:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}}

	report := BuildReport(dashboardRides(t), stations, WindowWeekly, now, ReportOptions{})

	require.NotNil(t, report)
	assert.True(t, report.Now.Equal(now))
	assert.Equal(t, WindowWeekly, report.Window)

	daily := report.Totals[WindowDaily]
	assert.Equal(t, 1, daily.RideCount)
	assert.InDelta(t, 50.0, daily.TotalRevenue, 1e-9)

	weekly := report.Totals[WindowWeekly]
	assert.Equal(t, 2, weekly.RideCount)
	assert.InDelta(t, 80.0, weekly.TotalRevenue, 1e-9)

	monthly := report.Totals[WindowMonthly]
	assert.Equal(t, 2, monthly.RideCount)
	assert.InDelta(t, 80.0, monthly.TotalRevenue, 1e-9)

	all := report.Totals[WindowAll]
	assert.Equal(t, 3, all.RideCount)
	assert.InDelta(t, 100.0, all.TotalRevenue, 1e-9)

	require.Len(t, report.StationRevenue.Active, 1)
	assert.Equal(t, "A", report.StationRevenue.Active[0].StationID)
	assert.InDelta(t, 80.0, report.StationRevenue.Active[0].Revenue, 1e-9)
	assert.Equal(t, 2, report.StationRevenue.Active[0].RideCount)
	assert.Empty(t, report.StationRevenue.Deleted)

	assert.InDelta(t, 40.0, report.Insights.AvgRevenuePerRide, 1e-9)
}

func TestBuildReport_AllWindowSurfacesDeletedStation(t *testing.T) {
	now := *ts(t, "2024-03-15T00:00:00Z")

	report := BuildReport(dashboardRides(t), []Station{{ID: "A", Name: "Main"}}, WindowAll, now, ReportOptions{})

	require.Len(t, report.StationRevenue.Deleted, 1)
	assert.Equal(t, "B", report.StationRevenue.Deleted[0].StationID)
	assert.Equal(t, UnknownStationName, report.StationRevenue.Deleted[0].StationName)
	assert.InDelta(t, 20.0, report.StationRevenue.Deleted[0].Revenue, 1e-9)
}

func TestBuildReport_Idempotent(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}, {ID: "B", Name: "Bayside"}}
	rides := sampleRides(t)

	first := BuildReport(rides, stations, WindowMonthly, now, ReportOptions{})
	second := BuildReport(rides, stations, WindowMonthly, now, ReportOptions{})

	assert.Equal(t, first, second)
}

func TestBuildReport_EmptyInputIsFullyShaped(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")

	report := BuildReport(nil, nil, WindowDaily, now, ReportOptions{})

	require.Len(t, report.Totals, len(Windows))
	for _, w := range Windows {
		assert.Equal(t, AggregateStats{Window: w}, report.Totals[w])
	}
	assert.Len(t, report.Trend[GranularityDaily], 7)
	assert.Len(t, report.Trend[GranularityWeekly], 12)
	assert.Len(t, report.Trend[GranularityMonthly], 12)
	assert.Len(t, report.HourlyRevenue, 24)
	assert.NotNil(t, report.StationRevenue.Active)
	assert.NotNil(t, report.StationRevenue.Deleted)
	assert.Equal(t, Insights{}, report.Insights)
}

func TestBuildReport_InvalidWindowFallsBackToAll(t *testing.T) {
	now := *ts(t, "2024-03-15T00:00:00Z")

	report := BuildReport(dashboardRides(t), nil, TimeWindow("fortnight"), now, ReportOptions{})

	assert.Equal(t, WindowAll, report.Window)
	assert.Equal(t, WindowAll, report.StationRevenue.Window)
	assert.Len(t, report.StationRevenue.Deleted, 2)
}

// ========================================
// PROPERTY TESTS
// ========================================

func TestAttribution_PartitionsWindowRevenue(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	stations := []Station{{ID: "A", Name: "Main"}, {ID: "B", Name: "Bayside"}}
	rides := sampleRides(t)

	for _, key := range []AttributionKey{AttributeByStart, AttributeByEnd} {
		for _, w := range Windows {
			stats := Reduce(rides, w, now)
			attribution := Attribute(rides, stations, w, now, AttributionOptions{Key: key})

			revenue := attribution.UnattributedRevenue
			count := attribution.UnattributedRides
			for _, row := range attribution.Active {
				revenue += row.Revenue
				count += row.RideCount
			}
			for _, row := range attribution.Deleted {
				revenue += row.Revenue
				count += row.RideCount
			}

			assert.InDelta(t, stats.TotalRevenue, revenue, 1e-9, "%s/%s", key, w)
			assert.Equal(t, stats.RideCount, count, "%s/%s", key, w)
		}
	}
}

func TestTrend_MatchesTotalsForCurrentDay(t *testing.T) {
	now := *ts(t, "2024-03-15T12:00:00Z")
	rides := sampleRides(t)

	report := BuildReport(rides, nil, WindowAll, now, ReportOptions{})
	daily := report.Trend[GranularityDaily]
	today := daily[len(daily)-1]

	assert.Equal(t, report.Totals[WindowDaily].RideCount, today.RideCount)
	assert.InDelta(t, report.Totals[WindowDaily].TotalRevenue, today.Revenue, 1e-9)
}
