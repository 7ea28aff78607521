package ridemetrics

import (
	"sort"
	"strings"
	"time"
)

// AttributionKey selects which station reference of a ride receives its revenue
type AttributionKey string

const (
	AttributeByStart AttributionKey = "start"
	AttributeByEnd   AttributionKey = "end"
)

// Valid reports whether k is a known attribution key
func (k AttributionKey) Valid() bool {
	return k == AttributeByStart || k == AttributeByEnd
}

// AttributionOptions tunes station attribution
type AttributionOptions struct {
	Key AttributionKey
}

func (o AttributionOptions) key() AttributionKey {
	if o.Key.Valid() {
		return o.Key
	}
	return AttributeByStart
}

func (o AttributionOptions) stationOf(r *RideRecord) (id, name string) {
	if o.key() == AttributeByEnd {
		return strings.TrimSpace(r.EndStationID), strings.TrimSpace(r.EndStationName)
	}
	return strings.TrimSpace(r.StartStationID), strings.TrimSpace(r.StartStationName)
}

// Attribute assigns the revenue of every ride inside window w to exactly one station row.
// Rides whose station is missing from stations land in Deleted; rides without a station
// reference are only counted in the Unattributed totals.
func Attribute(rides []RideRecord, stations []Station, w TimeWindow, now time.Time, opts AttributionOptions) StationAttribution {
	active := make(map[string]*StationRevenueRow, len(stations))
	order := make([]string, 0, len(stations))
	for _, st := range stations {
		if _, seen := active[st.ID]; seen || st.ID == "" {
			continue
		}
		active[st.ID] = &StationRevenueRow{StationID: st.ID, StationName: st.Name}
		order = append(order, st.ID)
	}

	deleted := make(map[string]*StationRevenueRow)
	result := StationAttribution{Window: w, Key: opts.key()}

	for i := range rides {
		ride := &rides[i]
		if !InWindow(ride.EndedAt, w, now) {
			continue
		}

		amount := Measurement(ride.AmountPaid)
		id, snapshot := opts.stationOf(ride)
		if id == "" {
			result.UnattributedRides++
			result.UnattributedRevenue += amount
			continue
		}

		if row, ok := active[id]; ok {
			row.Revenue += amount
			row.RideCount++
			continue
		}

		row, ok := deleted[id]
		if !ok {
			row = &StationRevenueRow{StationID: id, IsDeleted: true}
			deleted[id] = row
		}
		if row.StationName == "" && snapshot != "" {
			row.StationName = snapshot
		}
		row.Revenue += amount
		row.RideCount++
	}

	result.Active = make([]StationRevenueRow, 0, len(order))
	for _, id := range order {
		result.Active = append(result.Active, *active[id])
	}

	result.Deleted = make([]StationRevenueRow, 0, len(deleted))
	for _, row := range deleted {
		if row.StationName == "" {
			row.StationName = UnknownStationName
		}
		result.Deleted = append(result.Deleted, *row)
	}

	sortByRevenue(result.Active)
	sortByRevenue(result.Deleted)
	return result
}

func sortByRevenue(rows []StationRevenueRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		if a.RideCount != b.RideCount {
			return a.RideCount > b.RideCount
		}
		if a.StationName != b.StationName {
			return a.StationName < b.StationName
		}
		return a.StationID < b.StationID
	})
}

// SortField is a sortable leaderboard column
type SortField string

const (
	SortByRevenue SortField = "revenue"
	SortByRides   SortField = "rides"
	SortByName    SortField = "name"
)

// SortDirection orders a leaderboard column
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortRows returns a copy of rows ordered by field. Ties fall back to the default
// revenue ordering so the result stays deterministic.
func SortRows(rows []StationRevenueRow, field SortField, dir SortDirection) []StationRevenueRow {
	out := make([]StationRevenueRow, len(rows))
	copy(out, rows)
	sortByRevenue(out)

	asc := dir == SortAsc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch field {
		case SortByName:
			if a.StationName == b.StationName {
				return false
			}
			return (a.StationName < b.StationName) == asc
		case SortByRides:
			if a.RideCount == b.RideCount {
				return false
			}
			return (a.RideCount < b.RideCount) == asc
		default:
			if a.Revenue == b.Revenue {
				return false
			}
			return (a.Revenue < b.Revenue) == asc
		}
	})
	return out
}
