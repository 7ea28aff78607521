package ridehistory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ecoride/ride-metrics/internal/ridemetrics"
	"github.com/ecoride/ride-metrics/pkg/common"
)

// SortField is a sortable history column
type SortField string

const (
	SortByEndedAt  SortField = "ended_at"
	SortByAmount   SortField = "amount"
	SortByDistance SortField = "distance"
	SortByDuration SortField = "duration"
)

const frequentRoutesLimit = 10

// historyWindows maps the history page ranges onto report windows
var historyWindows = map[string]ridemetrics.TimeWindow{
	"today": ridemetrics.WindowDaily,
	"week":  ridemetrics.WindowWeekly,
	"month": ridemetrics.WindowMonthly,
	"all":   ridemetrics.WindowAll,
}

// Service handles ride history business logic
type Service struct {
	snapshots SnapshotProvider
}

// NewService creates a new ride history service
func NewService(snapshots SnapshotProvider) *Service {
	return &Service{snapshots: snapshots}
}

// GetRideHistory returns one page of the filtered, sorted history together with the
// totals of every ride that matched the filters
func (s *Service) GetRideHistory(ctx context.Context, q HistoryQuery, limit, offset int) (*HistoryPage, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.snapshots.Now()
	filters := ResolveFilters(q)
	rides := filterRides(snap.Rides, filters, now)
	sortRides(rides, filters.Sort, filters.Dir)

	names := stationNames(snap.Stations)
	page := paginate(rides, limit, offset)
	entries := make([]RideHistoryEntry, 0, len(page))
	for _, r := range page {
		entries = append(entries, toEntry(r, names))
	}

	return &HistoryPage{
		Now:    now,
		Window: windowName(filters.Window),
		Rides:  entries,
		Totals: ridemetrics.Reduce(rides, filters.Window, now),
		Total:  len(rides),
	}, nil
}

// GetRideDetails returns a single ride by id
func (s *Service) GetRideDetails(ctx context.Context, rideID string) (*RideHistoryEntry, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for _, r := range snap.Rides {
		if r.ID == rideID {
			entry := toEntry(r, stationNames(snap.Stations))
			return &entry, nil
		}
	}
	return nil, common.NewNotFoundError("ride not found", nil)
}

// GetStats summarizes the rides matching the window and station filters
func (s *Service) GetStats(ctx context.Context, q StatsQuery) (*HistoryStats, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.snapshots.Now()
	filters := ResolveFilters(HistoryQuery{Window: q.Window, Station: q.Station})
	totals := ridemetrics.Reduce(filterRides(snap.Rides, filters, now), filters.Window, now)

	return &HistoryStats{
		Now:      now,
		Window:   windowName(filters.Window),
		Station:  filters.StationID,
		Totals:   totals,
		Insights: ridemetrics.BuildInsights(totals),
	}, nil
}

// GetStations returns the active stations for the station filter, ordered by name
func (s *Service) GetStations(ctx context.Context) ([]StationOption, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]StationOption, 0, len(snap.Stations))
	for _, st := range snap.Stations {
		name := st.Name
		if name == "" {
			name = UnknownStation
		}
		options = append(options, StationOption{ID: st.ID, Name: name})
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Name == options[j].Name {
			return options[i].ID < options[j].ID
		}
		return options[i].Name < options[j].Name
	})
	return options, nil
}

// GetFrequentRoutes returns the most ridden start and end station pairs
func (s *Service) GetFrequentRoutes(ctx context.Context) ([]FrequentRoute, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	type routeKey struct{ start, end string }
	type routeAcc struct {
		route   FrequentRoute
		revenue float64
	}

	names := stationNames(snap.Stations)
	byKey := make(map[routeKey]*routeAcc)
	for _, r := range snap.Rides {
		if r.EndedAt == nil || r.StartStationID == "" || r.EndStationID == "" {
			continue
		}
		k := routeKey{start: r.StartStationID, end: r.EndStationID}
		acc, ok := byKey[k]
		if !ok {
			acc = &routeAcc{route: FrequentRoute{
				StartStationID:   r.StartStationID,
				StartStationName: resolveName(r.StartStationID, r.StartStationName, names),
				EndStationID:     r.EndStationID,
				EndStationName:   resolveName(r.EndStationID, r.EndStationName, names),
			}}
			byKey[k] = acc
		}
		acc.route.RideCount++
		acc.revenue += ridemetrics.Measurement(r.AmountPaid)
		if r.EndedAt.After(acc.route.LastRideAt) {
			acc.route.LastRideAt = *r.EndedAt
		}
	}

	routes := make([]FrequentRoute, 0, len(byKey))
	for _, acc := range byKey {
		acc.route.AverageFare = acc.revenue / float64(acc.route.RideCount)
		routes = append(routes, acc.route)
	}
	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.RideCount != b.RideCount {
			return a.RideCount > b.RideCount
		}
		if !a.LastRideAt.Equal(b.LastRideAt) {
			return a.LastRideAt.After(b.LastRideAt)
		}
		if a.StartStationID != b.StartStationID {
			return a.StartStationID < b.StartStationID
		}
		return a.EndStationID < b.EndStationID
	})

	if len(routes) > frequentRoutesLimit {
		routes = routes[:frequentRoutesLimit]
	}
	return routes, nil
}

// ========================================
// FILTERING
// ========================================

// ResolveFilters applies defaults to a validated query: all time, every station,
// newest first. Numeric columns default to descending as well.
func ResolveFilters(q HistoryQuery) HistoryFilters {
	f := HistoryFilters{
		Window:    ridemetrics.WindowAll,
		StationID: strings.TrimSpace(q.Station),
		Sort:      SortByEndedAt,
		Dir:       ridemetrics.SortDesc,
	}
	if w, ok := historyWindows[q.Window]; ok {
		f.Window = w
	}
	if f.StationID == "all" {
		f.StationID = ""
	}
	if q.Sort != "" {
		f.Sort = SortField(q.Sort)
	}
	if q.Dir != "" {
		f.Dir = ridemetrics.SortDirection(q.Dir)
	}
	return f
}

// filterRides keeps the rides that ended inside the window at the selected end
// station. Rides with no end time never match.
func filterRides(rides []ridemetrics.RideRecord, f HistoryFilters, now time.Time) []ridemetrics.RideRecord {
	out := make([]ridemetrics.RideRecord, 0, len(rides))
	for _, r := range rides {
		if !ridemetrics.InWindow(r.EndedAt, f.Window, now) {
			continue
		}
		if f.StationID != "" && r.EndStationID != f.StationID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRides orders rides in place. Ties keep the newest ride first, then the
// lowest id, regardless of direction.
func sortRides(rides []ridemetrics.RideRecord, field SortField, dir ridemetrics.SortDirection) {
	asc := dir == ridemetrics.SortAsc
	sort.SliceStable(rides, func(i, j int) bool {
		a, b := &rides[i], &rides[j]

		var x, y float64
		switch field {
		case SortByAmount:
			x, y = ridemetrics.Measurement(a.AmountPaid), ridemetrics.Measurement(b.AmountPaid)
		case SortByDistance:
			x, y = ridemetrics.Measurement(a.DistanceKm), ridemetrics.Measurement(b.DistanceKm)
		case SortByDuration:
			x, y = ridemetrics.Measurement(a.DurationSeconds), ridemetrics.Measurement(b.DurationSeconds)
		default:
			if !a.EndedAt.Equal(*b.EndedAt) {
				return a.EndedAt.Before(*b.EndedAt) == asc
			}
			return a.ID < b.ID
		}

		if x != y {
			return (x < y) == asc
		}
		if !a.EndedAt.Equal(*b.EndedAt) {
			return a.EndedAt.After(*b.EndedAt)
		}
		return a.ID < b.ID
	})
}

func paginate(rides []ridemetrics.RideRecord, limit, offset int) []ridemetrics.RideRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rides) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(rides) {
		end = len(rides)
	}
	return rides[offset:end]
}

// ========================================
// DISPLAY HELPERS
// ========================================

func stationNames(stations []ridemetrics.Station) map[string]string {
	names := make(map[string]string, len(stations))
	for _, st := range stations {
		names[st.ID] = st.Name
	}
	return names
}

// resolveName prefers the current station registry, then the name recorded on the ride
func resolveName(id, recorded string, names map[string]string) string {
	if name := names[id]; name != "" {
		return name
	}
	if recorded != "" {
		return recorded
	}
	return UnknownStation
}

func toEntry(r ridemetrics.RideRecord, names map[string]string) RideHistoryEntry {
	return RideHistoryEntry{
		ID:               r.ID,
		UserID:           r.UserID,
		BikeID:           r.BikeID,
		StartStationID:   r.StartStationID,
		StartStationName: resolveName(r.StartStationID, r.StartStationName, names),
		EndStationID:     r.EndStationID,
		EndStationName:   resolveName(r.EndStationID, r.EndStationName, names),
		AmountPaid:       ridemetrics.Measurement(r.AmountPaid),
		DistanceKm:       ridemetrics.Measurement(r.DistanceKm),
		DurationSeconds:  ridemetrics.Measurement(r.DurationSeconds),
		DurationMinutes:  ridemetrics.Measurement(r.DurationSeconds) / 60,
		CaloriesBurned:   ridemetrics.Measurement(r.CaloriesBurned),
		CarbonSavedKg:    ridemetrics.Measurement(r.CarbonSavedKg),
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
	}
}

func windowName(w ridemetrics.TimeWindow) string {
	switch w {
	case ridemetrics.WindowDaily:
		return "today"
	case ridemetrics.WindowWeekly:
		return "week"
	case ridemetrics.WindowMonthly:
		return "month"
	default:
		return "all"
	}
}
