package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/ecoride/ride-metrics/internal/ridemetrics"
	"github.com/ecoride/ride-metrics/pkg/config"
	"github.com/ecoride/ride-metrics/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Collection names used by the mobile app
const (
	rideHistoryCollection = "ride_history"
	stationsCollection    = "stations"
	ratingsCollection     = "ride_ratings"
)

// FirestoreSource reads snapshots straight from the mobile app's Firestore collections
type FirestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource connects to Firestore through the Firebase Admin SDK
func NewFirestoreSource(ctx context.Context, cfg config.FirebaseConfig) (*FirestoreSource, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreSource{client: client}, nil
}

// Close releases the Firestore client
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}

// LoadRides reads and normalizes every ride_history document
func (s *FirestoreSource) LoadRides(ctx context.Context) ([]ridemetrics.RideRecord, error) {
	rides := make([]ridemetrics.RideRecord, 0)
	err := s.each(ctx, rideHistoryCollection, func(id string, data map[string]interface{}) {
		rides = append(rides, rideFromDocument(id, data))
	})
	if err != nil {
		return nil, err
	}
	return rides, nil
}

// LoadStations reads the station registry
func (s *FirestoreSource) LoadStations(ctx context.Context) ([]ridemetrics.Station, error) {
	stations := make([]ridemetrics.Station, 0)
	err := s.each(ctx, stationsCollection, func(id string, data map[string]interface{}) {
		stations = append(stations, stationFromDocument(id, data))
	})
	if err != nil {
		return nil, err
	}
	return stations, nil
}

// LoadRatings reads every ride rating that carries a timestamp
func (s *FirestoreSource) LoadRatings(ctx context.Context) ([]ridemetrics.RideRating, error) {
	ratings := make([]ridemetrics.RideRating, 0)
	skipped := 0
	err := s.each(ctx, ratingsCollection, func(id string, data map[string]interface{}) {
		rating, ok := ratingFromDocument(id, data)
		if !ok {
			skipped++
			return
		}
		ratings = append(ratings, rating)
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.WithContext(ctx).Warn("skipped ratings without timestamp", zap.Int("count", skipped))
	}
	return ratings, nil
}

// Ping reads a single station document
func (s *FirestoreSource) Ping(ctx context.Context) error {
	iter := s.client.Collection(stationsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (s *FirestoreSource) each(ctx context.Context, collection string, fn func(id string, data map[string]interface{})) error {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", collection, err)
		}
		fn(doc.Ref.ID, doc.Data())
	}
}

// ========================================
// DOCUMENT DECODING
// ========================================

// rideFromDocument normalizes a loosely typed ride document. Missing or malformed
// numbers become 0 and an unreadable rideEndedAt leaves EndedAt nil.
func rideFromDocument(id string, data map[string]interface{}) ridemetrics.RideRecord {
	metrics, _ := data["currentMetrics"].(map[string]interface{})

	return ridemetrics.RideRecord{
		ID:               id,
		UserID:           toString(data["userId"]),
		BikeID:           toString(data["bikeId"]),
		StartedAt:        toTime(data["rideStartedAt"]),
		EndedAt:          toTime(data["rideEndedAt"]),
		StartStationID:   toString(data["startStation"]),
		StartStationName: firstString(data["startStationName"], data["stationName"]),
		EndStationID:     toString(data["endStation"]),
		EndStationName:   toString(data["endStationName"]),
		AmountPaid:       toNumber(data["amountPaid"]),
		DistanceKm:       firstNumber(data["distance"], metrics["distance"]),
		DurationSeconds:  firstNumber(data["duration"], metrics["duration"]),
		CaloriesBurned:   firstNumber(data["caloriesBurned"], metrics["calories"]),
		CarbonSavedKg:    toNumber(data["carbonSaved"]),
	}
}

func stationFromDocument(id string, data map[string]interface{}) ridemetrics.Station {
	return ridemetrics.Station{ID: id, Name: toString(data["stationName"])}
}

func ratingFromDocument(id string, data map[string]interface{}) (ridemetrics.RideRating, bool) {
	ts := toTime(data["timestamp"])
	if ts == nil {
		return ridemetrics.RideRating{}, false
	}
	return ridemetrics.RideRating{
		ID:        id,
		RideID:    toString(data["rideId"]),
		Rating:    toNumber(data["rating"]),
		Timestamp: *ts,
	}, true
}

// toTime accepts Firestore timestamps, {seconds, nanoseconds} maps, RFC 3339 strings
// and epoch milliseconds.
func toTime(v interface{}) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return nil
		}
		t = *val
	case map[string]interface{}:
		secs, ok := val["seconds"]
		if !ok {
			secs, ok = val["_seconds"]
		}
		if !ok {
			return nil
		}
		nanos := firstNumber(val["nanoseconds"], val["_nanoseconds"])
		t = time.Unix(int64(toNumber(secs)), int64(nanos))
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(val))
		if err != nil {
			return nil
		}
		t = parsed
	case int64, int, float64:
		ms := toNumber(val)
		if ms <= 0 {
			return nil
		}
		t = time.UnixMilli(int64(ms))
	default:
		return nil
	}

	if t.IsZero() {
		return nil
	}
	return &t
}

// toNumber coerces loose numeric values; anything unreadable is 0
func toNumber(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int64:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case bool:
		if val {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func firstNumber(values ...interface{}) float64 {
	for _, v := range values {
		if n := toNumber(v); n != 0 {
			return n
		}
	}
	return 0
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *firestore.DocumentRef:
		if val == nil {
			return ""
		}
		return val.ID
	default:
		return ""
	}
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s := toString(v); s != "" {
			return s
		}
	}
	return ""
}
