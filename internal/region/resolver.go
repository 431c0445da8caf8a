package region

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"drivermon/internal/logging"
	"drivermon/internal/params"
)

// Status is the resolved traffic side.
type Status struct {
	IsRHD   bool
	Checked bool
}

// Fix is a geographic position report.
type Fix struct {
	Latitude  float64
	Longitude float64
	HasFix    bool
}

// Classifier reports whether a coordinate lies in right-hand-drive territory.
type Classifier func(lat, lon float64) bool

// Persister stores the resolved value without blocking the caller.
type Persister interface {
	PutNonBlocking(key, value string)
}

// Getter reads a persisted value.
type Getter interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// LoadStatus reads the persisted region. A present, numeric value counts as
// checked.
func LoadStatus(ctx context.Context, store Getter) (Status, error) {
	raw, ok, err := store.Get(ctx, params.KeyIsRHD)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		// An unreadable value is resolved again from the next fix.
		return Status{}, nil
	}
	return Status{IsRHD: n != 0, Checked: true}, nil
}

// Resolver owns the region status for one process. It is not safe for
// concurrent use.
type Resolver struct {
	status   Status
	classify Classifier
	persist  Persister
	logger   *slog.Logger
}

// NewResolver creates a resolver seeded with the persisted status.
func NewResolver(initial Status, classify Classifier, persist Persister, logger *slog.Logger) *Resolver {
	return &Resolver{
		status:   initial,
		classify: classify,
		persist:  persist,
		logger:   logging.NewComponentLogger(logger, "region"),
	}
}

// Status returns the current region status.
func (r *Resolver) Status() Status {
	return r.status
}

// Resolve classifies fix when the region is still unchecked. It returns the
// status and whether this call changed it. Invalid fixes are ignored.
func (r *Resolver) Resolve(fix Fix) (Status, bool) {
	if r.status.Checked || !fix.Valid() || r.classify == nil {
		return r.status, false
	}

	isRHD := r.classify(fix.Latitude, fix.Longitude)
	r.status = Status{IsRHD: isRHD, Checked: true}
	if r.persist != nil {
		value := "0"
		if isRHD {
			value = "1"
		}
		r.persist.PutNonBlocking(params.KeyIsRHD, value)
	}
	r.logger.Info("region resolved",
		logging.Bool("is_rhd", isRHD),
		logging.Float64("latitude", fix.Latitude),
		logging.Float64("longitude", fix.Longitude),
	)
	return r.status, true
}

// Bypass marks the region as right-hand drive and checked without persisting.
func (r *Resolver) Bypass() {
	r.status = Status{IsRHD: true, Checked: true}
}

// Valid reports whether the fix carries a usable coordinate.
func (f Fix) Valid() bool {
	return f.HasFix && validCoordinate(f.Latitude, f.Longitude)
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
