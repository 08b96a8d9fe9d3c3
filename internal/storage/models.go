package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one invocation of the daily update.
type Run struct {
	ID             string
	CreatedAt      time.Time
	RunDate        string // YYYY-MM-DD the watermark was stamped with
	Fingerprint    string
	ScriptPath     string
	FeedPatched    bool
	MissingMarkers string // JSON array stored as text
	Status         string // "completed", "failed"
	Error          string
}
