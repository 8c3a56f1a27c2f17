package domain

import "time"

// Data provenance for a snapshot.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Snapshot states. Empty is a successful fetch that yielded zero
// qualifying records; it is deliberately distinct from Error.
const (
	StateOK    = "ok"
	StateEmpty = "empty"
	StateError = "error"
)

// CachedPayload is the unit of persistence: the full record set for one
// data domain plus the moment it was written. Overwritten atomically on
// every successful refresh.
type CachedPayload[T any] struct {
	Data      []T       `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is the orchestrator-owned last-known-good view of one data
// domain. Readers always receive a value copy; the slice inside is never
// mutated after the snapshot is installed.
type Snapshot[T any] struct {
	Data      []T
	UpdatedAt time.Time
	Source    string
	State     string
}

// RefreshStats summarises one refresh cycle across both domains.
type RefreshStats struct {
	Matches   int
	News      int
	Errors    int
	Published int
	Duration  time.Duration
}
