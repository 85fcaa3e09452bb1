package models

import (
	"time"

	"geo-alert/internal/geo"
)

// AlertKind tags an AlertEvent.
type AlertKind string

const (
	AlertOutOfZone    AlertKind = "out_of_zone"
	AlertFetchFailure AlertKind = "fetch_failure"
)

// AlertEvent is created for every anomaly found during a sweep. Fields that
// do not apply to the Kind are left zero.
type AlertEvent struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"kind"`
	WorkerID  int       `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`

	// OutOfZone
	Location *geo.Point    `json:"location,omitempty"`
	Zones    []geo.Polygon `json:"-"`

	// FetchFailure
	StatusCode    int    `json:"status_code,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}
