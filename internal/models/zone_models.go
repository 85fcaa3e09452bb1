package models

import "geo-alert/internal/geo"

// ZoneStatus is the outcome of checking a worker's location against their zones.
type ZoneStatus string

const (
	StatusInZone        ZoneStatus = "in_zone"
	StatusOutOfZone     ZoneStatus = "out_of_zone"
	StatusIndeterminate ZoneStatus = "indeterminate"
	// StatusFetchFailed is only used in check history, for workers whose
	// status could not be fetched or interpreted.
	StatusFetchFailed ZoneStatus = "fetch_failed"
)

// LocationReport is the result of one status fetch for one worker. The
// location and zones always come from the same payload.
type LocationReport struct {
	WorkerID int
	// Location is nil when the payload carried no Point feature.
	Location *geo.Point
	Zones    []geo.Polygon
	// ExtraPoints counts Point features beyond the first. Non-zero only under
	// the last-point-wins policy.
	ExtraPoints int
}
