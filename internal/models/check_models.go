package models

import "time"

// ZoneCheck records the outcome of checking one worker during one sweep.
type ZoneCheck struct {
	ID        string     `json:"id" db:"id"`
	SweepID   string     `json:"sweep_id" db:"sweep_id"`
	WorkerID  int        `json:"worker_id" db:"worker_id"`
	Status    ZoneStatus `json:"status" db:"status"`
	Longitude *float64   `json:"longitude,omitempty" db:"longitude"`
	Latitude  *float64   `json:"latitude,omitempty" db:"latitude"`
	ZoneCount int        `json:"zone_count" db:"zone_count"`
	Error     string     `json:"error,omitempty" db:"error"`
	Alerted   bool       `json:"alerted" db:"alerted"`
	CheckedAt time.Time  `json:"checked_at" db:"checked_at"`
}

// SweepSummary describes one completed pass over all workers.
type SweepSummary struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Workers       int           `json:"workers"`
	InZone        int           `json:"in_zone"`
	OutOfZone     int           `json:"out_of_zone"`
	FetchFailures int           `json:"fetch_failures"`
	AlertsSent    int           `json:"alerts_sent"`
	// Skipped counts workers left unchecked because the sweep was cancelled.
	Skipped int `json:"skipped"`
}

// CheckListQuery holds the query parameters for listing a worker's checks.
type CheckListQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}
