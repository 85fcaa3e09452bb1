// Package zones decides whether a worker's reported location is inside any
// of their authorized safety zones.
package zones

import (
	"fmt"

	"geo-alert/internal/geo"
	"geo-alert/internal/models"
)

// Result is the outcome of Evaluate.
type Result struct {
	Status models.ZoneStatus
	// MatchedZone is the index of the first zone containing the location, or -1.
	MatchedZone int
	// Diagnostics lists zones that were skipped because they are invalid.
	Diagnostics []error
}

// Evaluate checks the report's location against the report's own zones.
//
//   - no location: StatusIndeterminate
//   - no zones: StatusOutOfZone
//   - otherwise StatusInZone if any zone contains the location, boundary included.
//
// Invalid zones are skipped and reported in Diagnostics.
func Evaluate(report *models.LocationReport) Result {
	res := Result{Status: models.StatusIndeterminate, MatchedZone: -1}
	if report == nil || report.Location == nil {
		return res
	}

	res.Status = models.StatusOutOfZone
	for i, zone := range report.Zones {
		ok, err := geo.Contains(*report.Location, zone)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, fmt.Errorf("zone %d: %w", i, err))
			continue
		}
		if ok {
			res.Status = models.StatusInZone
			res.MatchedZone = i
			return res
		}
	}
	return res
}
