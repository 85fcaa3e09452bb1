// Package alerts formats anomaly events and hands them to the email transport.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"geo-alert/internal/geo"
	"geo-alert/internal/metrics"
	"geo-alert/internal/models"
	"geo-alert/pkg/email"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Subjects of the two alert kinds.
const (
	SubjectOutOfZone    = "[GEO-ALERT] Worker Out of Safety Zone"
	SubjectFetchFailure = "[GEO-ALERT] Endpoint Failure"
)

// TimestampLayout renders alert timestamps, always in UTC.
const TimestampLayout = "02/01/2006 15:04:05 UTC"

// Config addresses alerts and bounds their send rate.
type Config struct {
	Recipient string
	// RatePerSecond limits sends; zero or negative means unlimited.
	RatePerSecond float64
	Burst         int
}

// DispatcherInterface delivers one alert. Dispatch never returns an error;
// the result only reports whether the transport accepted the alert.
type DispatcherInterface interface {
	Dispatch(ctx context.Context, event models.AlertEvent) bool
}

// Dispatcher implements DispatcherInterface over an email.ServiceInterface.
type Dispatcher struct {
	cfg       Config
	sender    email.ServiceInterface
	templates *email.TemplateManager
	limiter   *rate.Limiter
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg Config, sender email.ServiceInterface, templates *email.TemplateManager, rec *metrics.Recorder, logger *slog.Logger) *Dispatcher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Dispatcher{
		cfg:       cfg,
		sender:    sender,
		templates: templates,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		metrics:   rec,
		logger:    logger.With("component", "alerts"),
	}
}

// NewOutOfZone builds an out-of-zone alert. loc is nil when the location was indeterminate.
func NewOutOfZone(workerID int, at time.Time, loc *geo.Point, zones []geo.Polygon) models.AlertEvent {
	return models.AlertEvent{
		ID:        uuid.New().String(),
		Kind:      models.AlertOutOfZone,
		WorkerID:  workerID,
		Timestamp: at.UTC(),
		Location:  loc,
		Zones:     zones,
	}
}

// NewFetchFailure builds an endpoint failure alert. statusCode is 0 when no
// HTTP response was received.
func NewFetchFailure(workerID int, at time.Time, statusCode int, statusMessage string) models.AlertEvent {
	return models.AlertEvent{
		ID:            uuid.New().String(),
		Kind:          models.AlertFetchFailure,
		WorkerID:      workerID,
		Timestamp:     at.UTC(),
		StatusCode:    statusCode,
		StatusMessage: statusMessage,
	}
}

// Format renders the subject and both bodies of an alert.
func (d *Dispatcher) Format(event models.AlertEvent) (subject, plain, html string, err error) {
	ts := event.Timestamp.UTC().Format(TimestampLayout)
	switch event.Kind {
	case models.AlertOutOfZone:
		location := "unknown"
		if event.Location != nil {
			location = event.Location.String()
		}
		zones := make([]string, 0, len(event.Zones))
		for _, z := range event.Zones {
			zones = append(zones, z.String())
		}
		plain, html, err = d.templates.GenerateOutOfZoneEmail(email.OutOfZoneData{
			WorkerID:  event.WorkerID,
			Timestamp: ts,
			Location:  location,
			Zones:     zones,
		})
		return SubjectOutOfZone, plain, html, err

	case models.AlertFetchFailure:
		plain, html, err = d.templates.GenerateFetchFailureEmail(email.FetchFailureData{
			WorkerID:      event.WorkerID,
			Timestamp:     ts,
			StatusCode:    event.StatusCode,
			StatusMessage: event.StatusMessage,
		})
		return SubjectFetchFailure, plain, html, err

	default:
		return "", "", "", fmt.Errorf("alerts.Format: unknown alert kind %q", event.Kind)
	}
}

// Dispatch formats and sends the alert. Failures are logged and counted,
// never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.AlertEvent) bool {
	log := d.logger.With("alertId", event.ID, "kind", event.Kind, "worker", event.WorkerID)

	subject, plain, html, err := d.Format(event)
	if err != nil {
		log.Error("failed to format alert", "error", err)
		d.metrics.Alerts.WithLabelValues(string(event.Kind), metrics.ResultDropped).Inc()
		return false
	}

	if err := d.limiter.Wait(ctx); err != nil {
		log.Error("alert dropped by rate limiter", "error", err)
		d.metrics.Alerts.WithLabelValues(string(event.Kind), metrics.ResultDropped).Inc()
		return false
	}

	if err := d.sender.SendEmail(ctx, d.cfg.Recipient, subject, plain, html); err != nil {
		log.Error("failed to deliver alert", "error", err)
		d.metrics.Alerts.WithLabelValues(string(event.Kind), metrics.ResultFailed).Inc()
		return false
	}

	log.Info("alert delivered", "to", d.cfg.Recipient)
	d.metrics.Alerts.WithLabelValues(string(event.Kind), metrics.ResultSent).Inc()
	return true
}
