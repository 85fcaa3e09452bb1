// Package monitor runs the periodic sweep over all workers, records each
// check, and exposes the results over HTTP.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"geo-alert/internal/metrics"
	"geo-alert/internal/models"
	"geo-alert/internal/modules/alerts"
	"geo-alert/internal/modules/status"
	"geo-alert/internal/modules/zones"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is the scheduler's position in its Idle -> Polling -> Idle cycle.
type State int32

const (
	StateIdle State = iota
	StatePolling
)

func (s State) String() string {
	if s == StatePolling {
		return "polling"
	}
	return "idle"
}

// ServiceInterface is what the HTTP handler needs from the scheduler.
type ServiceInterface interface {
	State() State
	LastSweep() *models.SweepSummary
	Sweep(ctx context.Context) (models.SweepSummary, error)
	HasWorker(workerID int) bool
	LatestChecks(ctx context.Context) ([]*models.ZoneCheck, error)
	WorkerChecks(ctx context.Context, workerID, limit int) ([]*models.ZoneCheck, error)
}

// Config controls which workers are checked and how often.
type Config struct {
	// WorkerIDs are visited in order; keep them ascending.
	WorkerIDs    []int
	PollInterval time.Duration
	// Concurrency bounds how many workers are checked at once. 1 means
	// strictly sequential.
	Concurrency int
}

// Scheduler implements ServiceInterface.
type Scheduler struct {
	cfg         Config
	fetcher     status.ClientInterface
	interpreter status.InterpreterInterface
	dispatcher  alerts.DispatcherInterface
	repo        RepositoryInterface
	clock       Clock
	metrics     *metrics.Recorder
	logger      *slog.Logger

	state   atomic.Int32
	running sync.Mutex

	mu        sync.RWMutex
	lastSweep *models.SweepSummary
}

// NewScheduler wires a scheduler. A nil clock means RealClock.
func NewScheduler(
	cfg Config,
	fetcher status.ClientInterface,
	interpreter status.InterpreterInterface,
	dispatcher alerts.DispatcherInterface,
	repo RepositoryInterface,
	clock Clock,
	rec *metrics.Recorder,
	logger *slog.Logger,
) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		cfg:         cfg,
		fetcher:     fetcher,
		interpreter: interpreter,
		dispatcher:  dispatcher,
		repo:        repo,
		clock:       clock,
		metrics:     rec,
		logger:      logger.With("component", "scheduler"),
	}
}

// Run sweeps immediately and then once per PollInterval until ctx is done.
// It only returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "workers", len(s.cfg.WorkerIDs), "interval", s.cfg.PollInterval, "concurrency", s.cfg.Concurrency)
	for {
		if _, err := s.Sweep(ctx); err != nil {
			if errors.Is(err, models.ErrSweepInProgress) {
				s.logger.Warn("skipping scheduled sweep, a manual sweep is still running")
			} else if ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-s.clock.After(s.cfg.PollInterval):
		}
	}
}

// Sweep checks every worker once and returns when all their alerts have
// been dispatched or have failed. Returns models.ErrSweepInProgress if
// another sweep is running.
func (s *Scheduler) Sweep(ctx context.Context) (models.SweepSummary, error) {
	if !s.running.TryLock() {
		return models.SweepSummary{}, models.ErrSweepInProgress
	}
	defer s.running.Unlock()

	s.state.Store(int32(StatePolling))
	defer s.state.Store(int32(StateIdle))

	summary := models.SweepSummary{
		ID:        uuid.New().String(),
		StartedAt: s.clock.Now().UTC(),
		Workers:   len(s.cfg.WorkerIDs),
	}
	log := s.logger.With("sweep", summary.ID)
	log.Debug("sweep started")

	checks := make([]*models.ZoneCheck, len(s.cfg.WorkerIDs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, id := range s.cfg.WorkerIDs {
		g.Go(func() error {
			checks[i] = s.checkWorker(ctx, log, summary.ID, id)
			return nil
		})
	}
	_ = g.Wait()

	for _, check := range checks {
		if check == nil {
			summary.Skipped++
			continue
		}
		switch check.Status {
		case models.StatusInZone:
			summary.InZone++
		case models.StatusFetchFailed:
			summary.FetchFailures++
		default:
			summary.OutOfZone++
		}
		if check.Alerted {
			summary.AlertsSent++
		}
	}
	summary.Duration = s.clock.Now().UTC().Sub(summary.StartedAt)

	s.metrics.Sweeps.Inc()
	s.metrics.SweepDuration.Observe(summary.Duration.Seconds())
	log.Info("sweep finished",
		"inZone", summary.InZone,
		"outOfZone", summary.OutOfZone,
		"fetchFailures", summary.FetchFailures,
		"alertsSent", summary.AlertsSent,
		"skipped", summary.Skipped,
		"durationMs", summary.Duration.Milliseconds())

	s.mu.Lock()
	s.lastSweep = &summary
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("monitor.Sweep: %w", err)
	}
	return summary, nil
}

// checkWorker runs fetch, interpret, evaluate and alert for one worker. It
// never fails; every problem ends up in the returned check. It returns nil,
// and records nothing, when ctx was cancelled before the worker's status
// could be retrieved.
func (s *Scheduler) checkWorker(ctx context.Context, log *slog.Logger, sweepID string, workerID int) *models.ZoneCheck {
	log = log.With("worker", workerID)
	now := s.clock.Now()
	check := &models.ZoneCheck{
		ID:        uuid.New().String(),
		SweepID:   sweepID,
		WorkerID:  workerID,
		CheckedAt: now.UTC(),
	}

	report, err := s.fetchReport(ctx, workerID)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down: the failure says nothing about the worker.
			log.Debug("sweep cancelled before worker was checked", "error", err)
			return nil
		}
		code, msg := failureDetails(err)
		log.Warn("failed to retrieve worker location, sending alert", "statusCode", code, "error", err)
		s.metrics.FetchFailures.Inc()
		check.Status = models.StatusFetchFailed
		check.Error = err.Error()
		check.Alerted = s.dispatcher.Dispatch(ctx, alerts.NewFetchFailure(workerID, now, code, msg))
		s.record(ctx, log, check)
		return check
	}

	if report.ExtraPoints > 0 {
		log.Warn("status payload had more than one location, kept the last", "extraPoints", report.ExtraPoints)
	}

	res := zones.Evaluate(report)
	for _, diag := range res.Diagnostics {
		log.Warn("ignoring invalid safety zone", "error", diag)
	}

	check.Status = res.Status
	check.ZoneCount = len(report.Zones)
	if report.Location != nil {
		lon, lat := report.Location.X, report.Location.Y
		check.Longitude, check.Latitude = &lon, &lat
	}

	if res.Status == models.StatusInZone {
		log.Debug("worker inside safety zone", "zone", res.MatchedZone)
	} else {
		log.Warn("worker out of safety zone, sending alert", "status", res.Status, "zones", len(report.Zones))
		check.Alerted = s.dispatcher.Dispatch(ctx, alerts.NewOutOfZone(workerID, now, report.Location, report.Zones))
	}

	s.record(ctx, log, check)
	return check
}

func (s *Scheduler) fetchReport(ctx context.Context, workerID int) (*models.LocationReport, error) {
	fc, err := s.fetcher.FetchStatus(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return s.interpreter.Interpret(workerID, fc)
}

func (s *Scheduler) record(ctx context.Context, log *slog.Logger, check *models.ZoneCheck) {
	s.metrics.Checks.WithLabelValues(string(check.Status)).Inc()
	if err := s.repo.SaveCheck(ctx, check); err != nil {
		log.Error("failed to save zone check", "error", err)
	}
}

// failureDetails extracts the status code and message reported in a
// FetchFailure alert. Payloads that arrived but could not be interpreted
// are reported with code 200 and the interpretation error; anything else
// never reached the status source and gets code 0.
func failureDetails(err error) (int, string) {
	var fe *status.FetchError
	switch {
	case errors.As(err, &fe):
		return fe.StatusCode, fe.Message
	case errors.Is(err, models.ErrMalformedPayload), errors.Is(err, models.ErrMissingLocation):
		return http.StatusOK, err.Error()
	default:
		return 0, err.Error()
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// LastSweep returns the most recent completed sweep, or nil.
func (s *Scheduler) LastSweep() *models.SweepSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSweep == nil {
		return nil
	}
	out := *s.lastSweep
	return &out
}

// HasWorker reports whether workerID is monitored.
func (s *Scheduler) HasWorker(workerID int) bool {
	for _, id := range s.cfg.WorkerIDs {
		if id == workerID {
			return true
		}
	}
	return false
}

// LatestChecks returns the newest check of every worker.
func (s *Scheduler) LatestChecks(ctx context.Context) ([]*models.ZoneCheck, error) {
	return s.repo.LatestByWorker(ctx)
}

// WorkerChecks returns up to limit checks of one worker, newest first.
func (s *Scheduler) WorkerChecks(ctx context.Context, workerID, limit int) ([]*models.ZoneCheck, error) {
	if !s.HasWorker(workerID) {
		return nil, models.ErrInvalidWorkerID
	}
	return s.repo.ListByWorker(ctx, workerID, limit)
}
