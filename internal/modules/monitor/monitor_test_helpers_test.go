package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"geo-alert/internal/logger"
	"geo-alert/internal/metrics"
	"geo-alert/internal/models"
	"geo-alert/internal/modules/status"
)

// fakeClock hands out After channels the test fires by hand.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters chan chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		waiters: make(chan chan time.Time, 16),
	}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	f.waiters <- ch
	return ch
}

type fetchResult struct {
	fc  *models.FeatureCollection
	err error
}

type fakeFetcher struct {
	mu      sync.Mutex
	results map[int]fetchResult
	calls   []int
	hook    func(ctx context.Context, workerID int)
}

func (f *fakeFetcher) FetchStatus(ctx context.Context, workerID int) (*models.FeatureCollection, error) {
	f.mu.Lock()
	f.calls = append(f.calls, workerID)
	res, ok := f.results[workerID]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, workerID)
	}
	if !ok {
		return nil, &status.FetchError{WorkerID: workerID, StatusCode: 404, Message: "Not Found"}
	}
	return res.fc, res.err
}

func (f *fakeFetcher) callOrder() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []models.AlertEvent
	fail   bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event models.AlertEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return !f.fail
}

func (f *fakeDispatcher) sent() []models.AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AlertEvent(nil), f.events...)
}

type failingRepo struct{ *MemoryRepository }

func (failingRepo) SaveCheck(context.Context, *models.ZoneCheck) error {
	return fmt.Errorf("database unavailable")
}

// collection builds a payload with one point and one rectangular zone per rect.
func collection(x, y float64, rects ...[4]float64) *models.FeatureCollection {
	pointCoords, _ := json.Marshal([]float64{x, y})
	fc := &models.FeatureCollection{
		Type: "FeatureCollection",
		Features: []models.Feature{{
			Type:     "Feature",
			Geometry: models.Geometry{Type: models.GeometryPoint, Coordinates: pointCoords},
		}},
	}
	for _, r := range rects {
		ring := [][][]float64{{{r[0], r[1]}, {r[2], r[1]}, {r[2], r[3]}, {r[0], r[3]}, {r[0], r[1]}}}
		coords, _ := json.Marshal(ring)
		fc.Features = append(fc.Features, models.Feature{
			Type:     "Feature",
			Geometry: models.Geometry{Type: models.GeometryPolygon, Coordinates: coords},
		})
	}
	return fc
}

var zoneRect = [4]float64{-122.0329, 37.30, -121.95, 37.40}

func newTestScheduler(cfg Config, fetcher status.ClientInterface, dispatcher *fakeDispatcher, repo RepositoryInterface, clock Clock) (*Scheduler, *metrics.Recorder) {
	rec := metrics.New()
	if repo == nil {
		repo = NewMemoryRepository(10)
	}
	s := NewScheduler(cfg, fetcher, status.NewInterpreter(status.PolicyLastPointWins), dispatcher, repo, clock, rec, logger.Discard())
	return s, rec
}
