package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"geo-alert/internal/models"
	"geo-alert/internal/modules/status"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSweepClassifiesWorkers(t *testing.T) {
	fetcher := &fakeFetcher{results: map[int]fetchResult{
		1: {fc: collection(-121.98, 37.35, zoneRect)},     // inside
		2: {fc: collection(-122.0329, 37.3454, zoneRect)}, // on edge
		3: {fc: collection(-122.2210, 37.4786, zoneRect)}, // outside
		4: {fc: collection(-121.98, 37.35)},               // no zones
		5: {err: &status.FetchError{WorkerID: 5, StatusCode: 503, Message: "Service Unavailable"}},
	}}
	dispatcher := &fakeDispatcher{}
	s, rec := newTestScheduler(Config{WorkerIDs: []int{1, 2, 3, 4, 5}, Concurrency: 1}, fetcher, dispatcher, nil, newFakeClock())

	summary, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if summary.Workers != 5 || summary.InZone != 2 || summary.OutOfZone != 2 || summary.FetchFailures != 1 || summary.AlertsSent != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	if got := fetcher.callOrder(); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("fetch order = %v, want ascending", got)
	}

	events := dispatcher.sent()
	if len(events) != 3 {
		t.Fatalf("alerts = %d, want 3", len(events))
	}
	kinds := map[int]models.AlertKind{}
	for _, ev := range events {
		kinds[ev.WorkerID] = ev.Kind
	}
	want := map[int]models.AlertKind{3: models.AlertOutOfZone, 4: models.AlertOutOfZone, 5: models.AlertFetchFailure}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("alert kinds = %v, want %v", kinds, want)
	}
	for _, ev := range events {
		if ev.Kind == models.AlertFetchFailure && (ev.StatusCode != 503 || ev.StatusMessage != "Service Unavailable") {
			t.Fatalf("fetch failure alert = %+v", ev)
		}
		if ev.Kind == models.AlertOutOfZone && ev.WorkerID == 3 && (ev.Location == nil || len(ev.Zones) != 1) {
			t.Fatalf("out of zone alert = %+v", ev)
		}
	}

	if got := testutil.ToFloat64(rec.Checks.WithLabelValues(string(models.StatusInZone))); got != 2 {
		t.Fatalf("in_zone checks metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.FetchFailures); got != 1 {
		t.Fatalf("fetch failures metric = %v, want 1", got)
	}
	if s.State() != StateIdle {
		t.Fatalf("State() after sweep = %v, want idle", s.State())
	}
	if last := s.LastSweep(); last == nil || last.ID != summary.ID {
		t.Fatalf("LastSweep() = %+v", last)
	}
}

func TestSweepUninterpretablePayloadIsFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{results: map[int]fetchResult{
		1: {fc: &models.FeatureCollection{}},
		2: {err: models.ErrMalformedPayload},
	}}
	dispatcher := &fakeDispatcher{}
	s, _ := newTestScheduler(Config{WorkerIDs: []int{1, 2}}, fetcher, dispatcher, nil, newFakeClock())

	if _, err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	events := dispatcher.sent()
	if len(events) != 2 {
		t.Fatalf("alerts = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Kind != models.AlertFetchFailure || ev.StatusCode != http.StatusOK {
			t.Fatalf("alert = %+v, want fetch failure with code 200", ev)
		}
	}
	if !strings.Contains(events[0].StatusMessage, "no location") {
		t.Fatalf("status message = %q", events[0].StatusMessage)
	}
}

func TestSweepWithHTTPFailureContinuesToLaterWorkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		if id == 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[0.5,0.5]}},
			{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`))
	}))
	defer srv.Close()

	dispatcher := &fakeDispatcher{}
	repo := NewMemoryRepository(10)
	s, _ := newTestScheduler(Config{WorkerIDs: []int{1, 2, 3, 4}}, status.NewClient(srv.URL, time.Second), dispatcher, repo, newFakeClock())

	summary, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	events := dispatcher.sent()
	if len(events) != 1 || events[0].Kind != models.AlertFetchFailure || events[0].WorkerID != 2 || events[0].StatusCode != 503 {
		t.Fatalf("alerts = %+v, want one fetch failure for worker 2", events)
	}
	if summary.InZone != 3 {
		t.Fatalf("InZone = %d, want 3", summary.InZone)
	}

	latest, _ := repo.LatestByWorker(context.Background())
	if len(latest) != 4 {
		t.Fatalf("recorded %d workers, want 4", len(latest))
	}
	if latest[1].Status != models.StatusFetchFailed || !latest[1].Alerted {
		t.Fatalf("worker 2 check = %+v", latest[1])
	}
	if latest[3].Status != models.StatusInZone || latest[3].Longitude == nil || *latest[3].Longitude != 0.5 {
		t.Fatalf("worker 4 check = %+v", latest[3])
	}
}

func TestSweepDispatchAndRepositoryFailuresAreNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{results: map[int]fetchResult{
		1: {fc: collection(5, 5, zoneRect)},
		2: {fc: collection(5, 5, zoneRect)},
	}}
	dispatcher := &fakeDispatcher{fail: true}
	s, _ := newTestScheduler(Config{WorkerIDs: []int{1, 2}}, fetcher, dispatcher, failingRepo{NewMemoryRepository(1)}, newFakeClock())

	summary, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(dispatcher.sent()) != 2 {
		t.Fatalf("dispatch attempts = %d, want 2", len(dispatcher.sent()))
	}
	if summary.OutOfZone != 2 || summary.AlertsSent != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSweepConcurrentSlowWorkerDoesNotBlockOthers(t *testing.T) {
	ids := []int{1, 2, 3, 4}
	results := map[int]fetchResult{}
	for _, id := range ids {
		results[id] = fetchResult{fc: collection(-121.98, 37.35, zoneRect)}
	}

	var others atomic.Int32
	released := make(chan struct{})
	fetcher := &fakeFetcher{results: results}
	fetcher.hook = func(ctx context.Context, workerID int) {
		if workerID != 1 {
			if others.Add(1) == int32(len(ids)-1) {
				close(released)
			}
			return
		}
		select {
		case <-released:
		case <-time.After(5 * time.Second):
			t.Errorf("other workers did not finish while worker 1 was slow")
		}
	}

	s, _ := newTestScheduler(Config{WorkerIDs: ids, Concurrency: 2}, fetcher, &fakeDispatcher{}, nil, newFakeClock())
	summary, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if summary.InZone != len(ids) {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSweepRejectsOverlap(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := &fakeFetcher{results: map[int]fetchResult{1: {fc: collection(0, 0)}}}
	fetcher.hook = func(context.Context, int) {
		close(entered)
		<-release
	}
	s, _ := newTestScheduler(Config{WorkerIDs: []int{1}}, fetcher, &fakeDispatcher{}, nil, newFakeClock())

	done := make(chan error, 1)
	go func() {
		_, err := s.Sweep(context.Background())
		done <- err
	}()
	<-entered

	if s.State() != StatePolling {
		t.Fatalf("State() during sweep = %v, want polling", s.State())
	}
	if _, err := s.Sweep(context.Background()); !errors.Is(err, models.ErrSweepInProgress) {
		t.Fatalf("overlapping Sweep() error = %v, want ErrSweepInProgress", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Sweep() error = %v", err)
	}
}

func TestRunSweepsOncePerInterval(t *testing.T) {
	fetcher := &fakeFetcher{results: map[int]fetchResult{1: {fc: collection(-121.98, 37.35, zoneRect)}}}
	clock := newFakeClock()
	s, rec := newTestScheduler(Config{WorkerIDs: []int{1}, PollInterval: time.Minute}, fetcher, &fakeDispatcher{}, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Each After call happens once a sweep has finished.
	tick := <-clock.waiters
	if got := testutil.ToFloat64(rec.Sweeps); got != 1 {
		t.Fatalf("sweeps before first interval = %v, want 1", got)
	}
	tick <- clock.Now().Add(time.Minute)

	<-clock.waiters
	if got := testutil.ToFloat64(rec.Sweeps); got != 2 {
		t.Fatalf("sweeps after first interval = %v, want 2", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if got := len(fetcher.callOrder()); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestWorkerChecks(t *testing.T) {
	fetcher := &fakeFetcher{results: map[int]fetchResult{1: {fc: collection(-121.98, 37.35, zoneRect)}}}
	s, _ := newTestScheduler(Config{WorkerIDs: []int{1}}, fetcher, &fakeDispatcher{}, nil, newFakeClock())
	for i := 0; i < 3; i++ {
		if _, err := s.Sweep(context.Background()); err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
	}

	checks, err := s.WorkerChecks(context.Background(), 1, 2)
	if err != nil || len(checks) != 2 {
		t.Fatalf("WorkerChecks() = %d checks, %v", len(checks), err)
	}
	if _, err := s.WorkerChecks(context.Background(), 9, 2); !errors.Is(err, models.ErrInvalidWorkerID) {
		t.Fatalf("WorkerChecks(9) error = %v, want ErrInvalidWorkerID", err)
	}
}

func TestSweepDegenerateRingDoesNotHideValidZone(t *testing.T) {
	fc := &models.FeatureCollection{Type: "FeatureCollection", Features: []models.Feature{
		{Type: "Feature", Geometry: models.Geometry{Type: models.GeometryPoint, Coordinates: []byte(`[0.5,0.5]`)}},
		{Type: "Feature", Geometry: models.Geometry{Type: models.GeometryPolygon, Coordinates: []byte(`[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`)}},
		{Type: "Feature", Geometry: models.Geometry{Type: models.GeometryPolygon, Coordinates: []byte(`[[[5,5],[6,6],[5,5]]]`)}},
	}}
	fetcher := &fakeFetcher{results: map[int]fetchResult{1: {fc: fc}}}
	dispatcher := &fakeDispatcher{}
	repo := NewMemoryRepository(10)
	s, rec := newTestScheduler(Config{WorkerIDs: []int{1}}, fetcher, dispatcher, repo, newFakeClock())

	summary, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if summary.InZone != 1 || summary.FetchFailures != 0 || summary.AlertsSent != 0 {
		t.Fatalf("summary = %+v, want one worker in zone and no alerts", summary)
	}
	if events := dispatcher.sent(); len(events) != 0 {
		t.Fatalf("alerts = %+v, want none", events)
	}
	if got := testutil.ToFloat64(rec.FetchFailures); got != 0 {
		t.Fatalf("fetch failures metric = %v, want 0", got)
	}
	latest, _ := repo.LatestByWorker(context.Background())
	if len(latest) != 1 || latest[0].Status != models.StatusInZone || latest[0].ZoneCount != 2 {
		t.Fatalf("recorded checks = %+v", latest)
	}
}

func TestSweepCancelledMidwayRecordsNothingForSkippedWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelled := &status.FetchError{StatusCode: 0, Message: "context canceled", Err: context.Canceled}
	fetcher := &fakeFetcher{results: map[int]fetchResult{
		1: {fc: collection(-121.98, 37.35, zoneRect)},
		2: {err: cancelled},
		3: {err: cancelled},
	}}
	fetcher.hook = func(_ context.Context, workerID int) {
		if workerID == 2 {
			cancel()
		}
	}
	dispatcher := &fakeDispatcher{}
	repo := NewMemoryRepository(10)
	s, rec := newTestScheduler(Config{WorkerIDs: []int{1, 2, 3}}, fetcher, dispatcher, repo, newFakeClock())

	summary, err := s.Sweep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sweep() error = %v, want context.Canceled", err)
	}
	if summary.InZone != 1 || summary.FetchFailures != 0 || summary.Skipped != 2 {
		t.Fatalf("summary = %+v, want 1 in zone and 2 skipped", summary)
	}
	if events := dispatcher.sent(); len(events) != 0 {
		t.Fatalf("alerts = %+v, want none", events)
	}
	if got := testutil.ToFloat64(rec.FetchFailures); got != 0 {
		t.Fatalf("fetch failures metric = %v, want 0", got)
	}
	if got := testutil.ToFloat64(rec.Checks.WithLabelValues(string(models.StatusFetchFailed))); got != 0 {
		t.Fatalf("fetch_failed checks metric = %v, want 0", got)
	}
	latest, _ := repo.LatestByWorker(context.Background())
	if len(latest) != 1 || latest[0].WorkerID != 1 {
		t.Fatalf("recorded checks = %+v, want only worker 1", latest)
	}
}

func TestFailureDetails(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"http status", &status.FetchError{WorkerID: 1, StatusCode: 503, Message: "Service Unavailable"}, 503},
		{"timeout", &status.FetchError{WorkerID: 1, Message: "request timed out after 15s"}, 0},
		{"malformed payload", fmt.Errorf("%w: feature 0: bad", models.ErrMalformedPayload), http.StatusOK},
		{"missing location", models.ErrMissingLocation, http.StatusOK},
		{"request not built", fmt.Errorf("status.FetchStatus: %w", errors.New("parse \"::\": missing protocol scheme")), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := failureDetails(tc.err)
			if code != tc.code {
				t.Fatalf("failureDetails() code = %d, want %d", code, tc.code)
			}
			if msg == "" {
				t.Fatalf("failureDetails() message is empty")
			}
		})
	}
}
