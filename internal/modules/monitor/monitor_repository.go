package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"geo-alert/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface stores the outcome of every worker check.
type RepositoryInterface interface {
	// SaveCheck stores one check.
	SaveCheck(ctx context.Context, check *models.ZoneCheck) error
	// LatestByWorker returns the newest check of every worker, ordered by worker ID.
	LatestByWorker(ctx context.Context) ([]*models.ZoneCheck, error)
	// ListByWorker returns up to limit checks of one worker, newest first.
	ListByWorker(ctx context.Context, workerID, limit int) ([]*models.ZoneCheck, error)
}

// Repository is a PostgreSQL implementation of RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository instance.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const checkColumns = `id, sweep_id, worker_id, status, longitude, latitude, zone_count, error, alerted, checked_at`

// SaveCheck inserts a zone check.
func (r *Repository) SaveCheck(ctx context.Context, check *models.ZoneCheck) error {
	query := `
        INSERT INTO zone_checks (` + checkColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		check.ID, check.SweepID, check.WorkerID, string(check.Status),
		check.Longitude, check.Latitude, check.ZoneCount, check.Error, check.Alerted, check.CheckedAt)
	if err != nil {
		return fmt.Errorf("repo.SaveCheck: %w", err)
	}
	return nil
}

// LatestByWorker selects the newest row per worker.
func (r *Repository) LatestByWorker(ctx context.Context) ([]*models.ZoneCheck, error) {
	query := `
        SELECT DISTINCT ON (worker_id) ` + checkColumns + `
        FROM zone_checks
        ORDER BY worker_id, checked_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.LatestByWorker: %w", err)
	}
	return scanChecks(rows, "repo.LatestByWorker")
}

// ListByWorker retrieves a worker's checks ordered by time, newest first.
func (r *Repository) ListByWorker(ctx context.Context, workerID, limit int) ([]*models.ZoneCheck, error) {
	query := `
        SELECT ` + checkColumns + `
        FROM zone_checks
        WHERE worker_id = $1
        ORDER BY checked_at DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("repo.ListByWorker: %w", err)
	}
	return scanChecks(rows, "repo.ListByWorker")
}

func scanChecks(rows pgx.Rows, op string) ([]*models.ZoneCheck, error) {
	defer rows.Close()

	checks := []*models.ZoneCheck{}
	for rows.Next() {
		c := &models.ZoneCheck{}
		var st string
		if err := rows.Scan(&c.ID, &c.SweepID, &c.WorkerID, &st, &c.Longitude, &c.Latitude,
			&c.ZoneCount, &c.Error, &c.Alerted, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		c.Status = models.ZoneStatus(st)
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return checks, nil
}

// MemoryRepository keeps the most recent checks of each worker in memory.
// Used when no database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	capacity int
	byWorker map[int][]*models.ZoneCheck // oldest first
}

// NewMemoryRepository keeps at most capacity checks per worker.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryRepository{capacity: capacity, byWorker: make(map[int][]*models.ZoneCheck)}
}

// SaveCheck stores a copy of the check, evicting the oldest when full.
func (m *MemoryRepository) SaveCheck(_ context.Context, check *models.ZoneCheck) error {
	c := *check
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.byWorker[c.WorkerID], &c)
	if len(list) > m.capacity {
		list = list[len(list)-m.capacity:]
	}
	m.byWorker[c.WorkerID] = list
	return nil
}

// LatestByWorker returns the newest check of each worker.
func (m *MemoryRepository) LatestByWorker(_ context.Context) ([]*models.ZoneCheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ZoneCheck, 0, len(m.byWorker))
	for _, list := range m.byWorker {
		c := *list[len(list)-1]
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

// ListByWorker returns up to limit checks, newest first.
func (m *MemoryRepository) ListByWorker(_ context.Context, workerID, limit int) ([]*models.ZoneCheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byWorker[workerID]
	out := []*models.ZoneCheck{}
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		c := *list[i]
		out = append(out, &c)
	}
	return out, nil
}
