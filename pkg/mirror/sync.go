// Package mirror copies products, users and manufacturing orders from Odoo
// into PostgreSQL, on demand or on a cron schedule.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/odoo/pkg/odoo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var (
	// ErrSyncInProgress is returned by Run while another run is active.
	ErrSyncInProgress = errors.New("mirror sync already in progress")

	// ErrConnection is returned when the pre-flight connection test fails.
	ErrConnection = errors.New("cannot connect to Odoo, check configuration and network")
)

const (
	DefaultLimit       = 100
	DefaultConcurrency = 10

	maxReportedErrors = 10
)

// Source is the part of the Odoo client the mirror reads from.
type Source interface {
	TestConnection(ctx context.Context) bool
	SearchProducts(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error)
	SearchUsers(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error)
	SearchProductionOrders(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error)
}

// Store persists mirrored rows. Upserts are keyed by the Odoo id.
type Store interface {
	UpsertProduct(ctx context.Context, p Product) error
	UpsertUser(ctx context.Context, u User) error
	UpsertProductionOrder(ctx context.Context, o ProductionOrder) error
	RecordRun(ctx context.Context, run Run) error
}

// SyncOption configures a SyncService.
type SyncOption func(*SyncService)

// WithLimit caps how many records of each family one run pulls.
func WithLimit(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithConcurrency bounds the concurrent upserts per family.
func WithConcurrency(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// SyncService pulls the three mirrored families from Odoo into a Store.
// At most one run is active at a time.
type SyncService struct {
	source      Source
	store       Store
	limit       int
	concurrency int
	logger      *zap.Logger

	mu         sync.Mutex
	inProgress bool
	lastSync   time.Time
	errors     []SyncError
}

// NewSyncService creates a new sync service
func NewSyncService(source Source, store Store, logger *zap.Logger, opts ...SyncOption) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{
		source:      source,
		store:       store,
		limit:       DefaultLimit,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one full pull. The returned Run is also recorded in the
// store; it is non-nil whenever the run started, even on failure.
func (s *SyncService) Run(ctx context.Context) (*Run, error) {
	if !s.begin() {
		s.logger.Info("Sync already in progress, skipping")
		return nil, ErrSyncInProgress
	}
	defer s.end()

	run := &Run{ID: uuid.New(), StartedAt: time.Now().UTC()}
	logger := s.logger.With(zap.String("run_id", run.ID.String()))
	logger.Info("Starting Odoo mirror sync", zap.Int("limit", s.limit))

	metrics := newSyncMetrics()
	err := s.pull(ctx, logger, metrics)

	run.FinishedAt = time.Now().UTC()
	metrics.fill(run)
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		s.addError(SyncError{Type: "full_sync", Error: err.Error(), Timestamp: run.FinishedAt})
		logger.Error("Mirror sync failed", zap.Error(err))
	} else {
		run.Status = RunStatusCompleted
		s.mu.Lock()
		s.lastSync = run.FinishedAt
		s.mu.Unlock()
	}

	if recErr := s.store.RecordRun(ctx, *run); recErr != nil {
		logger.Warn("Failed to record sync run", zap.Error(recErr))
	}

	logger.Info("Completed Odoo mirror sync",
		zap.String("status", run.Status),
		zap.Duration("duration", run.Duration()),
		zap.Int("products_fetched", run.ProductsFetched),
		zap.Int("products_upserted", run.ProductsUpserted),
		zap.Int("users_fetched", run.UsersFetched),
		zap.Int("users_upserted", run.UsersUpserted),
		zap.Int("orders_fetched", run.OrdersFetched),
		zap.Int("orders_upserted", run.OrdersUpserted),
		zap.Int("total_upserted", metrics.TotalUpserted()),
		zap.Int("total_failed", metrics.TotalFailed()))

	return run, err
}

// Status reports whether a run is active, when the last successful run
// finished, and the most recent errors of the current or last run.
func (s *SyncService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.errors
	if len(recent) > maxReportedErrors {
		recent = recent[len(recent)-maxReportedErrors:]
	}
	return Status{
		InProgress:  s.inProgress,
		LastSync:    s.lastSync,
		Errors:      append([]SyncError(nil), recent...),
		TotalErrors: len(s.errors),
	}
}

func (s *SyncService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProgress {
		return false
	}
	s.inProgress = true
	s.errors = nil
	return true
}

func (s *SyncService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress = false
}

func (s *SyncService) addError(e SyncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, e)
}

// pull tests the connection, then pulls the three families concurrently.
func (s *SyncService) pull(ctx context.Context, logger *zap.Logger, metrics *SyncMetrics) error {
	if !s.source.TestConnection(ctx) {
		return ErrConnection
	}

	active := odoo.Domain{odoo.Term("active", "=", true)}
	limited := odoo.SearchOptions{Limit: s.limit}

	p := pool.New().WithErrors()
	p.Go(func() error {
		records, err := s.source.SearchProducts(ctx, active, productFields, limited)
		if err != nil {
			return fmt.Errorf("failed to pull products: %w", err)
		}
		s.storeAll(ctx, logger, FamilyProducts, records, metrics, func(ctx context.Context, rec odoo.Record, now time.Time) error {
			return s.store.UpsertProduct(ctx, productFromRecord(rec, now))
		})
		return nil
	})
	p.Go(func() error {
		records, err := s.source.SearchUsers(ctx, active, userFields, limited)
		if err != nil {
			return fmt.Errorf("failed to pull users: %w", err)
		}
		s.storeAll(ctx, logger, FamilyUsers, records, metrics, func(ctx context.Context, rec odoo.Record, now time.Time) error {
			return s.store.UpsertUser(ctx, userFromRecord(rec, now))
		})
		return nil
	})
	p.Go(func() error {
		records, err := s.source.SearchProductionOrders(ctx, nil, orderFields,
			odoo.SearchOptions{Limit: s.limit, Order: "write_date desc"})
		if err != nil {
			return fmt.Errorf("failed to pull production orders: %w", err)
		}
		s.storeAll(ctx, logger, FamilyOrders, records, metrics, func(ctx context.Context, rec odoo.Record, now time.Time) error {
			return s.store.UpsertProductionOrder(ctx, orderFromRecord(rec, now))
		})
		return nil
	})

	return p.Wait()
}

// storeAll upserts records with bounded concurrency. A failed record is
// counted and reported; it does not fail the run.
func (s *SyncService) storeAll(ctx context.Context, logger *zap.Logger, family Family, records []odoo.Record, metrics *SyncMetrics,
	save func(context.Context, odoo.Record, time.Time) error) {
	metrics.AddFetched(family, len(records))
	logger.Info("Fetched records from Odoo",
		zap.String("family", string(family)),
		zap.Int("count", len(records)))

	now := time.Now().UTC()
	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, rec := range records {
		p.Go(func() {
			if err := save(ctx, rec, now); err != nil {
				metrics.AddFailed(family)
				s.addError(SyncError{
					Type:      "pull_" + string(family),
					OdooID:    rec.ID(),
					Error:     err.Error(),
					Timestamp: time.Now().UTC(),
				})
				logger.Error("Failed to store record",
					zap.String("family", string(family)),
					zap.Int64("odoo_id", rec.ID()),
					zap.Error(err))
				return
			}
			metrics.AddUpserted(family)
		})
	}
	p.Wait()
}
