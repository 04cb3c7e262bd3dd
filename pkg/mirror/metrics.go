package mirror

import "sync"

// Family names one mirrored model.
type Family string

const (
	FamilyProducts Family = "products"
	FamilyUsers    Family = "users"
	FamilyOrders   Family = "orders"
)

// FamilyCounts tracks one family within a run.
type FamilyCounts struct {
	Fetched  int
	Upserted int
	Failed   int
}

// SyncMetrics tracks per-family counts of a run. Safe for concurrent use.
type SyncMetrics struct {
	mu     sync.Mutex
	counts map[Family]*FamilyCounts
}

func newSyncMetrics() *SyncMetrics {
	return &SyncMetrics{
		counts: map[Family]*FamilyCounts{
			FamilyProducts: {},
			FamilyUsers:    {},
			FamilyOrders:   {},
		},
	}
}

// AddFetched records n records pulled from the server
func (m *SyncMetrics) AddFetched(f Family, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[f].Fetched += n
}

// AddUpserted increments the stored count
func (m *SyncMetrics) AddUpserted(f Family) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[f].Upserted++
}

// AddFailed increments the failed count
func (m *SyncMetrics) AddFailed(f Family) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[f].Failed++
}

// Counts returns a copy of the counts of f.
func (m *SyncMetrics) Counts(f Family) FamilyCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.counts[f]
}

// TotalUpserted returns the number of records stored across families
func (m *SyncMetrics) TotalUpserted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.counts {
		total += c.Upserted
	}
	return total
}

// TotalFailed returns the number of records that could not be stored
func (m *SyncMetrics) TotalFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.counts {
		total += c.Failed
	}
	return total
}

func (m *SyncMetrics) fill(run *Run) {
	p, u, o := m.Counts(FamilyProducts), m.Counts(FamilyUsers), m.Counts(FamilyOrders)
	run.ProductsFetched, run.ProductsUpserted, run.ProductsFailed = p.Fetched, p.Upserted, p.Failed
	run.UsersFetched, run.UsersUpserted, run.UsersFailed = u.Fetched, u.Upserted, u.Failed
	run.OrdersFetched, run.OrdersUpserted, run.OrdersFailed = o.Fetched, o.Upserted, o.Failed
}
