package mirror

import (
	"context"
	"errors"
	"sync"

	"github.com/natserract/odoo/pkg/odoo"
)

type searchCall struct {
	Domain odoo.Domain
	Fields []string
	Opts   odoo.SearchOptions
}

type fakeSource struct {
	mu sync.Mutex

	offline  bool
	products []odoo.Record
	users    []odoo.Record
	orders   []odoo.Record
	failOn   map[Family]error

	calls map[Family]searchCall
	// block, when set, holds every search until closed.
	block chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{failOn: map[Family]error{}, calls: map[Family]searchCall{}}
}

func (f *fakeSource) TestConnection(ctx context.Context) bool {
	return !f.offline
}

func (f *fakeSource) search(family Family, records []odoo.Record, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[family] = searchCall{Domain: domain, Fields: fields, Opts: opts}
	if err := f.failOn[family]; err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeSource) SearchProducts(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error) {
	return f.search(FamilyProducts, f.products, domain, fields, opts)
}

func (f *fakeSource) SearchUsers(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error) {
	return f.search(FamilyUsers, f.users, domain, fields, opts)
}

func (f *fakeSource) SearchProductionOrders(ctx context.Context, domain odoo.Domain, fields []string, opts odoo.SearchOptions) ([]odoo.Record, error) {
	return f.search(FamilyOrders, f.orders, domain, fields, opts)
}

func (f *fakeSource) call(family Family) searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[family]
}

var errRejected = errors.New("rejected by store")

type memoryStore struct {
	mu       sync.Mutex
	products map[int64]Product
	users    map[int64]User
	orders   map[int64]ProductionOrder
	runs     []Run
	// rejects holds Odoo ids whose upsert fails.
	rejects map[int64]bool
	failRun bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products: map[int64]Product{},
		users:    map[int64]User{},
		orders:   map[int64]ProductionOrder{},
		rejects:  map[int64]bool{},
	}
}

func (m *memoryStore) UpsertProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejects[p.OdooID] {
		return errRejected
	}
	m.products[p.OdooID] = p
	return nil
}

func (m *memoryStore) UpsertUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejects[u.OdooID] {
		return errRejected
	}
	m.users[u.OdooID] = u
	return nil
}

func (m *memoryStore) UpsertProductionOrder(ctx context.Context, o ProductionOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejects[o.OdooID] {
		return errRejected
	}
	m.orders[o.OdooID] = o
	return nil
}

func (m *memoryStore) RecordRun(ctx context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRun {
		return errors.New("runs table unavailable")
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryStore) recordedRuns() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Run(nil), m.runs...)
}

func sampleSource() *fakeSource {
	src := newFakeSource()
	src.products = []odoo.Record{
		{"id": int64(1), "name": "Desk", "default_code": "DESK-1", "barcode": false, "list_price": 120.5,
			"standard_price": 80.0, "type": "product", "categ_id": []interface{}{int64(4), "Furniture"},
			"qty_available": 12.0, "description": false},
		{"id": int64(2), "name": "Chair", "default_code": false, "barcode": "4006381333931", "list_price": 45.0,
			"type": "consu", "categ_id": false},
		{"id": int64(3), "name": "Screw", "default_code": false, "barcode": false, "type": "consu", "categ_id": false},
	}
	src.users = []odoo.Record{
		{"id": int64(2), "name": "Mitchell Admin", "login": "admin", "email": "admin@example.com", "phone": false},
		{"id": int64(6), "name": "Marc Demo", "login": "demo", "email": false, "phone": "+1 555"},
	}
	src.orders = []odoo.Record{
		{"id": int64(11), "name": "WH/MO/00011", "product_id": []interface{}{int64(1), "[DESK-1] Desk"},
			"product_qty": 2.0, "qty_produced": 1.0, "state": "progress", "priority": "1",
			"user_id": []interface{}{int64(2), "Mitchell Admin"}, "origin": "SO042",
			"date_planned_start": "2025-03-01 08:00:00", "date_deadline": "2025-03-05 17:00:00",
			"write_date": "2025-03-02 09:30:00"},
		{"id": int64(12), "name": "WH/MO/00012", "product_id": []interface{}{int64(2), "Chair"},
			"product_qty": 10.0, "state": "draft", "priority": "0", "user_id": false, "origin": false,
			"date_planned_start": false, "date_deadline": false, "write_date": "2025-03-01 12:00:00"},
	}
	return src
}
