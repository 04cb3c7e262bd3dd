package mirror

import (
	"time"

	"github.com/google/uuid"
)

// Product is a product.product row as stored in odoo_products.
type Product struct {
	OdooID        int64     `db:"odoo_id"`
	Name          string    `db:"name"`
	SKU           string    `db:"sku"`
	Barcode       string    `db:"barcode"`
	Type          string    `db:"type"`
	ListPrice     float64   `db:"list_price"`
	StandardPrice float64   `db:"standard_price"`
	CategoryID    int64     `db:"category_id"`
	CategoryName  string    `db:"category_name"`
	QtyAvailable  float64   `db:"qty_available"`
	Description   string    `db:"description"`
	SyncedAt      time.Time `db:"synced_at"`
}

// User is a res.users row as stored in odoo_users.
type User struct {
	OdooID   int64     `db:"odoo_id"`
	Name     string    `db:"name"`
	Login    string    `db:"login"`
	Email    string    `db:"email"`
	Phone    string    `db:"phone"`
	SyncedAt time.Time `db:"synced_at"`
}

// ProductionOrder is an mrp.production row as stored in odoo_production_orders.
type ProductionOrder struct {
	OdooID           int64      `db:"odoo_id"`
	Name             string     `db:"name"`
	ProductID        int64      `db:"product_id"`
	ProductName      string     `db:"product_name"`
	ProductQty       float64    `db:"product_qty"`
	QtyProduced      float64    `db:"qty_produced"`
	State            string     `db:"state"`
	Status           string     `db:"status"`
	Priority         string     `db:"priority"`
	UserID           int64      `db:"user_id"`
	UserName         string     `db:"user_name"`
	Origin           string     `db:"origin"`
	DatePlannedStart *time.Time `db:"date_planned_start"`
	DateDeadline     *time.Time `db:"date_deadline"`
	WriteDate        *time.Time `db:"write_date"`
	SyncedAt         time.Time  `db:"synced_at"`
}

// Run statuses stored in odoo_sync_runs.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one mirror sync as stored in odoo_sync_runs.
type Run struct {
	ID               uuid.UUID `db:"id"`
	Status           string    `db:"status"`
	StartedAt        time.Time `db:"started_at"`
	FinishedAt       time.Time `db:"finished_at"`
	ProductsFetched  int       `db:"products_fetched"`
	ProductsUpserted int       `db:"products_upserted"`
	ProductsFailed   int       `db:"products_failed"`
	UsersFetched     int       `db:"users_fetched"`
	UsersUpserted    int       `db:"users_upserted"`
	UsersFailed      int       `db:"users_failed"`
	OrdersFetched    int       `db:"orders_fetched"`
	OrdersUpserted   int       `db:"orders_upserted"`
	OrdersFailed     int       `db:"orders_failed"`
	Error            string    `db:"error"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncError is one failure recorded during a run.
type SyncError struct {
	Type      string    `json:"type"`
	OdooID    int64     `json:"odoo_id,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is a snapshot of the sync service state.
type Status struct {
	InProgress  bool        `json:"sync_in_progress"`
	LastSync    time.Time   `json:"last_sync_time"`
	Errors      []SyncError `json:"errors"`
	TotalErrors int         `json:"total_errors"`
}
