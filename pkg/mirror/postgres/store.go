package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/natserract/odoo/pkg/mirror"
)

var _ mirror.Store = (*DB)(nil)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("sync run not found")

const upsertProductSQL = `
INSERT INTO odoo_products (
    odoo_id, name, sku, barcode, type, list_price, standard_price,
    category_id, category_name, qty_available, description, synced_at
) VALUES (
    @odoo_id, @name, @sku, @barcode, @type, @list_price, @standard_price,
    @category_id, @category_name, @qty_available, @description, @synced_at
)
ON CONFLICT (odoo_id) DO UPDATE SET
    name = EXCLUDED.name,
    sku = EXCLUDED.sku,
    barcode = EXCLUDED.barcode,
    type = EXCLUDED.type,
    list_price = EXCLUDED.list_price,
    standard_price = EXCLUDED.standard_price,
    category_id = EXCLUDED.category_id,
    category_name = EXCLUDED.category_name,
    qty_available = EXCLUDED.qty_available,
    description = EXCLUDED.description,
    synced_at = EXCLUDED.synced_at`

const upsertUserSQL = `
INSERT INTO odoo_users (odoo_id, name, login, email, phone, synced_at)
VALUES (@odoo_id, @name, @login, @email, @phone, @synced_at)
ON CONFLICT (odoo_id) DO UPDATE SET
    name = EXCLUDED.name,
    login = EXCLUDED.login,
    email = EXCLUDED.email,
    phone = EXCLUDED.phone,
    synced_at = EXCLUDED.synced_at`

// Orders only move forward: a row is replaced when the incoming write_date
// is not older than the stored one.
const upsertOrderSQL = `
INSERT INTO odoo_production_orders (
    odoo_id, name, product_id, product_name, product_qty, qty_produced,
    state, status, priority, user_id, user_name, origin,
    date_planned_start, date_deadline, write_date, synced_at
) VALUES (
    @odoo_id, @name, @product_id, @product_name, @product_qty, @qty_produced,
    @state, @status, @priority, @user_id, @user_name, @origin,
    @date_planned_start, @date_deadline, @write_date, @synced_at
)
ON CONFLICT (odoo_id) DO UPDATE SET
    name = EXCLUDED.name,
    product_id = EXCLUDED.product_id,
    product_name = EXCLUDED.product_name,
    product_qty = EXCLUDED.product_qty,
    qty_produced = EXCLUDED.qty_produced,
    state = EXCLUDED.state,
    status = EXCLUDED.status,
    priority = EXCLUDED.priority,
    user_id = EXCLUDED.user_id,
    user_name = EXCLUDED.user_name,
    origin = EXCLUDED.origin,
    date_planned_start = EXCLUDED.date_planned_start,
    date_deadline = EXCLUDED.date_deadline,
    write_date = EXCLUDED.write_date,
    synced_at = EXCLUDED.synced_at
WHERE odoo_production_orders.write_date IS NULL
   OR EXCLUDED.write_date IS NULL
   OR EXCLUDED.write_date >= odoo_production_orders.write_date`

const insertRunSQL = `
INSERT INTO odoo_sync_runs (
    id, status, started_at, finished_at,
    products_fetched, products_upserted, products_failed,
    users_fetched, users_upserted, users_failed,
    orders_fetched, orders_upserted, orders_failed, error
) VALUES (
    @id, @status, @started_at, @finished_at,
    @products_fetched, @products_upserted, @products_failed,
    @users_fetched, @users_upserted, @users_failed,
    @orders_fetched, @orders_upserted, @orders_failed, @error
)`

// UpsertProduct inserts or replaces a product keyed by its Odoo id
func (db *DB) UpsertProduct(ctx context.Context, p mirror.Product) error {
	_, err := db.pool.Exec(ctx, upsertProductSQL, pgx.NamedArgs{
		"odoo_id":        p.OdooID,
		"name":           p.Name,
		"sku":            p.SKU,
		"barcode":        p.Barcode,
		"type":           p.Type,
		"list_price":     p.ListPrice,
		"standard_price": p.StandardPrice,
		"category_id":    p.CategoryID,
		"category_name":  p.CategoryName,
		"qty_available":  p.QtyAvailable,
		"description":    p.Description,
		"synced_at":      p.SyncedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", p.OdooID, err)
	}
	return nil
}

// UpsertUser inserts or replaces a user keyed by its Odoo id
func (db *DB) UpsertUser(ctx context.Context, u mirror.User) error {
	_, err := db.pool.Exec(ctx, upsertUserSQL, pgx.NamedArgs{
		"odoo_id":   u.OdooID,
		"name":      u.Name,
		"login":     u.Login,
		"email":     u.Email,
		"phone":     u.Phone,
		"synced_at": u.SyncedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", u.OdooID, err)
	}
	return nil
}

// UpsertProductionOrder inserts or replaces a manufacturing order keyed by its Odoo id
func (db *DB) UpsertProductionOrder(ctx context.Context, o mirror.ProductionOrder) error {
	_, err := db.pool.Exec(ctx, upsertOrderSQL, pgx.NamedArgs{
		"odoo_id":            o.OdooID,
		"name":               o.Name,
		"product_id":         o.ProductID,
		"product_name":       o.ProductName,
		"product_qty":        o.ProductQty,
		"qty_produced":       o.QtyProduced,
		"state":              o.State,
		"status":             o.Status,
		"priority":           o.Priority,
		"user_id":            o.UserID,
		"user_name":          o.UserName,
		"origin":             o.Origin,
		"date_planned_start": o.DatePlannedStart,
		"date_deadline":      o.DateDeadline,
		"write_date":         o.WriteDate,
		"synced_at":          o.SyncedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert production order %d: %w", o.OdooID, err)
	}
	return nil
}

// RecordRun stores the outcome of one sync run
func (db *DB) RecordRun(ctx context.Context, run mirror.Run) error {
	_, err := db.pool.Exec(ctx, insertRunSQL, pgx.NamedArgs{
		"id":                run.ID,
		"status":            run.Status,
		"started_at":        run.StartedAt,
		"finished_at":       run.FinishedAt,
		"products_fetched":  run.ProductsFetched,
		"products_upserted": run.ProductsUpserted,
		"products_failed":   run.ProductsFailed,
		"users_fetched":     run.UsersFetched,
		"users_upserted":    run.UsersUpserted,
		"users_failed":      run.UsersFailed,
		"orders_fetched":    run.OrdersFetched,
		"orders_upserted":   run.OrdersUpserted,
		"orders_failed":     run.OrdersFailed,
		"error":             run.Error,
	})
	if err != nil {
		return fmt.Errorf("failed to record sync run %s: %w", run.ID, err)
	}
	return nil
}

// ListProducts returns mirrored products ordered by name
func (db *DB) ListProducts(ctx context.Context, limit int) ([]mirror.Product, error) {
	var products []mirror.Product
	err := pgxscan.Select(ctx, db.pool, &products,
		`SELECT * FROM odoo_products ORDER BY name, odoo_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListUsers returns mirrored users ordered by name
func (db *DB) ListUsers(ctx context.Context, limit int) ([]mirror.User, error) {
	var users []mirror.User
	err := pgxscan.Select(ctx, db.pool, &users,
		`SELECT * FROM odoo_users ORDER BY name, odoo_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListProductionOrders returns mirrored orders, most recently written first.
// An empty status lists every order.
func (db *DB) ListProductionOrders(ctx context.Context, status string, limit int) ([]mirror.ProductionOrder, error) {
	var orders []mirror.ProductionOrder
	err := pgxscan.Select(ctx, db.pool, &orders,
		`SELECT * FROM odoo_production_orders
		 WHERE $1 = '' OR status = $1
		 ORDER BY write_date DESC NULLS LAST, odoo_id DESC
		 LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list production orders: %w", err)
	}
	return orders, nil
}

// ListRuns returns the most recent sync runs first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]mirror.Run, error) {
	var runs []mirror.Run
	err := pgxscan.Select(ctx, db.pool, &runs,
		`SELECT * FROM odoo_sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one sync run by id
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*mirror.Run, error) {
	var run mirror.Run
	if err := pgxscan.Get(ctx, db.pool, &run, `SELECT * FROM odoo_sync_runs WHERE id = $1`, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get sync run %s: %w", id, err)
	}
	return &run, nil
}
