package mirror

import (
	"strconv"
	"time"

	"github.com/natserract/odoo/pkg/odoo"
)

// Fields requested from the server for each mirrored family.
var (
	productFields = []string{
		"id", "name", "default_code", "barcode", "list_price", "standard_price",
		"type", "categ_id", "qty_available", "description",
	}
	userFields = []string{"id", "name", "login", "email", "phone"}
	orderFields = []string{
		"id", "name", "product_id", "product_qty", "qty_produced", "state",
		"date_planned_start", "date_deadline", "priority", "user_id", "origin",
		"write_date",
	}
)

// Odoo serializes datetimes as naive UTC strings.
var odooTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func parseOdooTime(rec odoo.Record, field string) *time.Time {
	s := rec.String(field)
	if s == "" {
		return nil
	}
	for _, layout := range odooTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

func productFromRecord(rec odoo.Record, now time.Time) Product {
	sku := rec.String("default_code")
	if sku == "" {
		sku = rec.String("barcode")
	}
	if sku == "" {
		sku = "ODOO-" + strconv.FormatInt(rec.ID(), 10)
	}
	categID, categName, _ := rec.Many2One("categ_id")

	return Product{
		OdooID:        rec.ID(),
		Name:          rec.String("name"),
		SKU:           sku,
		Barcode:       rec.String("barcode"),
		Type:          rec.String("type"),
		ListPrice:     rec.Float("list_price"),
		StandardPrice: rec.Float("standard_price"),
		CategoryID:    categID,
		CategoryName:  categName,
		QtyAvailable:  rec.Float("qty_available"),
		Description:   rec.String("description"),
		SyncedAt:      now,
	}
}

func userFromRecord(rec odoo.Record, now time.Time) User {
	email := rec.String("email")
	if email == "" {
		email = rec.String("login")
	}
	return User{
		OdooID:   rec.ID(),
		Name:     rec.String("name"),
		Login:    rec.String("login"),
		Email:    email,
		Phone:    rec.String("phone"),
		SyncedAt: now,
	}
}

func orderFromRecord(rec odoo.Record, now time.Time) ProductionOrder {
	productID, productName, _ := rec.Many2One("product_id")
	userID, userName, _ := rec.Many2One("user_id")
	state := rec.String("state")

	return ProductionOrder{
		OdooID:           rec.ID(),
		Name:             rec.String("name"),
		ProductID:        productID,
		ProductName:      productName,
		ProductQty:       rec.Float("product_qty"),
		QtyProduced:      rec.Float("qty_produced"),
		State:            state,
		Status:           odoo.StateToStatus(state),
		Priority:         odoo.PriorityLabel(rec.String("priority")),
		UserID:           userID,
		UserName:         userName,
		Origin:           rec.String("origin"),
		DatePlannedStart: parseOdooTime(rec, "date_planned_start"),
		DateDeadline:     parseOdooTime(rec, "date_deadline"),
		WriteDate:        parseOdooTime(rec, "write_date"),
		SyncedAt:         now,
	}
}
