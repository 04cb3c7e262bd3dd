package odoo

import (
	"context"

	"go.uber.org/zap"
)

// ModelProductionOrder is the manufacturing order model.
const ModelProductionOrder = "mrp.production"

var productionOrderListFields = []string{
	"id", "name", "product_id", "product_qty", "product_uom_id",
	"state", "date_planned_start", "date_deadline", "priority",
	"user_id", "company_id", "origin", "qty_produced", "qty_producing",
}

var productionOrders = recordFamily{
	model:      ModelProductionOrder,
	label:      "manufacturing orders",
	listFields: productionOrderListFields,
	detailFields: append(append([]string{}, productionOrderListFields...),
		"bom_id", "move_raw_ids", "move_finished_ids"),
	order: "date_deadline desc",
}

// ProductionOrderInput holds the core fields of a new manufacturing order.
// Empty dates and origin are left out of the request.
type ProductionOrderInput struct {
	ProductID  int64
	ProductQty float64
	// DatePlannedStart and DateDeadline use the server format
	// "2006-01-02 15:04:05".
	DatePlannedStart string
	DateDeadline     string
	Origin           string
}

func (in ProductionOrderInput) values() Values {
	values := Values{
		"product_id":  in.ProductID,
		"product_qty": in.ProductQty,
	}
	if in.DatePlannedStart != "" {
		values["date_planned_start"] = in.DatePlannedStart
	}
	if in.DateDeadline != "" {
		values["date_deadline"] = in.DateDeadline
	}
	if in.Origin != "" {
		values["origin"] = in.Origin
	}
	return values
}

// SearchProductionOrders lists manufacturing orders, latest deadline first
// unless opts.Order says otherwise.
func (c *Client) SearchProductionOrders(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	return c.searchFamily(ctx, productionOrders, domain, fields, opts)
}

// GetProductionOrder reads one manufacturing order. It returns a
// *RecordNotFoundError when id does not exist.
func (c *Client) GetProductionOrder(ctx context.Context, id int64, fields []string) (Record, error) {
	return c.getFamily(ctx, productionOrders, id, fields)
}

// CreateProductionOrder creates a manufacturing order. Keys in extra are
// applied last and override the core fields.
func (c *Client) CreateProductionOrder(ctx context.Context, in ProductionOrderInput, extra Values) (int64, error) {
	return c.createFamily(ctx, productionOrders, mergeValues(in.values(), extra))
}

// UpdateProductionOrder writes values to one manufacturing order.
func (c *Client) UpdateProductionOrder(ctx context.Context, id int64, values Values) (bool, error) {
	c.logger.Info("Updating manufacturing order", zap.Int64("id", id))
	ok, err := c.Write(ctx, ModelProductionOrder, []int64{id}, values)
	if err != nil {
		return false, err
	}
	c.logger.Info("Manufacturing order updated", zap.Int64("id", id), zap.Bool("result", ok))
	return ok, nil
}
