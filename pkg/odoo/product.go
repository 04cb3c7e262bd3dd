package odoo

import "context"

// ModelProduct is the product variant model.
const ModelProduct = "product.product"

var productFields = []string{
	"id", "name", "default_code", "barcode", "list_price",
	"standard_price", "type", "categ_id", "uom_id",
	"qty_available", "virtual_available", "description", "active",
}

var products = recordFamily{
	model:        ModelProduct,
	label:        "products",
	listFields:   productFields,
	detailFields: productFields,
	order:        "name",
}

// Product types accepted by the server.
const (
	ProductTypeStorable   = "product"
	ProductTypeConsumable = "consu"
	ProductTypeService    = "service"
)

// ProductInput holds the core fields of a new product. An empty Type means
// ProductTypeStorable; prices are always sent, zero included.
type ProductInput struct {
	Name          string
	Type          string
	ListPrice     float64
	StandardPrice float64
}

func (in ProductInput) values() Values {
	productType := in.Type
	if productType == "" {
		productType = ProductTypeStorable
	}
	return Values{
		"name":           in.Name,
		"type":           productType,
		"list_price":     in.ListPrice,
		"standard_price": in.StandardPrice,
	}
}

// SearchProducts lists products ordered by name by default.
func (c *Client) SearchProducts(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	return c.searchFamily(ctx, products, domain, fields, opts)
}

// GetProduct reads one product or returns a *RecordNotFoundError.
func (c *Client) GetProduct(ctx context.Context, id int64, fields []string) (Record, error) {
	return c.getFamily(ctx, products, id, fields)
}

// CreateProduct creates a product; extra overrides the core fields.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput, extra Values) (int64, error) {
	return c.createFamily(ctx, products, mergeValues(in.values(), extra))
}
