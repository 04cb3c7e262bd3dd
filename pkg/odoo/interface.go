package odoo

import "context"

// OdooClient defines the interface for Odoo API operations
type OdooClient interface {
	// Authenticate exchanges credentials for a session uid
	Authenticate(ctx context.Context) (int64, error)

	// Execute runs an arbitrary model method through execute_kw
	Execute(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

	Search(ctx context.Context, model string, domain Domain, opts SearchOptions) ([]int64, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts SearchOptions) ([]Record, error)
	Create(ctx context.Context, model string, values Values) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values Values) (bool, error)
	Unlink(ctx context.Context, model string, ids []int64) (bool, error)

	SearchProductionOrders(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error)
	GetProductionOrder(ctx context.Context, id int64, fields []string) (Record, error)
	CreateProductionOrder(ctx context.Context, in ProductionOrderInput, extra Values) (int64, error)
	UpdateProductionOrder(ctx context.Context, id int64, values Values) (bool, error)

	SearchProducts(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error)
	GetProduct(ctx context.Context, id int64, fields []string) (Record, error)
	CreateProduct(ctx context.Context, in ProductInput, extra Values) (int64, error)

	SearchUsers(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error)
	GetUser(ctx context.Context, id int64, fields []string) (Record, error)
	CreateUser(ctx context.Context, in UserInput, extra Values) (int64, error)

	// Version returns server version information; no authentication needed
	Version(ctx context.Context) (*VersionInfo, error)

	// TestConnection reports whether version and authenticate both succeed
	TestConnection(ctx context.Context) bool
}

var _ OdooClient = (*Client)(nil)
