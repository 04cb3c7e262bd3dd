package main

import (
	"fmt"
	"strconv"

	"github.com/natserract/odoo/pkg/odoo"
	"github.com/spf13/cobra"
)

// addListFlags registers the paging flags shared by the list commands.
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of records (0 = family default of 100)")
	cmd.Flags().Int("offset", 0, "number of records to skip")
	cmd.Flags().String("order", "", "sort specification, e.g. \"name desc\"")
	cmd.Flags().StringSlice("fields", nil, "fields to return (default: family field list)")
}

func listOptions(cmd *cobra.Command) (odoo.SearchOptions, []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	order, _ := cmd.Flags().GetString("order")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	return odoo.SearchOptions{Limit: limit, Offset: offset, Order: order}, fields
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return id, nil
}

// orderDomain filters by dashboard status or raw state; status wins.
func orderDomain(status, state string) odoo.Domain {
	if status != "" {
		state = odoo.StatusToState(status)
	}
	if state == "" {
		return nil
	}
	return odoo.Domain{odoo.Term("state", "=", state)}
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"mo"},
		Short:   "List and manage manufacturing orders (mrp.production)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			state, _ := cmd.Flags().GetString("state")
			opts, fields := listOptions(cmd)
			orders, err := client.SearchProductionOrders(cmd.Context(), orderDomain(status, state), fields, opts)
			if err != nil {
				return err
			}
			return a.printJSON(orders)
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("status", "", "dashboard status: pending, on_hold, in_progress, completed, cancelled")
	cmd.Flags().String("state", "", "raw Odoo state, e.g. confirmed")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one manufacturing order with its detail fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			fields, _ := cmd.Flags().GetStringSlice("fields")
			order, err := client.GetProductionOrder(cmd.Context(), id, fields)
			if err != nil {
				return err
			}
			return a.printJSON(order)
		},
	}
	get.Flags().StringSlice("fields", nil, "fields to return")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a manufacturing order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, _ := cmd.Flags().GetInt64("product-id")
			qty, _ := cmd.Flags().GetFloat64("qty")
			start, _ := cmd.Flags().GetString("start")
			deadline, _ := cmd.Flags().GetString("deadline")
			origin, _ := cmd.Flags().GetString("origin")
			priority, _ := cmd.Flags().GetString("priority")
			if productID <= 0 {
				return fmt.Errorf("--product-id is required")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			var extra odoo.Values
			if priority != "" {
				extra = odoo.Values{"priority": odoo.PriorityValue(priority)}
			}
			id, err := client.CreateProductionOrder(cmd.Context(), odoo.ProductionOrderInput{
				ProductID:        productID,
				ProductQty:       qty,
				DatePlannedStart: start,
				DateDeadline:     deadline,
				Origin:           origin,
			}, extra)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]int64{"id": id})
		},
	}
	create.Flags().Int64("product-id", 0, "product.product id to manufacture")
	create.Flags().Float64("qty", 1, "quantity to produce")
	create.Flags().String("start", "", "planned start, \"YYYY-MM-DD HH:MM:SS\"")
	create.Flags().String("deadline", "", "deadline, \"YYYY-MM-DD HH:MM:SS\"")
	create.Flags().String("origin", "", "source document reference")
	create.Flags().String("priority", "", "high or normal")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update status, priority or deadline of a manufacturing order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			values := odoo.Values{}
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				values["state"] = odoo.StatusToState(status)
			}
			if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
				values["priority"] = odoo.PriorityValue(priority)
			}
			if deadline, _ := cmd.Flags().GetString("deadline"); deadline != "" {
				values["date_deadline"] = deadline
			}
			if len(values) == 0 {
				return fmt.Errorf("nothing to update: pass --status, --priority or --deadline")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			ok, err := client.UpdateProductionOrder(cmd.Context(), id, values)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]bool{"updated": ok})
		},
	}
	update.Flags().String("status", "", "dashboard status to move the order to")
	update.Flags().String("priority", "", "high or normal")
	update.Flags().String("deadline", "", "new deadline, \"YYYY-MM-DD HH:MM:SS\"")

	cmd.AddCommand(get, create, update)
	return cmd
}

func (a *app) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List and create products (product.product)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			var domain odoo.Domain
			if productType, _ := cmd.Flags().GetString("type"); productType != "" {
				domain = append(domain, odoo.Term("type", "=", productType))
			}
			if name, _ := cmd.Flags().GetString("name"); name != "" {
				domain = append(domain, odoo.Term("name", "ilike", name))
			}
			opts, fields := listOptions(cmd)
			products, err := client.SearchProducts(cmd.Context(), domain, fields, opts)
			if err != nil {
				return err
			}
			return a.printJSON(products)
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("type", "", "product type: product, consu or service")
	cmd.Flags().String("name", "", "case-insensitive name filter")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			productType, _ := cmd.Flags().GetString("type")
			price, _ := cmd.Flags().GetFloat64("price")
			cost, _ := cmd.Flags().GetFloat64("cost")
			code, _ := cmd.Flags().GetString("code")

			client, err := a.client()
			if err != nil {
				return err
			}
			var extra odoo.Values
			if code != "" {
				extra = odoo.Values{"default_code": code}
			}
			id, err := client.CreateProduct(cmd.Context(), odoo.ProductInput{
				Name:          name,
				Type:          productType,
				ListPrice:     price,
				StandardPrice: cost,
			}, extra)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]int64{"id": id})
		},
	}
	create.Flags().String("name", "", "product name")
	create.Flags().String("type", odoo.ProductTypeStorable, "product, consu or service")
	create.Flags().Float64("price", 0, "sales price")
	create.Flags().Float64("cost", 0, "cost")
	create.Flags().String("code", "", "internal reference")

	cmd.AddCommand(create)
	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and create users (res.users)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			var domain odoo.Domain
			if login, _ := cmd.Flags().GetString("login"); login != "" {
				domain = odoo.Domain{odoo.Term("login", "=", login)}
			}
			opts, fields := listOptions(cmd)
			users, err := client.SearchUsers(cmd.Context(), domain, fields, opts)
			if err != nil {
				return err
			}
			return a.printJSON(users)
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("login", "", "exact login to look up")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			login, _ := cmd.Flags().GetString("login")
			email, _ := cmd.Flags().GetString("email")
			if name == "" || login == "" {
				return fmt.Errorf("--name and --login are required")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			id, err := client.CreateUser(cmd.Context(), odoo.UserInput{Name: name, Login: login, Email: email}, nil)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]int64{"id": id})
		},
	}
	create.Flags().String("name", "", "display name")
	create.Flags().String("login", "", "login")
	create.Flags().String("email", "", "email address")

	cmd.AddCommand(create)
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get MODEL ID",
		Short: "Read one record of any model",
		Example: `  odoo get res.partner 3 --fields name,email
  odoo get mrp.production 12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			fields, _ := cmd.Flags().GetStringSlice("fields")
			records, err := client.Read(cmd.Context(), args[0], []int64{id}, fields)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return &odoo.RecordNotFoundError{Model: args[0], ID: id}
			}
			return a.printJSON(records[0])
		},
	}
	cmd.Flags().StringSlice("fields", nil, "fields to return (default: all)")
	return cmd
}
