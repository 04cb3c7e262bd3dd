package odoo

import "context"

// ModelUser is the user account model.
const ModelUser = "res.users"

var userFields = []string{
	"id", "name", "login", "email", "active",
	"company_id", "groups_id", "lang",
}

var users = recordFamily{
	model:        ModelUser,
	label:        "users",
	listFields:   userFields,
	detailFields: userFields,
	order:        "name",
}

type UserInput struct {
	Name  string
	Login string
	// Email is omitted from the request when empty.
	Email string
}

func (in UserInput) values() Values {
	values := Values{
		"name":  in.Name,
		"login": in.Login,
	}
	if in.Email != "" {
		values["email"] = in.Email
	}
	return values
}

func (c *Client) SearchUsers(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	return c.searchFamily(ctx, users, domain, fields, opts)
}

// GetUser reads one user or returns a *RecordNotFoundError.
func (c *Client) GetUser(ctx context.Context, id int64, fields []string) (Record, error) {
	return c.getFamily(ctx, users, id, fields)
}

func (c *Client) CreateUser(ctx context.Context, in UserInput, extra Values) (int64, error) {
	return c.createFamily(ctx, users, mergeValues(in.values(), extra))
}
