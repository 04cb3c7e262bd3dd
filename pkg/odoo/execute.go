package odoo

import (
	"context"

	"go.uber.org/zap"
)

// Execute calls method on model through execute_kw, authenticating first if
// the client holds no session uid. It is the only path by which the CRUD
// and record-family helpers reach the server.
func (c *Client) Execute(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	uid, err := c.sessionUID(ctx)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}

	op := model + "." + method
	c.logger.Debug("Executing", zap.String("model", model), zap.String("method", method))

	result, err := c.caller.Call(ctx, ServiceObject, "execute_kw",
		c.config.Database, uid, c.config.APIKey, model, method, args, kwargs)
	if err != nil {
		c.logger.Error("Execute failed", zap.String("model", model), zap.String("method", method), zap.Error(err))
		return nil, wrapExecution(op, err)
	}

	c.logger.Debug("Executed successfully", zap.String("model", model), zap.String("method", method))
	return result, nil
}

// Search returns the ids of model records matching domain. A nil domain
// matches every record.
func (c *Client) Search(ctx context.Context, model string, domain Domain, opts SearchOptions) ([]int64, error) {
	result, err := c.Execute(ctx, model, "search", []interface{}{domain.orEmpty()}, opts.kwargs())
	if err != nil {
		return nil, err
	}
	ids, err := toIDs(result)
	if err != nil {
		return nil, newExecutionError(model+".search", "malformed response", err)
	}
	return ids, nil
}

// Read loads the given records. Nil fields requests every field.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	kwargs := map[string]interface{}{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}

	result, err := c.Execute(ctx, model, "read", []interface{}{idList(ids)}, kwargs)
	if err != nil {
		return nil, err
	}
	records, err := toRecords(result)
	if err != nil {
		return nil, newExecutionError(model+".read", "malformed response", err)
	}
	return records, nil
}

// SearchRead combines Search and Read in a single round trip.
func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	kwargs := opts.kwargs()
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}

	result, err := c.Execute(ctx, model, "search_read", []interface{}{domain.orEmpty()}, kwargs)
	if err != nil {
		return nil, err
	}
	records, err := toRecords(result)
	if err != nil {
		return nil, newExecutionError(model+".search_read", "malformed response", err)
	}
	return records, nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(ctx context.Context, model string, values Values) (int64, error) {
	if values == nil {
		values = Values{}
	}
	result, err := c.Execute(ctx, model, "create", []interface{}{values}, nil)
	if err != nil {
		return 0, err
	}
	id, err := toInt64(result)
	if err != nil {
		return 0, newExecutionError(model+".create", "malformed response", err)
	}
	return id, nil
}

// Write updates the given records with values.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values Values) (bool, error) {
	if values == nil {
		values = Values{}
	}
	result, err := c.Execute(ctx, model, "write", []interface{}{idList(ids), values}, nil)
	if err != nil {
		return false, err
	}
	ok, err := toBool(result)
	if err != nil {
		return false, newExecutionError(model+".write", "malformed response", err)
	}
	return ok, nil
}

// Unlink deletes the given records.
func (c *Client) Unlink(ctx context.Context, model string, ids []int64) (bool, error) {
	result, err := c.Execute(ctx, model, "unlink", []interface{}{idList(ids)}, nil)
	if err != nil {
		return false, err
	}
	ok, err := toBool(result)
	if err != nil {
		return false, newExecutionError(model+".unlink", "malformed response", err)
	}
	return ok, nil
}

func idList(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
