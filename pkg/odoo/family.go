package odoo

import (
	"context"

	"go.uber.org/zap"
)

// recordFamily describes a model with curated default fields and ordering.
type recordFamily struct {
	model        string
	label        string
	listFields   []string
	detailFields []string
	order        string
}

func (c *Client) searchFamily(ctx context.Context, f recordFamily, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	if fields == nil {
		fields = f.listFields
	}
	if opts.Order == "" {
		opts.Order = f.order
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}

	c.logger.Info("Searching "+f.label, zap.String("model", f.model), zap.Any("domain", domain))
	records, err := c.SearchRead(ctx, f.model, domain, fields, opts)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Found "+f.label, zap.String("model", f.model), zap.Int("count", len(records)))
	return records, nil
}

func (c *Client) getFamily(ctx context.Context, f recordFamily, id int64, fields []string) (Record, error) {
	if fields == nil {
		fields = f.detailFields
	}

	c.logger.Info("Getting "+f.label, zap.String("model", f.model), zap.Int64("id", id))
	records, err := c.Read(ctx, f.model, []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &RecordNotFoundError{Model: f.model, ID: id}
	}
	return records[0], nil
}

func (c *Client) createFamily(ctx context.Context, f recordFamily, values Values) (int64, error) {
	c.logger.Info("Creating "+f.label, zap.String("model", f.model))
	id, err := c.Create(ctx, f.model, values)
	if err != nil {
		return 0, err
	}
	c.logger.Info("Created "+f.label, zap.String("model", f.model), zap.Int64("id", id))
	return id, nil
}
