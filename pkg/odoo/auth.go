package odoo

import (
	"context"

	"go.uber.org/zap"
)

const authFailedMessage = "Authentication failed: Invalid credentials\n" +
	"Check:\n" +
	"- ODOO_USERNAME is correct\n" +
	"- ODOO_API_KEY is valid and active\n" +
	"- User has API access enabled\n" +
	"- Database name (ODOO_DB) is correct"

// Authenticate exchanges the configured credentials for a session uid and
// caches it on the client. Every call re-authenticates and overwrites the
// cached uid.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.logger.Info("Authenticating with Odoo", zap.String("user", c.config.Username))

	result, err := c.caller.Call(ctx, ServiceCommon, "authenticate",
		c.config.Database, c.config.Username, c.config.APIKey, map[string]interface{}{})
	if err != nil {
		c.logger.Error("Authentication request failed", zap.Error(err))
		return 0, wrapExecution("authenticate", err)
	}

	uid, err := toInt64(result)
	if err != nil {
		return 0, newExecutionError("authenticate", "unexpected authenticate result", err)
	}
	if uid == 0 {
		c.logger.Error("Authentication rejected", zap.String("user", c.config.Username), zap.String("db", c.config.Database))
		return 0, newExecutionError("authenticate", authFailedMessage, nil)
	}

	c.session.mu.Lock()
	c.session.uid = uid
	c.session.mu.Unlock()

	c.logger.Info("Successfully authenticated", zap.Int64("uid", uid))
	return uid, nil
}

// sessionUID returns the cached uid, authenticating first when there is none.
func (c *Client) sessionUID(ctx context.Context) (int64, error) {
	if uid := c.UID(); uid != 0 {
		return uid, nil
	}
	return c.Authenticate(ctx)
}
