package odoo

import (
	"context"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// VersionInfo is the answer of common.version.
type VersionInfo struct {
	ServerVersion     string
	ServerVersionInfo []interface{}
	ServerSerie       string
	ProtocolVersion   int64
	// Raw keeps the full response, including keys not mapped above.
	Raw map[string]interface{}
}

// Version queries the server version. It needs no authentication.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	result, err := c.caller.Call(ctx, ServiceCommon, "version")
	if err != nil {
		return nil, newExecutionError("version", "failed to get version", err)
	}

	raw, err := cast.ToStringMapE(result)
	if err != nil {
		return nil, newExecutionError("version", "failed to get version", err)
	}

	info := &VersionInfo{
		ServerVersion:   cast.ToString(raw["server_version"]),
		ServerSerie:     cast.ToString(raw["server_serie"]),
		ProtocolVersion: cast.ToInt64(raw["protocol_version"]),
		Raw:             raw,
	}
	if vi, ok := raw["server_version_info"].([]interface{}); ok {
		info.ServerVersionInfo = vi
	}

	c.logger.Info("Odoo version", zap.String("server_version", info.ServerVersion))
	return info, nil
}

// TestConnection checks that the server answers and accepts the configured
// credentials. Failures are logged and reported as false, never returned.
func (c *Client) TestConnection(ctx context.Context) bool {
	c.logger.Info("Testing Odoo connection")

	version, err := c.Version(ctx)
	if err != nil {
		c.logger.Error("Connection test failed", zap.Error(err))
		return false
	}
	c.logger.Info("Connected to Odoo", zap.String("server_version", version.ServerVersion))

	if _, err := c.Authenticate(ctx); err != nil {
		c.logger.Error("Connection test failed", zap.Error(err))
		return false
	}

	c.logger.Info("Connection test successful")
	return true
}
