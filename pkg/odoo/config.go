package odoo

import (
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvURL      = "ODOO_URL"
	EnvDatabase = "ODOO_DB"
	EnvUsername = "ODOO_USERNAME"
	EnvAPIKey   = "ODOO_API_KEY"
	EnvProtocol = "ODOO_PROTOCOL"
)

// Protocol selects the wire encoding used to reach the server.
type Protocol string

const (
	ProtocolJSONRPC Protocol = "jsonrpc"
	ProtocolXMLRPC  Protocol = "xmlrpc"
)

type Config struct {
	URL      string
	Database string
	Username string
	// APIKey is sent where the server expects the user password.
	APIKey   string
	Protocol Protocol
}

// LoadConfig reads the connection settings from the environment, loading a
// .env file first when one exists.
func LoadConfig() (*Config, error) {
	return FromEnv(Config{})
}

// FromEnv fills every empty field of overrides from the environment and
// validates the result.
func FromEnv(overrides Config) (*Config, error) {
	_ = godotenv.Load()

	cfg := overrides
	if cfg.URL == "" {
		cfg.URL = os.Getenv(EnvURL)
	}
	if cfg.Database == "" {
		cfg.Database = os.Getenv(EnvDatabase)
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv(EnvUsername)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.Protocol == "" {
		cfg.Protocol = Protocol(os.Getenv(EnvProtocol))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required fields, the URL scheme and the protocol.
// An empty protocol defaults to JSON-RPC.
func (c *Config) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, EnvURL)
	}
	if c.Database == "" {
		missing = append(missing, EnvDatabase)
	}
	if c.Username == "" {
		missing = append(missing, EnvUsername)
	}
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if len(missing) > 0 {
		return &ConfigurationError{
			Field: strings.Join(missing, ", "),
			Message: "missing required configuration\n" +
				"Set the environment variables or pass the values explicitly.",
		}
	}

	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return &ConfigurationError{
			Field:   EnvURL,
			Message: "invalid URL format " + c.URL + "\nURL must start with http:// or https://",
		}
	}
	if _, err := url.Parse(c.URL); err != nil {
		return &ConfigurationError{Field: EnvURL, Message: err.Error()}
	}

	p := Protocol(strings.ToLower(strings.TrimSpace(string(c.Protocol))))
	switch p {
	case "":
		p = ProtocolJSONRPC
	case ProtocolJSONRPC, ProtocolXMLRPC:
	default:
		return &ConfigurationError{
			Field:   EnvProtocol,
			Message: "unsupported protocol " + string(c.Protocol) + ", use 'jsonrpc' or 'xmlrpc'",
		}
	}
	c.Protocol = p

	return nil
}

// Insecure reports whether the URL uses plain HTTP towards a host that is
// not a loopback address.
func (c *Config) Insecure() bool {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}
