// Package odoo provides a client for the Odoo ERP external API.
//
// Odoo exposes its object model (models such as mrp.production,
// product.product or res.users, each with methods like search_read or
// create) through two interchangeable encodings:
//
//   - JSON-RPC 2.0, posted to <url>/jsonrpc
//   - XML-RPC, served on <url>/xmlrpc/2/common and <url>/xmlrpc/2/object
//
// The Client picks one at construction time (Config.Protocol) behind the
// RemoteCaller interface, authenticates lazily with an API key, and layers a
// generic CRUD surface plus helpers for manufacturing orders, products and
// users on top of a single Execute primitive.
//
// Every call is a direct one-shot round trip: there is no caching beyond the
// session uid and no retry logic.
package odoo

import (
	"sync"
	"time"

	httpclient "github.com/natserract/odoo/pkg/http"
	"go.uber.org/zap"
)

// Client is the main client for interacting with the Odoo external API
type Client struct {
	config  *Config
	caller  RemoteCaller
	session *session
	logger  *zap.Logger
}

// session holds the uid returned by authenticate
type session struct {
	mu  sync.RWMutex
	uid int64
}

type clientOptions struct {
	httpClient *httpclient.Client
	timeout    time.Duration
	caller     RemoteCaller
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHTTPClient sets the HTTP client used by both encodings. It must not
// retry; the default is built with a single try and a 30s timeout.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithTimeout bounds each JSON-RPC request. It is ignored when
// WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithCaller replaces the transport selected by Config.Protocol.
func WithCaller(caller RemoteCaller) Option {
	return func(o *clientOptions) {
		o.caller = caller
	}
}

// New creates a new Odoo client with default production logger
func New(cfg Config, opts ...Option) (*Client, error) {
	logger, _ := zap.NewProduction()
	return NewWithLogger(cfg, logger, opts...)
}

// NewWithLogger creates a new Odoo client with a custom logger
func NewWithLogger(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Insecure() {
		logger.Warn("Using HTTP instead of HTTPS is insecure for production", zap.String("url", cfg.URL))
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		httpOpts := []httpclient.Option{httpclient.WithMaxTries(1)}
		if o.timeout > 0 {
			httpOpts = append(httpOpts, httpclient.WithTimeout(o.timeout))
		}
		o.httpClient = httpclient.NewClientWithLogger(logger, httpOpts...)
	}

	caller := o.caller
	if caller == nil {
		var err error
		switch cfg.Protocol {
		case ProtocolXMLRPC:
			caller, err = newXMLRPCCaller(cfg.URL, o.httpClient.RoundTripper(), logger)
		default:
			caller, err = newJSONRPCCaller(cfg.URL, o.httpClient, logger)
		}
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Odoo client initialized",
		zap.String("protocol", string(cfg.Protocol)),
		zap.String("url", cfg.URL),
		zap.String("db", cfg.Database),
		zap.String("user", cfg.Username))

	return &Client{
		config:  &cfg,
		caller:  caller,
		session: &session{},
		logger:  logger,
	}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return *c.config
}

// UID returns the cached session uid, or 0 before authentication.
func (c *Client) UID() int64 {
	c.session.mu.RLock()
	defer c.session.mu.RUnlock()
	return c.session.uid
}
