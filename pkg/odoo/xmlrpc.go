package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"regexp"
	"strconv"

	"github.com/kolo/xmlrpc"
	httpclient "github.com/natserract/odoo/pkg/http"
	"go.uber.org/zap"
)

const (
	xmlRPCCommonPath = "/xmlrpc/2/common"
	xmlRPCObjectPath = "/xmlrpc/2/object"
)

// kolo/xmlrpc reports faults as rpc.ServerError("Fault(<code>): <string>").
var faultPattern = regexp.MustCompile(`(?s)^Fault\((-?\d+)\): (.*)$`)

// xmlRPCCaller dispatches calls to the "common" and "object" endpoints.
// Each call gets its own codec, bound to the call's context.
type xmlRPCCaller struct {
	endpoints map[string]string
	transport http.RoundTripper
	logger    *zap.Logger
}

func newXMLRPCCaller(baseURL string, transport http.RoundTripper, logger *zap.Logger) (*xmlRPCCaller, error) {
	common, err := httpclient.BuildURL(baseURL, xmlRPCCommonPath, nil)
	if err != nil {
		return nil, &ConfigurationError{Field: EnvURL, Message: err.Error()}
	}
	object, err := httpclient.BuildURL(baseURL, xmlRPCObjectPath, nil)
	if err != nil {
		return nil, &ConfigurationError{Field: EnvURL, Message: err.Error()}
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &xmlRPCCaller{
		endpoints: map[string]string{
			ServiceCommon: common,
			ServiceObject: object,
		},
		transport: transport,
		logger:    logger,
	}, nil
}

// contextTransport attaches ctx to every request it forwards.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// Call blocks until the server answers or ctx is done; there is no timeout
// of its own.
func (x *xmlRPCCaller) Call(ctx context.Context, service, method string, args ...interface{}) (interface{}, error) {
	op := callOp(service, method)

	endpoint, ok := x.endpoints[service]
	if !ok {
		return nil, newExecutionError(op, fmt.Sprintf("invalid service %q", service), nil)
	}

	client, err := xmlrpc.NewClient(endpoint, contextTransport{ctx: ctx, base: x.transport})
	if err != nil {
		return nil, newExecutionError(op, "XML-RPC error", err)
	}
	defer client.Close()

	if args == nil {
		args = []interface{}{}
	}

	x.logger.Debug("XML-RPC call",
		zap.String("endpoint", endpoint),
		zap.String("method", method))

	// rpc.Client.Go performs the HTTP exchange before returning.
	var reply interface{}
	done := make(chan *rpc.Call, 1)
	go client.Go(method, args, &reply, done)

	select {
	case <-ctx.Done():
		return nil, newExecutionError(op, "XML-RPC call abandoned", ctx.Err())
	case call := <-done:
		if call.Error != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, newExecutionError(op, "XML-RPC call abandoned", ctxErr)
			}
			return nil, convertXMLRPCError(op, call.Error)
		}
	}

	x.logger.Debug("XML-RPC call successful", zap.String("method", method))
	return normalize(restoreEmptyStrings(reply)), nil
}

// restoreEmptyStrings turns the nils kolo/xmlrpc decodes for <string></string>
// and bare <value></value> back into "". The server marshals None as false,
// so a nil in a decoded response only ever stands for empty text.
func restoreEmptyStrings(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		for k, item := range val {
			val[k] = restoreEmptyStrings(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = restoreEmptyStrings(item)
		}
		return val
	default:
		return v
	}
}

func convertXMLRPCError(op string, err error) error {
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		if m := faultPattern.FindStringSubmatch(string(serverErr)); m != nil {
			code, _ := strconv.Atoi(m[1])
			return newExecutionError(op, "XML-RPC fault", &Fault{Code: code, Message: m[2]})
		}
	}
	return newExecutionError(op, "XML-RPC error", err)
}
