package odoo

import (
	"bytes"
	"context"
	"encoding/json"

	httpclient "github.com/natserract/odoo/pkg/http"
	"go.uber.org/zap"
)

const jsonRPCPath = "/jsonrpc"

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  jsonRPCParams `json:"params"`
	ID      int           `json:"id"`
}

type jsonRPCParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Name    string `json:"name"`
		Debug   string `json:"debug"`
		Message string `json:"message"`
	} `json:"data"`
}

// jsonRPCCaller posts JSON-RPC 2.0 envelopes to <url>/jsonrpc over one
// reused HTTP client.
type jsonRPCCaller struct {
	endpoint   string
	httpClient *httpclient.Client
	logger     *zap.Logger
}

func newJSONRPCCaller(baseURL string, httpClient *httpclient.Client, logger *zap.Logger) (*jsonRPCCaller, error) {
	endpoint, err := httpclient.BuildURL(baseURL, jsonRPCPath, nil)
	if err != nil {
		return nil, &ConfigurationError{Field: EnvURL, Message: err.Error()}
	}
	return &jsonRPCCaller{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (j *jsonRPCCaller) Call(ctx context.Context, service, method string, args ...interface{}) (interface{}, error) {
	op := callOp(service, method)
	if args == nil {
		args = []interface{}{}
	}

	payload := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: jsonRPCParams{
			Service: service,
			Method:  method,
			Args:    args,
		},
		ID: 1,
	}

	j.logger.Debug("JSON-RPC call",
		zap.String("endpoint", j.endpoint),
		zap.String("service", service),
		zap.String("method", method))

	resp, err := j.httpClient.Post(ctx, j.endpoint, nil, payload)
	if err != nil {
		return nil, newExecutionError(op, "HTTP request failed", err)
	}

	var envelope jsonRPCResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, newExecutionError(op, "invalid JSON response", err)
	}

	if envelope.Error != nil {
		fault := &Fault{Code: envelope.Error.Code, Message: envelope.Error.Message}
		if data := envelope.Error.Data; data != nil {
			if data.Message != "" {
				fault.Message = data.Message
			}
			fault.Debug = data.Debug
		}
		if fault.Message == "" {
			fault.Message = "Unknown error"
		}
		return nil, newExecutionError(op, "JSON-RPC error", fault)
	}

	if len(envelope.Result) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Result))
	dec.UseNumber()
	var result interface{}
	if err := dec.Decode(&result); err != nil {
		return nil, newExecutionError(op, "invalid JSON response", err)
	}

	j.logger.Debug("JSON-RPC call successful", zap.String("service", service), zap.String("method", method))
	return normalize(result), nil
}
