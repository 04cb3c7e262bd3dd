package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeERP is an in-memory server speaking both encodings over one shared
// record store.
type fakeERP struct {
	mu sync.Mutex

	db, user, key string
	uid           int64

	records map[string]map[int64]Record
	nextID  int64
	calls   []fakeCall

	rejectAuth  bool
	failVersion bool
}

type fakeCall struct {
	Service string
	Method  string
	Args    []interface{}
}

func newFakeERP() *fakeERP {
	return &fakeERP{
		db:      "test",
		user:    "admin",
		key:     "secret",
		uid:     2,
		records: map[string]map[int64]Record{},
		nextID:  100,
	}
}

func (f *fakeERP) seed(model string, rec Record) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	stored := Record{"id": id}
	for k, v := range rec {
		stored[k] = v
	}
	if f.records[model] == nil {
		f.records[model] = map[int64]Record{}
	}
	f.records[model][id] = stored
	return id
}

func (f *fakeERP) lastCall(method string) fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		c := f.calls[i]
		if c.Method == method {
			return c
		}
		if c.Method == "execute_kw" && len(c.Args) > 4 && c.Args[4] == method {
			return c
		}
	}
	return fakeCall{}
}

func (f *fakeERP) countCalls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

type fakeFault struct {
	code    int
	message string
}

func (f *fakeERP) dispatch(service, method string, args []interface{}) (interface{}, *fakeFault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Service: service, Method: method, Args: args})

	switch service + "." + method {
	case "common.version":
		if f.failVersion {
			return nil, &fakeFault{1, "version unavailable"}
		}
		return map[string]interface{}{
			"server_version":      "17.0",
			"server_version_info": []interface{}{int64(17), int64(0), int64(0), "final", int64(0), ""},
			"server_serie":        "17.0",
			"protocol_version":    int64(1),
		}, nil
	case "common.authenticate":
		if len(args) < 3 {
			return nil, &fakeFault{1, "authenticate expects 4 arguments"}
		}
		if f.rejectAuth || args[0] != f.db || args[1] != f.user || args[2] != f.key {
			return false, nil
		}
		return f.uid, nil
	case "object.execute_kw":
		return f.executeKW(args)
	}
	return nil, &fakeFault{1, fmt.Sprintf("unknown method %s.%s", service, method)}
}

func (f *fakeERP) executeKW(args []interface{}) (interface{}, *fakeFault) {
	if len(args) != 7 {
		return nil, &fakeFault{1, "execute_kw expects 7 arguments"}
	}
	if args[0] != f.db || args[1] != f.uid || args[2] != f.key {
		return nil, &fakeFault{3, "Access Denied"}
	}
	model, _ := args[3].(string)
	method, _ := args[4].(string)
	params, _ := args[5].([]interface{})
	kwargs, _ := args[6].(map[string]interface{})

	table := f.records[model]
	if table == nil {
		table = map[int64]Record{}
		f.records[model] = table
	}

	switch method {
	case "search", "search_read":
		var domain []interface{}
		if len(params) > 0 {
			domain, _ = params[0].([]interface{})
		}
		ids := matchDomain(table, domain)
		ids = page(ids, kwargs)
		if method == "search" {
			out := make([]interface{}, len(ids))
			for i, id := range ids {
				out[i] = id
			}
			return out, nil
		}
		return project(table, ids, kwargs), nil
	case "read":
		if len(params) == 0 {
			return nil, &fakeFault{1, "read expects ids"}
		}
		raw, _ := params[0].([]interface{})
		var ids []int64
		for _, r := range raw {
			id, _ := r.(int64)
			if _, ok := table[id]; ok {
				ids = append(ids, id)
			}
		}
		return project(table, ids, kwargs), nil
	case "create":
		values, _ := params[0].(map[string]interface{})
		f.nextID++
		rec := Record{"id": f.nextID}
		for k, v := range values {
			rec[k] = v
		}
		table[f.nextID] = rec
		return f.nextID, nil
	case "write":
		raw, _ := params[0].([]interface{})
		values, _ := params[1].(map[string]interface{})
		for _, r := range raw {
			id, _ := r.(int64)
			rec, ok := table[id]
			if !ok {
				return nil, &fakeFault{2, fmt.Sprintf("Record does not exist or has been deleted. (Record: %s(%d,))", model, id)}
			}
			for k, v := range values {
				rec[k] = v
			}
		}
		return true, nil
	case "unlink":
		raw, _ := params[0].([]interface{})
		for _, r := range raw {
			id, _ := r.(int64)
			delete(table, id)
		}
		return true, nil
	}
	return nil, &fakeFault{1, fmt.Sprintf("The method '%s' does not exist on the model '%s'", method, model)}
}

func matchDomain(table map[int64]Record, domain []interface{}) []int64 {
	var ids []int64
	for id, rec := range table {
		match := true
		for _, term := range domain {
			t, ok := term.([]interface{})
			if !ok || len(t) != 3 || t[1] != "=" {
				continue
			}
			field, _ := t[0].(string)
			if fmt.Sprint(rec[field]) != fmt.Sprint(t[2]) {
				match = false
			}
		}
		if match {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page(ids []int64, kwargs map[string]interface{}) []int64 {
	if off, ok := kwargs["offset"].(int64); ok {
		if int(off) >= len(ids) {
			return nil
		}
		ids = ids[off:]
	}
	if lim, ok := kwargs["limit"].(int64); ok && int(lim) < len(ids) {
		ids = ids[:lim]
	}
	return ids
}

func project(table map[int64]Record, ids []int64, kwargs map[string]interface{}) []interface{} {
	fields, _ := kwargs["fields"].([]interface{})
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		rec := table[id]
		row := map[string]interface{}{"id": id}
		if len(fields) == 0 {
			for k, v := range rec {
				row[k] = v
			}
		} else {
			for _, fld := range fields {
				name, _ := fld.(string)
				if v, ok := rec[name]; ok {
					row[name] = v
				} else {
					row[name] = false
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// JSON-RPC endpoint

func (f *fakeERP) serveJSON(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Params struct {
			Service string            `json:"service"`
			Method  string            `json:"method"`
			Args    []json.RawMessage `json:"args"`
		} `json:"params"`
		ID interface{} `json:"id"`
	}
	body, _ := io.ReadAll(r.Body)
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	args := make([]interface{}, 0, len(req.Params.Args))
	for _, raw := range req.Params.Args {
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		var v interface{}
		_ = d.Decode(&v)
		args = append(args, normalize(v))
	}

	result, fault := f.dispatch(req.Params.Service, req.Params.Method, args)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if fault != nil {
		resp["error"] = map[string]interface{}{
			"code":    200,
			"message": "Odoo Server Error",
			"data": map[string]interface{}{
				"name":    "odoo.exceptions.UserError",
				"debug":   "Traceback (most recent call last): ...",
				"message": fault.message,
			},
		}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// XML-RPC endpoints

type xrValue struct {
	String  *string   `xml:"string"`
	Int     *string   `xml:"int"`
	I4      *string   `xml:"i4"`
	I8      *string   `xml:"i8"`
	Boolean *string   `xml:"boolean"`
	Double  *string   `xml:"double"`
	Nil     *struct{} `xml:"nil"`
	Array   *struct {
		Values []xrValue `xml:"data>value"`
	} `xml:"array"`
	Struct *struct {
		Members []struct {
			Name  string  `xml:"name"`
			Value xrValue `xml:"value"`
		} `xml:"member"`
	} `xml:"struct"`
	Text string `xml:",chardata"`
}

type xrCall struct {
	XMLName xml.Name  `xml:"methodCall"`
	Method  string    `xml:"methodName"`
	Params  []xrValue `xml:"params>param>value"`
}

func (v xrValue) decode() interface{} {
	switch {
	case v.String != nil:
		return *v.String
	case v.Int != nil || v.I4 != nil || v.I8 != nil:
		s := v.Int
		if s == nil {
			s = v.I4
		}
		if s == nil {
			s = v.I8
		}
		i, _ := strconv.ParseInt(strings.TrimSpace(*s), 10, 64)
		return i
	case v.Boolean != nil:
		return strings.TrimSpace(*v.Boolean) == "1"
	case v.Double != nil:
		d, _ := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		return d
	case v.Nil != nil:
		return nil
	case v.Array != nil:
		out := make([]interface{}, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			out = append(out, item.decode())
		}
		return out
	case v.Struct != nil:
		out := map[string]interface{}{}
		for _, m := range v.Struct.Members {
			out[m.Name] = m.Value.decode()
		}
		return out
	}
	return v.Text
}

func xrEncode(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<value><boolean>0</boolean></value>"
	case bool:
		if val {
			return "<value><boolean>1</boolean></value>"
		}
		return "<value><boolean>0</boolean></value>"
	case int:
		return fmt.Sprintf("<value><int>%d</int></value>", val)
	case int64:
		return fmt.Sprintf("<value><int>%d</int></value>", val)
	case float64:
		return "<value><double>" + strconv.FormatFloat(val, 'f', -1, 64) + "</double></value>"
	case string:
		return "<value><string>" + html.EscapeString(val) + "</string></value>"
	case []interface{}:
		var b strings.Builder
		b.WriteString("<value><array><data>")
		for _, item := range val {
			b.WriteString(xrEncode(item))
		}
		b.WriteString("</data></array></value>")
		return b.String()
	case Record:
		return xrEncode(map[string]interface{}(val))
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("<value><struct>")
		for _, k := range keys {
			b.WriteString("<member><name>" + html.EscapeString(k) + "</name>" + xrEncode(val[k]) + "</member>")
		}
		b.WriteString("</struct></value>")
		return b.String()
	}
	return "<value><string>" + html.EscapeString(fmt.Sprint(v)) + "</string></value>"
}

func (f *fakeERP) serveXML(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var call xrCall
		if err := xml.NewDecoder(r.Body).Decode(&call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		args := make([]interface{}, 0, len(call.Params))
		for _, p := range call.Params {
			args = append(args, p.decode())
		}

		result, fault := f.dispatch(service, call.Method, args)

		w.Header().Set("Content-Type", "text/xml")
		if fault != nil {
			fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><fault>%s</fault></methodResponse>`,
				xrEncode(map[string]interface{}{"faultCode": int64(fault.code), "faultString": fault.message}))
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param>%s</param></params></methodResponse>`, xrEncode(result))
	}
}

func (f *fakeERP) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(jsonRPCPath, f.serveJSON)
	mux.HandleFunc(xmlRPCCommonPath, f.serveXML(ServiceCommon))
	mux.HandleFunc(xmlRPCObjectPath, f.serveXML(ServiceObject))
	return mux
}

func newFakeServer(t *testing.T, erp *fakeERP) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(erp.handler())
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string, protocol Protocol) Config {
	return Config{
		URL:      url,
		Database: "test",
		Username: "admin",
		APIKey:   "secret",
		Protocol: protocol,
	}
}

func newTestClient(t *testing.T, erp *fakeERP, protocol Protocol) *Client {
	t.Helper()
	srv := newFakeServer(t, erp)
	c, err := NewWithLogger(testConfig(srv.URL, protocol), zap.NewNop())
	require.NoError(t, err)
	return c
}

var protocols = []Protocol{ProtocolJSONRPC, ProtocolXMLRPC}

// stubCaller records calls and answers through fn.
type stubCaller struct {
	mu    sync.Mutex
	calls []fakeCall
	fn    func(service, method string, args []interface{}) (interface{}, error)
}

func (s *stubCaller) Call(ctx context.Context, service, method string, args ...interface{}) (interface{}, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fakeCall{Service: service, Method: method, Args: args})
	s.mu.Unlock()
	return s.fn(service, method, args)
}

func (s *stubCaller) last() fakeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// newStubClient returns a client whose authenticate answers uid 7 and whose
// execute_kw answers result.
func newStubClient(t *testing.T, result interface{}) (*Client, *stubCaller) {
	t.Helper()
	stub := &stubCaller{fn: func(service, method string, args []interface{}) (interface{}, error) {
		if method == "authenticate" {
			return int64(7), nil
		}
		return result, nil
	}}
	c, err := NewWithLogger(testConfig("https://erp.example.com", ProtocolJSONRPC), zap.NewNop(), WithCaller(stub))
	require.NoError(t, err)
	return c, stub
}
