package odoo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	for _, protocol := range protocols {
		t.Run(string(protocol), func(t *testing.T) {
			erp := newFakeERP()
			c := newTestClient(t, erp, protocol)

			assert.Equal(t, int64(0), c.UID())
			uid, err := c.Authenticate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(2), uid)
			assert.Equal(t, int64(2), c.UID())

			call := erp.lastCall("authenticate")
			assert.Equal(t, ServiceCommon, call.Service)
			require.Len(t, call.Args, 4)
			assert.Equal(t, "test", call.Args[0])
			assert.Equal(t, "admin", call.Args[1])
			assert.Equal(t, "secret", call.Args[2])
			assert.Equal(t, map[string]interface{}{}, call.Args[3])
		})
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	for _, protocol := range protocols {
		t.Run(string(protocol), func(t *testing.T) {
			erp := newFakeERP()
			erp.rejectAuth = true
			c := newTestClient(t, erp, protocol)

			_, err := c.Authenticate(context.Background())
			require.Error(t, err)

			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Contains(t, err.Error(), "Invalid credentials")
			assert.Contains(t, err.Error(), "ODOO_API_KEY")
			assert.Contains(t, err.Error(), "API access")
			assert.Contains(t, err.Error(), "Database name")
			assert.Equal(t, int64(0), c.UID())
		})
	}
}

func TestAuthenticate_OverwritesCachedUID(t *testing.T) {
	uid := int64(5)
	stub := &stubCaller{fn: func(service, method string, args []interface{}) (interface{}, error) {
		return uid, nil
	}}
	c, err := NewWithLogger(testConfig("https://erp.example.com", ProtocolJSONRPC), nil, WithCaller(stub))
	require.NoError(t, err)

	_, err = c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.UID())

	uid = 9
	_, err = c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.UID())
}

func TestExecute_AuthenticatesLazilyOnce(t *testing.T) {
	erp := newFakeERP()
	c := newTestClient(t, erp, ProtocolJSONRPC)
	ctx := context.Background()

	_, err := c.Search(ctx, ModelProduct, nil, SearchOptions{})
	require.NoError(t, err)
	_, err = c.Search(ctx, ModelProduct, nil, SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, erp.countCalls("authenticate"))
	assert.Equal(t, 2, erp.countCalls("execute_kw"))
}

func TestExecute_FailedAuthenticationPropagates(t *testing.T) {
	erp := newFakeERP()
	erp.rejectAuth = true
	c := newTestClient(t, erp, ProtocolXMLRPC)

	_, err := c.Execute(context.Background(), ModelUser, "search", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	assert.Equal(t, 0, erp.countCalls("execute_kw"))
}

func TestExecute_Arguments(t *testing.T) {
	c, stub := newStubClient(t, []interface{}{})

	_, err := c.Execute(context.Background(), "res.partner", "name_search", []interface{}{"Acme"}, map[string]interface{}{"limit": 5})
	require.NoError(t, err)

	call := stub.last()
	assert.Equal(t, ServiceObject, call.Service)
	assert.Equal(t, "execute_kw", call.Method)
	require.Len(t, call.Args, 7)
	assert.Equal(t, "test", call.Args[0])
	assert.Equal(t, int64(7), call.Args[1])
	assert.Equal(t, "secret", call.Args[2])
	assert.Equal(t, "res.partner", call.Args[3])
	assert.Equal(t, "name_search", call.Args[4])
	assert.Equal(t, []interface{}{"Acme"}, call.Args[5])
	assert.Equal(t, map[string]interface{}{"limit": 5}, call.Args[6])
}

func TestExecute_NilArgsBecomeEmpty(t *testing.T) {
	c, stub := newStubClient(t, true)

	_, err := c.Execute(context.Background(), "res.partner", "check_access_rights", nil, nil)
	require.NoError(t, err)

	call := stub.last()
	assert.Equal(t, []interface{}{}, call.Args[5])
	assert.Equal(t, map[string]interface{}{}, call.Args[6])
}

func TestExecute_WrapsTransportErrorWithModelMethod(t *testing.T) {
	stub := &stubCaller{fn: func(service, method string, args []interface{}) (interface{}, error) {
		if method == "authenticate" {
			return int64(1), nil
		}
		return nil, errors.New("connection reset")
	}}
	c, err := NewWithLogger(testConfig("https://erp.example.com", ProtocolJSONRPC), nil, WithCaller(stub))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), ModelProduct, "read", nil, nil)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "product.product.read", execErr.Op)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSearch_OmitsZeroOptions(t *testing.T) {
	c, stub := newStubClient(t, []interface{}{int64(3), int64(1)})

	ids, err := c.Search(context.Background(), ModelProduct, Domain{}, SearchOptions{Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	call := stub.last()
	assert.Equal(t, "search", call.Args[4])
	assert.Equal(t, []interface{}{Domain{}}, call.Args[5])
	kwargs := call.Args[6].(map[string]interface{})
	assert.NotContains(t, kwargs, "limit")
	assert.NotContains(t, kwargs, "offset")
	assert.NotContains(t, kwargs, "order")
}

func TestSearch_ForwardsNonZeroOptions(t *testing.T) {
	c, stub := newStubClient(t, []interface{}{})

	_, err := c.Search(context.Background(), ModelProduct, nil, SearchOptions{Limit: 10, Offset: 20, Order: "name"})
	require.NoError(t, err)

	call := stub.last()
	assert.Equal(t, []interface{}{Domain{}}, call.Args[5], "nil domain is sent as an empty list")
	assert.Equal(t, map[string]interface{}{"limit": 10, "offset": 20, "order": "name"}, call.Args[6])
}

func TestSearchRead_Kwargs(t *testing.T) {
	c, stub := newStubClient(t, []interface{}{map[string]interface{}{"id": int64(1), "name": "Desk"}})

	domain := Domain{Term("active", "=", true)}
	records, err := c.SearchRead(context.Background(), ModelProduct, domain, []string{"name"}, SearchOptions{Offset: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Desk", records[0].String("name"))

	call := stub.last()
	assert.Equal(t, "search_read", call.Args[4])
	assert.Equal(t, []interface{}{domain}, call.Args[5])
	assert.Equal(t, map[string]interface{}{"fields": []string{"name"}, "offset": 5}, call.Args[6])
}

func TestRead_OmitsEmptyFields(t *testing.T) {
	c, stub := newStubClient(t, []interface{}{})

	_, err := c.Read(context.Background(), ModelUser, []int64{1, 2}, nil)
	require.NoError(t, err)

	call := stub.last()
	assert.Equal(t, []interface{}{[]int64{1, 2}}, call.Args[5])
	assert.Equal(t, map[string]interface{}{}, call.Args[6])
}

func TestWriteAndUnlinkArguments(t *testing.T) {
	c, stub := newStubClient(t, true)
	ctx := context.Background()

	ok, err := c.Write(ctx, ModelProduct, []int64{4}, Values{"name": "Chair"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []interface{}{[]int64{4}, Values{"name": "Chair"}}, stub.last().Args[5])

	ok, err = c.Unlink(ctx, ModelProduct, []int64{4})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []interface{}{[]int64{4}}, stub.last().Args[5])
}

func TestCRUD_RoundTrip(t *testing.T) {
	for _, protocol := range protocols {
		t.Run(string(protocol), func(t *testing.T) {
			erp := newFakeERP()
			c := newTestClient(t, erp, protocol)
			ctx := context.Background()

			id, err := c.Create(ctx, ModelProduct, Values{"name": "Table", "list_price": 99.5, "active": true})
			require.NoError(t, err)
			assert.NotZero(t, id)

			ids, err := c.Search(ctx, ModelProduct, Domain{Term("name", "=", "Table")}, SearchOptions{})
			require.NoError(t, err)
			assert.Equal(t, []int64{id}, ids)

			ok, err := c.Write(ctx, ModelProduct, []int64{id}, Values{"list_price": 120.25})
			require.NoError(t, err)
			assert.True(t, ok)

			records, err := c.Read(ctx, ModelProduct, []int64{id}, []string{"name", "list_price"})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, id, records[0].ID())
			assert.Equal(t, "Table", records[0].String("name"))
			assert.Equal(t, 120.25, records[0].Float("list_price"))

			ok, err = c.Unlink(ctx, ModelProduct, []int64{id})
			require.NoError(t, err)
			assert.True(t, ok)

			ids, err = c.Search(ctx, ModelProduct, nil, SearchOptions{})
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestRemoteFaultSurfacesAsExecutionError(t *testing.T) {
	for _, protocol := range protocols {
		t.Run(string(protocol), func(t *testing.T) {
			erp := newFakeERP()
			c := newTestClient(t, erp, protocol)

			_, err := c.Write(context.Background(), ModelProduct, []int64{424242}, Values{"name": "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExecution))

			var fault *Fault
			require.True(t, errors.As(err, &fault))
			assert.Contains(t, fault.Message, "Record does not exist")
		})
	}
}

func TestMalformedResult(t *testing.T) {
	c, _ := newStubClient(t, "not-a-list")

	_, err := c.Search(context.Background(), ModelProduct, nil, SearchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
}
