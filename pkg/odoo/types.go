package odoo

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// DefaultLimit is applied by the record-family search helpers when the
// caller leaves SearchOptions.Limit unset.
const DefaultLimit = 100

// Record is one row as returned by the server, keyed by field name.
type Record map[string]interface{}

// Values is a field/value map sent to create and write.
type Values map[string]interface{}

// Domain is a search filter: a sequence of [field, operator, value] terms,
// optionally mixed with prefix operators such as "|" or "&". It is sent to
// the server untouched.
type Domain []interface{}

// Term builds a single [field, operator, value] domain term.
func Term(field, operator string, value interface{}) []interface{} {
	return []interface{}{field, operator, value}
}

// SearchOptions controls paging and ordering of search and search_read.
//
// Zero values are not forwarded: Limit 0, Offset 0 and an empty Order are
// indistinguishable from "not set" and the server applies its own defaults.
// For the generic Search and SearchRead that means no limit at all: every
// matching record is returned. Only the record-family helpers
// (SearchProductionOrders, SearchProducts, SearchUsers) fall back to
// DefaultLimit.
type SearchOptions struct {
	Limit  int
	Offset int
	Order  string
}

func (o SearchOptions) kwargs() map[string]interface{} {
	kwargs := map[string]interface{}{}
	if o.Limit != 0 {
		kwargs["limit"] = o.Limit
	}
	if o.Offset != 0 {
		kwargs["offset"] = o.Offset
	}
	if o.Order != "" {
		kwargs["order"] = o.Order
	}
	return kwargs
}

// ID returns the record id, or 0 when absent.
func (r Record) ID() int64 {
	return cast.ToInt64(r["id"])
}

// String returns a text field. The server sends false for empty fields,
// which yields "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	default:
		return ""
	}
}

// Float returns a numeric field as float64.
func (r Record) Float(field string) float64 {
	return cast.ToFloat64(r[field])
}

// Int returns a numeric field as int64.
func (r Record) Int(field string) int64 {
	return cast.ToInt64(r[field])
}

// Bool returns a boolean field.
func (r Record) Bool(field string) bool {
	return cast.ToBool(r[field])
}

// Many2One splits a relational field of the form [id, "display name"].
// ok is false when the field is empty (sent as false).
func (r Record) Many2One(field string) (id int64, name string, ok bool) {
	pair, isSlice := r[field].([]interface{})
	if !isSlice || len(pair) == 0 {
		return 0, "", false
	}
	id = cast.ToInt64(pair[0])
	if len(pair) > 1 {
		name, _ = pair[1].(string)
	}
	return id, name, id != 0
}

// normalize converts decoded values so both encodings produce the same Go
// types: integers as int64, reals as float64, structs as map[string]interface{}.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

func toInt64(v interface{}) (int64, error) {
	if b, ok := v.(bool); ok && !b {
		return 0, nil
	}
	return cast.ToInt64E(v)
}

func toIDs(v interface{}) ([]int64, error) {
	if v == nil {
		return []int64{}, nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a list of ids, got %T", v)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := cast.ToInt64E(item)
		if err != nil {
			return nil, fmt.Errorf("invalid id %v: %w", item, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toRecords(v interface{}) ([]Record, error) {
	if v == nil {
		return []Record{}, nil
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a list of records, got %T", v)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("invalid record %v: %w", item, err)
		}
		records = append(records, Record(m))
	}
	return records, nil
}

func toBool(v interface{}) (bool, error) {
	return cast.ToBoolE(v)
}

func mergeValues(core Values, extra Values) Values {
	merged := make(Values, len(core)+len(extra))
	for k, v := range core {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (d Domain) orEmpty() Domain {
	if d == nil {
		return Domain{}
	}
	return d
}
