// Package envelope validates the portal's response contracts: {data} on
// success, {errors:[...]} on 4xx, {error,message} on 5xx, and the pagination
// envelope {data, meta:{total,page,limit}}. Validators return findings the
// runner can attribute to a specific check.
package envelope

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// DataArray requires a top-level {"data": [...]} with an array payload.
func DataArray(body []byte) verdict.Finding {
	f := verdict.Finding{Name: "data array", Class: policy.ClassStrict}
	var env struct {
		Data *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not JSON: %v", err)
		return f
	}
	if env.Data == nil {
		f.Detail = "missing data field"
		return f
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(*env.Data, &arr); err != nil {
		f.Detail = "data is not an array"
		return f
	}
	f.OK = true
	return f
}

// DataObject requires a top-level {"data": {...}} with an object payload.
func DataObject(body []byte) verdict.Finding {
	f := verdict.Finding{Name: "data object", Class: policy.ClassStrict}
	var env struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not a data object: %v", err)
		return f
	}
	if env.Data == nil {
		f.Detail = "missing data object"
		return f
	}
	f.OK = true
	return f
}

// ElementsHave requires every element of the data array to carry the given
// fields with non-null values.
func ElementsHave(body []byte, fields ...string) verdict.Finding {
	f := verdict.Finding{
		Name:  "elements have " + strings.Join(fields, ","),
		Class: policy.ClassStrict,
	}
	var env struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not a data array of objects: %v", err)
		return f
	}
	for i, el := range env.Data {
		for _, field := range fields {
			v, ok := el[field]
			if !ok || string(v) == "null" {
				f.Detail = fmt.Sprintf("element %d missing %q", i, field)
				return f
			}
		}
	}
	f.OK = true
	return f
}

// ErrorsArray requires the 4xx envelope: a non-empty top-level errors array.
func ErrorsArray(body []byte) verdict.Finding {
	f := verdict.Finding{Name: "errors array", Class: policy.ClassStrict}
	var env struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not JSON: %v", err)
		return f
	}
	if len(env.Errors) == 0 {
		f.Detail = "missing or empty errors array"
		return f
	}
	f.OK = true
	return f
}

// ErrorMessage requires the 5xx envelope: {error, message}, both non-empty.
func ErrorMessage(body []byte) verdict.Finding {
	f := verdict.Finding{Name: "error envelope", Class: policy.ClassStrict}
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not JSON: %v", err)
		return f
	}
	if env.Error == "" || env.Message == "" {
		f.Detail = "error or message field missing"
		return f
	}
	f.OK = true
	return f
}

// PaginationMeta requires {data, meta:{total,page,limit}} with sane values.
func PaginationMeta(body []byte) verdict.Finding {
	f := verdict.Finding{Name: "pagination meta", Class: policy.ClassStrict}
	var env struct {
		Data *json.RawMessage `json:"data"`
		Meta *struct {
			Total *int `json:"total"`
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		f.Detail = fmt.Sprintf("body is not JSON: %v", err)
		return f
	}
	switch {
	case env.Data == nil:
		f.Detail = "missing data field"
	case env.Meta == nil:
		f.Detail = "missing meta object"
	case env.Meta.Total == nil || env.Meta.Page == nil || env.Meta.Limit == nil:
		f.Detail = "meta missing total/page/limit"
	case *env.Meta.Total < 0 || *env.Meta.Page < 1 || *env.Meta.Limit < 1:
		f.Detail = fmt.Sprintf("meta values out of range: total=%d page=%d limit=%d",
			*env.Meta.Total, *env.Meta.Page, *env.Meta.Limit)
	default:
		f.OK = true
	}
	return f
}

// JSONContentType requires an application/json content type.
func JSONContentType(h http.Header) verdict.Finding {
	f := verdict.Finding{Name: "json content type", Class: policy.ClassStrict}
	ct := h.Get("Content-Type")
	if ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		f.OK = true
		return f
	}
	f.Detail = fmt.Sprintf("content-type %q", ct)
	return f
}

// HeaderPresent requires a non-empty header. Class defaults to header
// variance, so absence fails CI and warns locally per the policy table.
func HeaderPresent(h http.Header, name string) verdict.Finding {
	f := verdict.Finding{Name: name + " present", Class: policy.ClassHeader}
	if h.Get(name) != "" {
		f.OK = true
		return f
	}
	f.Detail = "header missing"
	return f
}

// FirstElementField pulls a string field out of the first data element, for
// list-to-detail identifier handoffs.
func FirstElementField(body []byte, field string) (string, bool) {
	var env struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 {
		return "", false
	}
	raw, ok := env.Data[0][field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// identifiers are occasionally numeric
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
	return s, true
}

// ObjectField pulls a string field out of a {"data": {...}} envelope.
func ObjectField(body []byte, field string) (string, bool) {
	var env struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return "", false
	}
	raw, ok := env.Data[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
