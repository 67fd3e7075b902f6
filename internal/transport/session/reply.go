package session

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"egrul/internal/polling"
)

// Reply is a response whose body was decoded as a JSON object.
type Reply struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	// Fields is nil when the body is not a JSON object.
	Fields map[string]any
}

// Decode wraps resp, decoding its body when it is a JSON object.
func Decode(resp *Response) Reply {
	if resp == nil {
		return Reply{}
	}
	r := Reply{StatusCode: resp.StatusCode, Body: resp.Body, Header: resp.Header}
	var fields map[string]any
	if err := json.Unmarshal(resp.Body, &fields); err == nil {
		r.Fields = fields
	}
	return r
}

// Call classifies the outcome of one round trip: a send error becomes a
// transport error, a non-2xx status becomes a remote_status error carrying the
// remote's message when the body has one. The decoded reply is returned in
// both cases so challenge markers in error bodies stay visible.
func Call(operation string, resp *Response, err error) (Reply, error) {
	if err != nil {
		return Reply{}, polling.NewError(polling.CategoryTransport, operation, "request failed", err)
	}
	reply := Decode(resp)
	if !resp.OK() {
		return reply, polling.RemoteStatus(operation, resp.StatusCode, reply.ErrorMessage())
	}
	return reply, nil
}

// Valid reports whether the body decoded as a JSON object.
func (r Reply) Valid() bool {
	return r.Fields != nil
}

// Has reports whether key is present.
func (r Reply) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// String returns the value at key rendered as a string; absent keys yield "".
func (r Reply) String(key string) string {
	v, ok := r.Fields[key]
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Bool returns the boolean at key and whether it was present as a boolean.
func (r Reply) Bool(key string) (value, ok bool) {
	v, present := r.Fields[key]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Errors returns the registry's ERRORS object, if any.
func (r Reply) Errors() map[string]any {
	if errs, ok := r.Fields["ERRORS"].(map[string]any); ok {
		return errs
	}
	return nil
}

// HasError reports whether ERRORS contains key.
func (r Reply) HasError(key string) bool {
	_, ok := r.Errors()[key]
	return ok
}

// ErrorMessage flattens the remote's error description.
func (r Reply) ErrorMessage() string {
	if errs := r.Errors(); len(errs) > 0 {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+Stringify(errs[k]))
		}
		return strings.Join(parts, "; ")
	}
	for _, key := range []string{"message", "error", "ERROR"} {
		if msg := r.String(key); msg != "" {
			return msg
		}
	}
	return ""
}

// Stringify renders a decoded JSON value as text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
