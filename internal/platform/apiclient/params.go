package apiclient

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Params are query parameters for a backend call. Nil values, nil pointers and
// empty strings are dropped; everything else is copied verbatim.
type Params map[string]any

// Merge returns a new Params holding p overlaid with other.
func (p Params) Merge(other map[string]any) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Values renders the parameters into url.Values.
func (p Params) Values() url.Values {
	vals := url.Values{}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s, ok := formatParam(p[k])
		if !ok {
			continue
		}
		vals.Set(k, s)
	}
	return vals
}

// Encode returns the URL-encoded query string.
func (p Params) Encode() string {
	return p.Values().Encode()
}

func formatParam(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return formatParam(rv.Elem().Interface())
	}

	switch t := v.(type) {
	case string:
		return t, t != ""
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	}
	s := fmt.Sprint(v)
	return s, s != ""
}

// Path joins escaped path segments into an endpoint: Path("citas", "paciente", id)
// yields "/citas/paciente/<id>".
func Path(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(s))
	}
	return "/" + strings.Join(escaped, "/")
}
