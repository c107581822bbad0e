package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Kind classifies a failed backend call.
type Kind string

const (
	// KindTransport means no response was received.
	KindTransport Kind = "transport"
	// KindValidation carries field-level messages from a detail array.
	KindValidation Kind = "validation"
	// KindBackend is a generic envelope with a detail/message string or a text body.
	KindBackend Kind = "backend"
	// KindUnknown means the payload could not be interpreted; Raw keeps it.
	KindUnknown Kind = "unknown"
)

// FieldError is one entry of a structured validation response.
type FieldError struct {
	Location []string `json:"loc,omitempty"`
	Message  string   `json:"msg"`
}

func (f FieldError) String() string {
	if len(f.Location) == 0 {
		return f.Message
	}
	return strings.Join(f.Location, ".") + ": " + f.Message
}

// Error is returned for every failed backend call.
type Error struct {
	Kind     Kind
	Status   int
	Method   string
	Endpoint string
	Message  string
	Fields   []FieldError
	Raw      []byte
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Endpoint)
	}
	if e.Status > 0 {
		fmt.Fprintf(&b, "%d ", e.Status)
	}
	b.WriteString(string(e.Kind))
	if msg := e.Text(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Text is the human-readable message: field errors joined, else Message.
func (e *Error) Text() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.String())
		}
		return strings.Join(parts, "; ")
	}
	return e.Message
}

func (e *Error) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *Error) IsNotFound() bool     { return e.Status == http.StatusNotFound }

var textPolicy = bluemonday.StrictPolicy()

// ParseError interprets an error response body. Probing order: JSON string,
// detail array, detail string, message, top-level array, plain text.
func ParseError(status int, body []byte) *Error {
	e := &Error{Status: status, Raw: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		e.Kind = KindUnknown
		return e
	}

	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		text := plainText(string(trimmed))
		if text == "" {
			e.Kind = KindUnknown
			return e
		}
		e.Kind = KindBackend
		e.Message = text
		return e
	}

	switch p := payload.(type) {
	case string:
		e.Kind = KindBackend
		e.Message = p
		return e
	case []any:
		if fields := fieldErrors(p); len(fields) > 0 {
			e.Kind = KindValidation
			e.Fields = fields
			return e
		}
	case map[string]any:
		switch d := p["detail"].(type) {
		case []any:
			if fields := fieldErrors(d); len(fields) > 0 {
				e.Kind = KindValidation
				e.Fields = fields
				return e
			}
		case string:
			if d != "" {
				e.Kind = KindBackend
				e.Message = d
				return e
			}
		case map[string]any:
			if m := messageOf(d); m != "" {
				e.Kind = KindBackend
				e.Message = m
				return e
			}
		}
		if m, ok := p["message"].(string); ok && m != "" {
			e.Kind = KindBackend
			e.Message = m
			return e
		}
	}

	e.Kind = KindUnknown
	return e
}

func fieldErrors(items []any) []FieldError {
	var fields []FieldError
	for _, it := range items {
		switch v := it.(type) {
		case string:
			if v != "" {
				fields = append(fields, FieldError{Message: v})
			}
		case map[string]any:
			msg := messageOf(v)
			if msg == "" {
				continue
			}
			fields = append(fields, FieldError{Location: location(v["loc"]), Message: msg})
		}
	}
	return fields
}

func messageOf(m map[string]any) string {
	if s, ok := m["msg"].(string); ok && s != "" {
		return s
	}
	if s, ok := m["message"].(string); ok && s != "" {
		return s
	}
	return ""
}

func location(v any) []string {
	parts, ok := v.([]any)
	if !ok {
		return nil
	}
	loc := make([]string, 0, len(parts))
	for _, p := range parts {
		switch t := p.(type) {
		case string:
			loc = append(loc, t)
		case float64:
			loc = append(loc, fmt.Sprintf("%g", t))
		}
	}
	return loc
}

// plainText strips markup from proxy error pages and collapses whitespace.
func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(s))), " ")
}

// Describe renders err as the message shown to an operator, optionally prefixed
// with the action that failed ("Error al cargar citas").
func Describe(prefix string, err error) string {
	if err == nil {
		return ""
	}

	var msg string
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Kind == KindTransport:
			msg = "no response from server"
		case apiErr.Text() != "":
			msg = apiErr.Text()
		case apiErr.Status > 0:
			msg = http.StatusText(apiErr.Status)
		}
		if msg == "" {
			msg = "unexpected error"
		}
	default:
		msg = err.Error()
	}

	if prefix == "" {
		return msg
	}
	return prefix + ": " + msg
}
