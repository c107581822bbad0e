// Package validate holds the form rules applied to create and update requests
// before they are sent to the backend. Empty optional values always pass; use
// Required for mandatory fields.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe   = regexp.MustCompile(`^[0-9+\-\s()]+$`)
	digitsRe  = regexp.MustCompile(`^[0-9]+$`)
	decimalRe = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)
)

const maxPhoneLen = 20

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// Errors is returned when one or more fields fail. It never reaches the network.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, f := range e {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Checker accumulates field errors.
type Checker struct {
	errs Errors
}

func (c *Checker) add(field, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *Checker) Required(field, v string) {
	if strings.TrimSpace(v) == "" {
		c.add(field, "is required")
	}
}

func (c *Checker) Email(field, v string) {
	if v != "" && !IsEmail(v) {
		c.add(field, "must be a valid email address")
	}
}

func (c *Checker) Phone(field, v string) {
	if v != "" && !IsPhone(v) {
		c.add(field, "must contain only digits, spaces, dashes and parentheses (max %d)", maxPhoneLen)
	}
}

func (c *Checker) Digits(field, v string) {
	if v != "" && !digitsRe.MatchString(v) {
		c.add(field, "must contain only digits")
	}
}

func (c *Checker) Decimal(field, v string) {
	if v != "" && !decimalRe.MatchString(v) {
		c.add(field, "must be a number with at most two decimals")
	}
}

func (c *Checker) MinLen(field, v string, n int) {
	if v != "" && utf8.RuneCountInString(v) < n {
		c.add(field, "must be at least %d characters", n)
	}
}

func (c *Checker) MaxLen(field, v string, n int) {
	if v != "" && utf8.RuneCountInString(v) > n {
		c.add(field, "must be at most %d characters", n)
	}
}

func (c *Checker) Positive(field string, v float64) {
	if v <= 0 {
		c.add(field, "must be greater than zero")
	}
}

func (c *Checker) NonNegative(field string, v float64) {
	if v < 0 {
		c.add(field, "must not be negative")
	}
}

// UUID checks foreign keys before they are sent.
func (c *Checker) UUID(field, v string) {
	if v == "" {
		return
	}
	if _, err := uuid.Parse(v); err != nil {
		c.add(field, "must be a valid identifier")
	}
}

// Err returns nil when every check passed.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func IsEmail(v string) bool { return emailRe.MatchString(v) }

func IsPhone(v string) bool {
	return len(v) <= maxPhoneLen && phoneRe.MatchString(v)
}

func IsDecimal(v string) bool { return decimalRe.MatchString(v) }
