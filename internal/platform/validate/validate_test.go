package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestIsEmail(t *testing.T) {
	valid := []string{"ana@hospital.com", "a.b+c@x.co", "x_y%z@sub.domain.org"}
	invalid := []string{"ana", "ana@", "ana@hospital", "ana@hospital.c", "a b@x.com"}

	for _, v := range valid {
		if !IsEmail(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	for _, v := range invalid {
		if IsEmail(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestIsPhone(t *testing.T) {
	if !IsPhone("+57 (300) 123-4567") {
		t.Error("expected formatted phone to be valid")
	}
	if IsPhone("300-abc") {
		t.Error("expected letters to be rejected")
	}
	if IsPhone(strings.Repeat("1", 21)) {
		t.Error("expected phone longer than 20 to be rejected")
	}
}

func TestIsDecimal(t *testing.T) {
	for _, v := range []string{"10", "10.5", "10.50"} {
		if !IsDecimal(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	for _, v := range []string{"10.555", "-1", ".5", "1,5"} {
		if IsDecimal(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestChecker_CollectsAllErrors(t *testing.T) {
	var c Checker
	c.Required("nombre", " ")
	c.Email("email", "bad")
	c.Phone("telefono", "")
	c.Digits("numero_licencia", "12a")
	c.MinLen("nombre_usuario", "ab", 3)
	c.MaxLen("numero_habitacion", "123456", 5)
	c.Positive("cantidad", 0)
	c.NonNegative("impuestos", -1)
	c.UUID("paciente_id", "nope")

	err := c.Err()
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T", err)
	}
	if len(verrs) != 8 {
		t.Fatalf("expected 8 errors, got %d: %v", len(verrs), verrs)
	}
	if verrs[0].Field != "nombre" {
		t.Errorf("expected first field nombre, got %s", verrs[0].Field)
	}
	if !strings.HasPrefix(err.Error(), "validation failed: nombre: is required") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestChecker_OptionalEmptyPasses(t *testing.T) {
	var c Checker
	c.Email("email", "")
	c.Phone("telefono", "")
	c.Decimal("subtotal", "")
	c.UUID("enfermera_id", "")
	c.MinLen("notas", "", 10)
	if err := c.Err(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestChecker_MinLenCountsRunes(t *testing.T) {
	var c Checker
	c.MinLen("nombre", "Ñuñ", 3)
	if err := c.Err(); err != nil {
		t.Errorf("expected 3 runes to satisfy min 3, got %v", err)
	}
}
