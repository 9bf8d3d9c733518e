package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	FromName  string `json:"from_name" validate:"required"`
	FromEmail string `json:"from_email" validate:"required,email"`
	SMTPPort  int    `json:"smtp_port" validate:"gte=1"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		FromName:  "Open Call Desk",
		FromEmail: "desk@example.org",
		SMTPPort:  587,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		FromName:  "",
		FromEmail: "not-an-address",
		SMTPPort:  0,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "from_email" {
			foundEmail = true
		}
	}

	if !foundEmail {
		t.Fatal("expected from_email field to be present in validation errors")
	}
}

func TestHHMMRule(t *testing.T) {
	type schedule struct {
		SendAt string `validate:"omitempty,hhmm"`
	}

	for _, value := range []string{"", "08:00", "23:45"} {
		if err := ValidateStruct(schedule{SendAt: value}); err != nil {
			t.Fatalf("expected %q to validate, got %v", value, err)
		}
	}

	for _, value := range []string{"8am", "25:00", "07:60", "0700"} {
		if err := ValidateStruct(schedule{SendAt: value}); err == nil {
			t.Fatalf("expected %q to fail validation", value)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("opencall", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "opencall"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"opencall"`
	}

	if err := ValidateStruct(custom{Value: "opencall"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "other"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}
