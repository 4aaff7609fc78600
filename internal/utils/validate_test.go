package utils

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name"  validate:"required,max=5"`
	Email string   `json:"email" validate:"omitempty,email"`
	Score *float64 `json:"score" validate:"omitempty,min=0,max=10"`
	Pass  string   `json:"password" validate:"omitempty,min=6"`
}

func TestValidateStruct_OK(t *testing.T) {
	s := 7.5
	if err := ValidateStruct(sample{Name: "Ana", Email: "a@b.io", Score: &s}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	high := 11.0
	err := ValidateStruct(sample{Name: "", Email: "nope", Score: &high, Pass: "abc"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"name is required",
		"email must be a valid email",
		"score must be at most 10",
		"password must be at least 6 characters",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}

	err = ValidateStruct(sample{Name: "toolong"})
	if err == nil || err.Error() != "name must be at most 5 characters" {
		t.Fatalf("unexpected error: %v", err)
	}
}
