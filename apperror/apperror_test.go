package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsIdentity(t *testing.T) {
	base := Conflict("time slot already booked")
	cause := errors.New("duplicate key value")
	err := fmt.Errorf("submit: %w", Wrap(base, cause))

	if !errors.Is(err, base) {
		t.Fatal("wrapped error should match its base")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should keep its cause")
	}
	ae, ok := From(err)
	if !ok || ae.Status != http.StatusConflict || ae.Message != "time slot already booked" {
		t.Fatalf("From = %+v, %v", ae, ok)
	}
	if errors.Is(err, BadRequest("time slot already booked")) {
		t.Fatal("different status must not match")
	}
}

func TestFromPlainError(t *testing.T) {
	if _, ok := From(errors.New("boom")); ok {
		t.Fatal("plain error is not an *Error")
	}
}
