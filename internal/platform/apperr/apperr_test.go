package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKinds(t *testing.T) {
	if !IsValidation(Validation("missing %s", "bed_id")) {
		t.Error("expected validation kind")
	}
	if !IsConflict(Conflict("bed occupied")) {
		t.Error("expected conflict kind")
	}
	if !IsNotFound(NotFound("bed", "b-1")) {
		t.Error("expected not-found kind")
	}
	if KindOf(Internal(errors.New("boom"))) != KindInternal {
		t.Error("expected internal kind")
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("foreign errors should classify as internal")
	}
	if IsConflict(nil) {
		t.Error("nil should not be a conflict")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("taken"), http.StatusConflict},
		{NotFound("ward", 7), http.StatusNotFound},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var ae *Error
		if !errors.As(tc.err, &ae) {
			t.Fatalf("expected *Error, got %T", tc.err)
		}
		if ae.HTTPStatus() != tc.want {
			t.Errorf("expected %d, got %d", tc.want, ae.HTTPStatus())
		}
	}
}

func TestAsHTTP(t *testing.T) {
	status, msg := AsHTTP(Conflict("bed B-1 is occupied"))
	if status != http.StatusConflict || msg != "bed B-1 is occupied" {
		t.Errorf("unexpected mapping: %d %q", status, msg)
	}
	status, msg = AsHTTP(Internal(errors.New("pq: connection refused")))
	if status != http.StatusInternalServerError || msg != "internal error" {
		t.Errorf("internal cause must not leak: %d %q", status, msg)
	}
	status, msg = AsHTTP(errors.New("plain"))
	if status != http.StatusInternalServerError || msg != "internal error" {
		t.Errorf("foreign errors map to 500: %d %q", status, msg)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	wrapped := fmt.Errorf("admit: %w", Conflict("bed not available"))
	if !IsConflict(wrapped) {
		t.Error("kind should survive fmt.Errorf wrapping")
	}
}

func TestMessage(t *testing.T) {
	err := NotFound("encounter", "e-42")
	if err.Error() != "encounter e-42 not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	internal := Internal(errors.New("boom"))
	if internal.Error() != "internal error: boom" {
		t.Errorf("unexpected message: %s", internal.Error())
	}
}
