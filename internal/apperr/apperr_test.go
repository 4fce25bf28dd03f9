package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{Precondition("not live"), http.StatusConflict},
		{Conflict("duplicate"), http.StatusConflict},
		{NotFound("missing"), http.StatusNotFound},
		{Validation("bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load challenge: %w", NotFound("challenge not found"))

	if !Is(err, KindNotFound) {
		t.Fatal("wrapped error lost its kind")
	}
	if Is(err, KindValidation) {
		t.Error("wrapped error matched the wrong kind")
	}
	if HTTPStatus(err) != http.StatusNotFound {
		t.Errorf("status = %d", HTTPStatus(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindPreconditionFailed, "round %d is full", 1)
	if err.Error() != "round 1 is full" || err.Kind != KindPreconditionFailed {
		t.Errorf("Newf = %+v", err)
	}
}
