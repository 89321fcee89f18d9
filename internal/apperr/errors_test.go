package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Newf(KindVersionConflict, "category %q changed", "drinks")
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected kind match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected kind match")
	}
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update category: %w", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped match")
	}
	if HTTPStatus(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", HTTPStatus(err))
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		ErrNotFound:            http.StatusNotFound,
		ErrVersionConflict:     http.StatusConflict,
		ErrDependencyConflict:  http.StatusConflict,
		ErrValidation:          http.StatusBadRequest,
		ErrAuthorizationDenied: http.StatusForbidden,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", err, got, want)
		}
	}
	if HTTPStatus(errors.New("boom")) != http.StatusInternalServerError {
		t.Fatalf("untyped errors must map to 500")
	}
}

func TestConflictCodesAreDistinct(t *testing.T) {
	if Code(ErrVersionConflict) == Code(ErrDependencyConflict) {
		t.Fatalf("conflict codes must be distinguishable")
	}
}
