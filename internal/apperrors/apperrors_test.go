package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfClassified(t *testing.T) {
	err := E(NotFound, "ride not found")
	if KindOf(err) != NotFound {
		t.Fatalf("expected NotFound, got %v", KindOf(err))
	}
	wrapped := fmt.Errorf("lookup: %w", err)
	if KindOf(wrapped) != NotFound {
		t.Fatalf("wrapping must preserve the kind, got %v", KindOf(wrapped))
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("boom")) != Internal {
		t.Fatal("unclassified errors must map to Internal")
	}
	if Message(errors.New("pq: secret table missing")) != "internal error" {
		t.Fatal("unclassified errors must not leak detail")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated:  http.StatusUnauthorized,
		InvalidArgument:  http.StatusBadRequest,
		NotFound:         http.StatusNotFound,
		PermissionDenied: http.StatusForbidden,
		Conflict:         http.StatusConflict,
		Internal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Fatalf("%v: expected %d, got %d", kind, want, got)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("driver disconnected")
	err := E(Internal, "dispatch failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause must be reachable via errors.Is")
	}
}
