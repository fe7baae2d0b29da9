package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"sentinel", ErrLastAdmin, CodeForbidden},
		{"wrapped sentinel", fmt.Errorf("delete: %w", ErrAdminNotFound), CodeNotFound},
		{"validation", Validation("name is required"), CodeValidation},
		{"plain", errors.New("connection reset"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMessageOfHidesInternalErrors(t *testing.T) {
	if got := MessageOf(errors.New("pq: password authentication failed")); got != "internal error" {
		t.Fatalf("leaked message %q", got)
	}
	if got := MessageOf(ErrSelfDelete); got != "you cannot delete your own account" {
		t.Fatalf("message = %q", got)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeInternal, "storage failure", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if err.Error() != "[INTERNAL] storage failure: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	want := map[Code]int{
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeForbidden:    http.StatusForbidden,
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, status := range want {
		if got := HTTPStatus(code); got != status {
			t.Errorf("HTTPStatus(%s) = %d, want %d", code, got, status)
		}
	}
}
