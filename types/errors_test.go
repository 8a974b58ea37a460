package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{NewError(KindUnauthorized, "expired token", nil), KindUnauthorized},
		{NewError(KindValidation, "bad image", nil), KindValidation},
		{NewError(KindResponseFormat, "not json", nil), KindResponseFormat},
		{NewError(KindPersistence, "write failed", nil), KindPersistence},
		{errors.New("raw network error"), KindTransient},
		{fmt.Errorf("wrapped: %w", NewError(KindValidation, "bad image", nil)), KindValidation},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewError(KindTransient, "timeout", nil)) {
		t.Error("transient errors must be retryable")
	}
	if !IsRetryable(errors.New("plain failure")) {
		t.Error("untyped errors must stay retryable")
	}
	for _, kind := range []ErrorKind{KindUnauthorized, KindValidation, KindResponseFormat, KindPersistence} {
		if IsRetryable(NewError(kind, "terminal", nil)) {
			t.Errorf("%v errors must not be retryable", kind)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(KindTransient, "endpoint unreachable", cause)

	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
	if msg := err.Error(); msg != "transient: endpoint unreachable: connection refused" {
		t.Errorf("unexpected message %q", msg)
	}
}
