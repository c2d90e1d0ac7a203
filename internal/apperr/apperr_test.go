package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatsWithAndWithoutPath(t *testing.T) {
	e := New("store.Open", KindStoreUnavailable, errors.New("connection refused"))
	if got := e.Error(); got != "store.Open: store_unavailable: connection refused" {
		t.Fatalf("unexpected message: %q", got)
	}

	e.WithPath("/repos/a/one.go")
	want := "store.Open: store_unavailable (/repos/a/one.go): connection refused"
	if got := e.Error(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestUnwrapExposesUnderlying(t *testing.T) {
	underlying := errors.New("boom")
	e := New("op", KindUnreadableFile, underlying)
	if !errors.Is(e, underlying) {
		t.Fatalf("expected errors.Is to find the underlying error")
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New("verify.Run", KindVerifierFailure, errors.New("exit 2")))
	if !Is(err, KindVerifierFailure) {
		t.Fatalf("expected Is to match through fmt.Errorf wrapping")
	}
	if Is(err, KindInvalidRegex) {
		t.Fatalf("expected Is to reject a mismatched kind")
	}
}

func TestIsRejectsPlainErrors(t *testing.T) {
	if Is(errors.New("plain"), KindStoreUnavailable) {
		t.Fatalf("expected Is to reject a non-apperr error")
	}
}
