package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodeStorage, cause, "commit batch")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable with errors.Is")
	}
	if err.Code() != CodeStorage {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodeMissingSource, "no price feed for store 072")
	outer := fmt.Errorf("running batch: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through wrapping")
	}
	if typed.Code() != CodeMissingSource {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCodeDistinguishesMissingSourceFromStorage(t *testing.T) {
	err := fmt.Errorf("batch: %w", New(CodeMissingSource, "feed absent"))
	if !HasCode(err, CodeMissingSource) {
		t.Fatal("expected MISSING_SOURCE to be detected")
	}
	if HasCode(err, CodeStorage) {
		t.Fatal("did not expect STORAGE_ERROR")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}
