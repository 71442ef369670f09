package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "history entry not found")
		if err.Error() != "[NOT_FOUND] history entry not found" {
			t.Errorf("expected [NOT_FOUND] history entry not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeStorage, "write history")
		expected := "[STORAGE_ERROR] write history: disk full"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("WrapNil", func(t *testing.T) {
		if Wrap(nil, CodeStorage, "noop") != nil {
			t.Error("expected Wrap(nil) to return nil")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("record: %w", New(CodeStorage, "set failed"))
		if !IsCode(err, CodeStorage) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
		if CodeOf(err) != CodeStorage {
			t.Errorf("expected CodeOf STORAGE_ERROR, got %s", CodeOf(err))
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeValidationError, "empty key"), CtxKind, "repo")
		expected := "[VALIDATION_ERROR] empty key {kind=repo}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		plain := AddContext(errors.New("boom"), CtxPath, "a.json")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain error to be wrapped as internal")
		}
	})
}
