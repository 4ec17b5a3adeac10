package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docsite.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "docsite.yaml" {
			t.Errorf("expected context file=docsite.yaml, got %v", file)
		}
		if got := err.Error(); got != "[config:fatal] invalid configuration" {
			t.Errorf("unexpected Error(): %q", got)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := ConfigError("bad base path").Build()
		wrapped := fmt.Errorf("load: %w", base)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryConfig) {
			t.Error("expected config category")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Error("expected fatal severity")
		}
		if base.CanRetry() {
			t.Error("config errors require user action, not retry")
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		plain := errors.New("plain")
		if GetCategory(plain) != CategoryInternal {
			t.Errorf("expected internal category for plain error")
		}
		if GetSeverity(plain) != SeverityError {
			t.Errorf("expected error severity for plain error")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Wrap keeps cause", func(t *testing.T) {
		originalErr := errors.New("connection refused")
		err := WrapError(originalErr, CategoryNetwork, "publish build report").
			Warning().
			Retryable().
			WithContext("subject", "docsite.builds").
			Build()

		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if !err.CanRetry() {
			t.Error("expected backoff error to be retryable")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		orig := RenderError("render page").WithContext("route", "/a").Build()
		derived := orig.WithContext("route", "/b")
		r1, _ := orig.Context().GetString("route")
		r2, _ := derived.Context().GetString("route")
		if r1 != "/a" || r2 != "/b" {
			t.Errorf("expected /a and /b, got %s and %s", r1, r2)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, RetryUserAction},
			{"NotFoundError", NotFoundError("x"), CategoryNotFound, SeverityError, RetryNever},
			{"ThemeError", ThemeError("x"), CategoryTheme, SeverityFatal, RetryNever},
			{"ContentError", ContentError("x"), CategoryContent, SeverityError, RetryUserAction},
			{"RenderError", RenderError("x"), CategoryRender, SeverityError, RetryNever},
			{"BuildError", BuildError("x"), CategoryBuild, SeverityFatal, RetryNever},
			{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError, RetryBackoff},
			{"NetworkError", NetworkError("x"), CategoryNetwork, SeverityError, RetryBackoff},
			{"GitError", GitError("x"), CategoryGit, SeverityWarning, RetryNever},
			{"StoreError", StoreError("x"), CategoryStore, SeverityError, RetryBackoff},
			{"RuntimeError", RuntimeError("x"), CategoryRuntime, SeverityFatal, RetryNever},
			{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContextMerge(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	shared, _ := merged.GetString("shared")
	if shared != "overridden" {
		t.Errorf("expected shared=overridden, got %s", shared)
	}
	if _, ok := merged.Get("key1"); !ok {
		t.Error("expected key1 to survive merge")
	}
	if _, ok := ErrorContext(nil).Get("missing"); ok {
		t.Error("nil context must report missing keys")
	}
}
