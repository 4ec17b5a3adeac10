// Package errors provides the classified error primitives shared across docsite.
//
// A ClassifiedError carries a category (what failed), a severity (how bad it is),
// a retry strategy and structured context. Errors are built through the fluent
// ErrorBuilder and presented through the CLI and HTTP adapters.
//
//	err := errors.WrapError(cause, errors.CategoryRender, "render page").
//		WithContext("route", "/guide/setup").
//		Build()
package errors
