// Package errors provides foundational, type-safe error primitives used across the miner.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, git, codec, io, internal)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff, rate_limit, user)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter for mapping classified errors to process exit codes
//
// Example usage:
//
//	err := errors.WrapError(originalErr, errors.CategoryGit, "patch computation failed").
//		WithSeverity(errors.SeverityError).
//		WithRetry(errors.RetryNever).
//		WithContext("commit", hash).
//		Build()
package errors
