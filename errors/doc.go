// Package errors provides the structured error type shared by every stage of
// the worker. An AppError carries a machine-readable code, a short message
// that is safe to show to users, and the underlying cause which is only ever
// logged.
package errors
