// Package component defines the lifecycle interface shared by every
// long-lived part of the worker process and a registry that starts them in
// order and stops them in reverse.
//
// Background wraps a blocking run function, such as a poll loop, as a
// Component.
package component
