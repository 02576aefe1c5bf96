// Package database opens the entry store's gorm connection pool.
//
// The driver is chosen by configuration: sqlite (pure Go, via
// github.com/glebarez/sqlite), postgres or mysql. Connections are retried
// with backoff, the pool is sized per driver, and gorm's own logging is
// routed through the worker logger with slow-query detection.
package database
