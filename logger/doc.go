// Package logger provides structured logging for the VoiceVault worker
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped child loggers carrying entry and stage fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("worker").WithEntry(id)
//	log.Info("transcript stored", logger.Fields("chunks", 2))
package logger
