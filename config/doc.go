// Package config loads service configuration from a YAML file, an optional
// .env file and prefixed environment variables.
//
// # Usage
//
//	var cfg workerConfig
//	err := config.LoadConfig("voicevault-worker", &cfg, config.WithEnvPrefix("VOICEVAULT"))
//
// With the VOICEVAULT prefix, VOICEVAULT_WORKER_POLL_INTERVAL overrides
// worker.poll_interval from the file.
package config
