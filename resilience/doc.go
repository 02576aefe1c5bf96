// Package resilience holds the failure-handling primitives shared by the
// worker: bounded retries for infrastructure calls, a circuit breaker that
// gates claiming while the transcription provider is down, and a token bucket
// that keeps the worker under the provider's request quota.
//
// None of these retry a job stage. A stage that fails marks its entry ERROR;
// retry here only covers connecting to and writing to the entry store.
package resilience
