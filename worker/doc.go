// Package worker runs the background processing loop.
//
// A Loop runs in exactly one Mode. Download workers claim NEW url entries,
// fetch the media into the blob store and hand the entry on as
// IN_PROGRESS. Transcribe workers claim IN_PROGRESS entries, normalize and
// chunk the audio, transcribe every chunk and store the transcript as
// READY. Any failure moves the entry to ERROR with a short message; stages
// are never retried and partial transcripts are never stored.
//
// Claims are leases renewed by a heartbeat while the job runs. A worker
// that dies leaves its lease to expire, and the entry is claimed again.
// The Reaper moves entries that keep getting interrupted to ERROR.
package worker
