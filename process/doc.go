// Package process runs external tools (ffmpeg, ffprobe, yt-dlp) as
// subprocesses with captured output and process-group cancellation: a
// canceled context sends SIGTERM to the whole group and SIGKILL after a
// grace period.
package process
