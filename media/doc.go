// Package media prepares audio for transcription.
//
// Normalizer turns any input ffmpeg can decode into canonical audio (mono,
// 16 kHz, 64 kbit/s CBR mp3) without changing its duration. Chunker then
// cuts canonical audio into equal-length pieces that each fit one
// transcription request. Both run ffmpeg and ffprobe through a
// process.Runner.
package media
