// Package fetcher downloads the media behind a URL entry into a local
// directory.
//
// Platform links (YouTube, Vimeo, SoundCloud and configured extras) go
// through yt-dlp; links that point straight at an audio or video file are
// downloaded over HTTP. Every failure is an *errors.AppError with one of the
// FETCH_* codes and a message that can be shown to the user as is.
package fetcher
