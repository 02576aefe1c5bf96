package worker

import (
	"fmt"
	"strings"

	"github.com/nezhar/voicevault/entry"
)

// Mode selects which stage a worker process runs.
type Mode string

const (
	ModeDownload   Mode = "download"
	ModeTranscribe Mode = "transcribe"
)

// ParseMode parses a mode name. "asr" is accepted for transcribe.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "download":
		return ModeDownload, nil
	case "transcribe", "asr":
		return ModeTranscribe, nil
	default:
		return "", fmt.Errorf("unknown worker mode %q (want download or transcribe)", s)
	}
}

func (m Mode) String() string { return string(m) }

// claim returns the eligibility predicate of the mode.
func (m Mode) claim(owner string, cfg Config) entry.ClaimRequest {
	req := entry.ClaimRequest{
		Owner:       owner,
		Lease:       cfg.LeaseTTL,
		MaxAttempts: cfg.MaxAttempts,
	}
	switch m {
	case ModeDownload:
		req.Eligible = entry.StatusNew
		req.SourceType = entry.SourceURL
	case ModeTranscribe:
		req.Eligible = entry.StatusInProgress
	}
	return req
}
