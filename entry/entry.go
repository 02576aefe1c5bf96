package entry

import (
	"time"

	"github.com/google/uuid"

	"github.com/nezhar/voicevault/validation"
)

// Status is the processing state of an entry.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusComplete   Status = "COMPLETE"
	StatusError      Status = "ERROR"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusReady, StatusComplete, StatusError}

// IsTerminal reports whether no worker transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// HasTranscript reports whether entries in s carry a transcript.
func (s Status) HasTranscript() bool {
	return s == StatusReady || s == StatusComplete
}

// SourceType tells how the media reached the system.
type SourceType string

const (
	SourceUpload SourceType = "upload"
	SourceURL    SourceType = "url"
)

// Entry is one media item moving through transcription.
type Entry struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	SourceType SourceType `gorm:"size:16;not null;index:idx_entries_claim,priority:2" json:"source_type"`
	SourceURL  *string    `gorm:"size:1024" json:"source_url,omitempty"`
	FilePath   *string    `gorm:"size:512" json:"file_path,omitempty"`
	Filename   *string    `gorm:"size:255" json:"filename,omitempty"`
	Status     Status     `gorm:"size:16;not null;index:idx_entries_claim,priority:1" json:"status"`

	Transcript   *string `gorm:"type:text" json:"transcript,omitempty"`
	Summary      *string `gorm:"type:text" json:"summary,omitempty"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	LeaseOwner     *string    `gorm:"size:128" json:"-"`
	LeaseExpiresAt *time.Time `json:"-"`
	Attempts       int        `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name across drivers.
func (Entry) TableName() string { return "entries" }

// NewUpload creates an entry for a file already stored under key. Uploads
// skip the download stage.
func NewUpload(title, filename, key string) *Entry {
	return &Entry{
		ID:         uuid.NewString(),
		Title:      title,
		SourceType: SourceUpload,
		FilePath:   &key,
		Filename:   &filename,
		Status:     StatusInProgress,
	}
}

// NewURL creates an entry that a download worker will fetch.
func NewURL(title, url string) *Entry {
	return &Entry{
		ID:         uuid.NewString(),
		Title:      title,
		SourceType: SourceURL,
		SourceURL:  &url,
		Status:     StatusNew,
	}
}

// Validate checks field constraints and the status invariants.
func (e *Entry) Validate() error {
	statuses := make([]string, len(Statuses))
	for i, s := range Statuses {
		statuses[i] = string(s)
	}

	return validation.New().
		RequiredUUID("id", e.ID).
		MaxLength("title", e.Title, 255).
		OneOf("source_type", string(e.SourceType), []string{string(SourceUpload), string(SourceURL)}).
		OneOf("status", string(e.Status), statuses).
		Custom((e.SourceType == SourceURL) == (e.SourceURL != nil && *e.SourceURL != ""),
			"source_url", "must be set exactly for url entries").
		Custom(e.SourceType != SourceUpload || e.FilePath != nil,
			"file_path", "is required for uploads").
		Custom(e.Status.HasTranscript() == (e.Transcript != nil),
			"transcript", "must be set exactly when status is READY or COMPLETE").
		Custom((e.Status == StatusError) == (e.ErrorMessage != nil),
			"error_message", "must be set exactly when status is ERROR").
		Validate()
}

// Str returns the value behind p, or "" when p is nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
