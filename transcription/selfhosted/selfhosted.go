// Package selfhosted implements transcription.Provider against a whisper
// HTTP sidecar (faster-whisper or compatible).
//
// The sidecar accepts a multipart POST on /transcribe with an "audio" file
// part plus "model" and "language" fields, and answers with JSON
// {"text", "segments", "language"}. GET /health returns 200 when ready.
package selfhosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/httpclient"
	"github.com/nezhar/voicevault/transcription"
)

// ProviderName identifies this backend.
const ProviderName = transcription.ProviderSelfHosted

// Provider talks to a whisper sidecar.
type Provider struct {
	cfg    transcription.Config
	client *httpclient.Client
}

var _ transcription.Provider = (*Provider)(nil)

// New creates a sidecar client. cfg.Endpoint is the sidecar base URL.
func New(cfg transcription.Config) (*Provider, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.Endpoint, "/"),
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerAuth(cfg.APIKey),
	})
	if err != nil {
		return nil, fmt.Errorf("selfhosted client: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks the sidecar health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: "GET", Path: "/health"})
	return err == nil && resp.IsSuccess()
}

// Transcribe streams one chunk to the sidecar.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	fields := map[string]string{"model": p.cfg.Model}
	if lang != "" {
		fields["language"] = lang
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: "POST",
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio",
				FileName:    req.Filename,
				ContentType: req.MimeType,
				Reader:      req.Audio,
			}},
		},
	})
	if err != nil {
		return nil, p.classify(ctx, req, err)
	}

	var result sidecarResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, apperrors.ProviderInvalid(ProviderName, fmt.Errorf("decode sidecar response: %w", err))
	}
	return result.toResponse(), nil
}

func (p *Provider) classify(ctx context.Context, req transcription.Request, err error) error {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && httpErr.StatusCode > 0 {
		cause := fmt.Errorf("%w: %s", err, strings.TrimSpace(string(httpErr.Body)))
		return transcription.ClassifyStatus(httpErr.StatusCode, ProviderName, req.Size, cause)
	}
	return transcription.ClassifyTransport(ctx, ProviderName, err)
}

type sidecarResponse struct {
	Text     string           `json:"text"`
	Segments []sidecarSegment `json:"segments"`
	Language string           `json:"language"`
}

type sidecarSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *sidecarResponse) toResponse() *transcription.Response {
	segments := make([]transcription.Segment, len(r.Segments))
	for i, seg := range r.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}

	var duration float64
	if len(r.Segments) > 0 {
		duration = r.Segments[len(r.Segments)-1].End
	}

	return &transcription.Response{
		Text:     strings.TrimSpace(r.Text),
		Segments: segments,
		Duration: duration,
		Language: r.Language,
	}
}
