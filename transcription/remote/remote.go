// Package remote implements transcription.Provider against an
// OpenAI-compatible audio transcription API. Groq is the default endpoint.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/transcription"
)

// ProviderName identifies this backend.
const ProviderName = transcription.ProviderRemote

// Provider calls the hosted transcription endpoint.
type Provider struct {
	cfg    transcription.Config
	client *openai.Client
}

var _ transcription.Provider = (*Provider)(nil)

// New creates a client for cfg.Endpoint authenticated with cfg.APIKey.
func New(cfg transcription.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.InvalidInput("api_key", "an API key is required for the remote provider")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Provider{cfg: cfg, client: openai.NewClientWithConfig(oc)}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable lists models, which verifies reachability and credentials.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Transcribe uploads one chunk and returns the recognized text.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: req.Filename,
		Reader:   req.Audio,
		Language: lang,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, classify(ctx, req, err)
	}

	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return &transcription.Response{
		Text:     strings.TrimSpace(resp.Text),
		Segments: segments,
		Duration: resp.Duration,
		Language: resp.Language,
	}, nil
}

func classify(ctx context.Context, req transcription.Request, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return transcription.ClassifyStatus(apiErr.HTTPStatusCode, ProviderName, req.Size, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return transcription.ClassifyStatus(reqErr.HTTPStatusCode, ProviderName, req.Size, err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.ProviderInvalid(ProviderName, fmt.Errorf("decode response: %w", err))
	}
	return transcription.ClassifyTransport(ctx, ProviderName, err)
}
