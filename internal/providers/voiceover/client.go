package voiceover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"listingvideo/internal/domain"
	"listingvideo/internal/infra"
)

const (
	defaultBaseURL  = "https://api.elevenlabs.io/v1"
	defaultModel    = "eleven_monolingual_v1"
	defaultTimeout  = 60 * time.Second
	maxAudioBytes   = 25 << 20
	errorBodyLimit  = 4 << 10
	voiceStability  = 0.5
	voiceSimilarity = 0.5
)

// Options configures the ElevenLabs text-to-speech client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls to the ElevenLabs text-to-speech API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// StatusError is returned when the TTS API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("voiceover: elevenlabs status %d", e.StatusCode)
	}
	return fmt.Sprintf("voiceover: elevenlabs status %d: %s", e.StatusCode, e.Detail)
}

func (e *StatusError) Unwrap() error { return domain.ErrProviderFailure }

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Synthesize renders opts.Text with the given voice and returns MPEG audio.
func (c *Client) Synthesize(ctx context.Context, opts domain.VoiceoverOptions) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("%w: voiceover: ELEVENLABS_API_KEY is not configured", domain.ErrProviderFailure)
	}
	text := strings.TrimSpace(opts.Text)
	voiceID := strings.TrimSpace(opts.VoiceID)
	if text == "" || voiceID == "" {
		return nil, fmt.Errorf("%w: text and voiceId are required", domain.ErrInvalidRequest)
	}

	payload := synthesisRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       voiceStability,
			SimilarityBoost: voiceSimilarity,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("voiceover: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("voiceover: build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: voiceover: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		c.logger.Warn().Int("status", resp.StatusCode).Str("voice_id", voiceID).Msg("voiceover: upstream rejected request")
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: voiceover: read audio: %v", domain.ErrProviderFailure, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: voiceover: empty audio", domain.ErrProviderFailure)
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("%w: voiceover: audio exceeds %d bytes", domain.ErrProviderFailure, maxAudioBytes)
	}
	c.logger.Debug().Str("voice_id", voiceID).Int("bytes", len(audio)).Dur("elapsed", time.Since(start)).Msg("voiceover: synthesized")
	return audio, nil
}
