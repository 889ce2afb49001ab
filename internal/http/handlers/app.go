package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"listingvideo/internal/domain"
	"listingvideo/internal/infra"
	"listingvideo/internal/pipeline"
	"listingvideo/internal/providers/voiceover"
)

const maxRequestBody = 1 << 20

// ListingExtractor scrapes a listing page.
type ListingExtractor interface {
	Extract(ctx context.Context, rawURL string) (*domain.Listing, error)
}

// DescriptionGenerator writes promotional copy.
type DescriptionGenerator interface {
	Generate(ctx context.Context, opts domain.DescriptionOptions) (string, error)
}

// VoiceSynthesizer renders text to MPEG audio.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, opts domain.VoiceoverOptions) ([]byte, error)
}

// VideoCreator renders a slideshow video and returns its job id.
type VideoCreator interface {
	CreateVideo(ctx context.Context, req pipeline.Request) (domain.JobID, error)
}

// VideoResolver maps a raw job id onto a finished artifact.
type VideoResolver interface {
	Resolve(raw string) (string, error)
}

// Limits bounds what a video request may ask for.
type Limits struct {
	MaxSlideDuration float64
	MaxSlides        int
	MaxProxyBytes    int64
}

// App carries the collaborators shared by every handler.
type App struct {
	Extractor      ListingExtractor
	Describer      DescriptionGenerator
	Voices         VoiceSynthesizer
	Videos         VideoCreator
	Artifacts      VideoResolver
	ProxyClient    *http.Client
	Limits         Limits
	PublicBasePath string
	Logger         infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// decode reads a JSON body of bounded size into dst.
func (a *App) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidRequest
	}
	return nil
}

// fail maps err onto a status code and writes the error body.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, message := classify(err)
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &a.Logger
	}
	event := log.Warn()
	if code >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", code).Str("path", r.URL.Path).Msg("http: request failed")
	a.error(w, code, message)
}

func classify(err error) (int, string) {
	var statusErr *voiceover.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode >= 400:
		return statusErr.StatusCode, "failed to generate voiceover"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request cancelled"
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidJobID),
		errors.Is(err, domain.ErrInvalidListingURL):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "video not found"
	case errors.Is(err, domain.ErrAudioFetchFailed):
		return http.StatusBadGateway, "failed to fetch audio"
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, domain.ErrCompositionFailed), errors.Is(err, domain.ErrMuxFailed):
		return http.StatusInternalServerError, "failed to render video"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (a *App) videoURL(id domain.JobID) string {
	return strings.TrimRight(a.PublicBasePath, "/") + "/video/" + id.String()
}
