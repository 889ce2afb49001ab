package voiceover

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"listingvideo/internal/domain"
)

func TestSynthesizeSendsElevenLabsRequest(t *testing.T) {
	var (
		gotPath, gotKey, gotAccept string
		gotBody                    synthesisRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotAccept = r.Header.Get("Accept")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "xi-test", BaseURL: srv.URL + "/v1/"})
	audio, err := client.Synthesize(context.Background(), domain.VoiceoverOptions{Text: "Hello there", VoiceID: "21m00Tcm4TlvDq8ikWAM"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Fatalf("audio = %q", audio)
	}
	if gotPath != "/v1/text-to-speech/21m00Tcm4TlvDq8ikWAM" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "xi-test" {
		t.Fatalf("xi-api-key = %q", gotKey)
	}
	if gotAccept != "audio/mpeg" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	if gotBody.Text != "Hello there" || gotBody.ModelID != defaultModel {
		t.Fatalf("body = %+v", gotBody)
	}
	if gotBody.VoiceSettings.Stability != 0.5 || gotBody.VoiceSettings.SimilarityBoost != 0.5 {
		t.Fatalf("voice settings = %+v", gotBody.VoiceSettings)
	}
}

func TestSynthesizeRelaysUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":{"status":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "bad", BaseURL: srv.URL})
	_, err := client.Synthesize(context.Background(), domain.VoiceoverOptions{Text: "Hi", VoiceID: "v1"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", statusErr.StatusCode)
	}
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("StatusError should match ErrProviderFailure")
	}
}

func TestSynthesizeWithoutKey(t *testing.T) {
	client := NewClient(Options{})
	if client.HasCredentials() {
		t.Fatalf("expected no credentials")
	}
	_, err := client.Synthesize(context.Background(), domain.VoiceoverOptions{Text: "Hi", VoiceID: "v1"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}

func TestSynthesizeValidatesInput(t *testing.T) {
	client := NewClient(Options{APIKey: "k"})
	_, err := client.Synthesize(context.Background(), domain.VoiceoverOptions{Text: "  ", VoiceID: "v1"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Synthesize(context.Background(), domain.VoiceoverOptions{Text: "Hi", VoiceID: "v1"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}
