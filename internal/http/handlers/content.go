package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"listingvideo/internal/domain"
	"listingvideo/internal/middleware"
)

type descriptionRequest struct {
	Listing *domain.Listing `json:"listing"`
	Tone    string          `json:"tone"`
	Length  int             `json:"length"`
}

func (a *App) Description(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := a.decode(r, &req); err != nil || req.Listing == nil || strings.TrimSpace(req.Tone) == "" || req.Length <= 0 {
		a.error(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	text, err := a.Describer.Generate(r.Context(), domain.DescriptionOptions{
		Listing: *req.Listing,
		Tone:    strings.TrimSpace(req.Tone),
		Length:  req.Length,
		Locale:  middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"description": text})
}

func (a *App) Voiceover(w http.ResponseWriter, r *http.Request) {
	var req domain.VoiceoverOptions
	if err := a.decode(r, &req); err != nil || strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.VoiceID) == "" {
		a.error(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	audio, err := a.Voices.Synthesize(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
