package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"listingvideo/internal/domain"
	"listingvideo/internal/pipeline"
)

type createVideoResponse struct {
	VideoURL string `json:"videoUrl"`
	JobID    string `json:"jobId"`
}

func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req domain.VideoOptions
	if err := a.decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if req.Listing == nil || strings.TrimSpace(req.AudioURL) == "" || req.TransitionStyle.Normalize() == "" || req.SlideDuration == nil {
		a.error(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	slideDuration := *req.SlideDuration
	if slideDuration <= 0 {
		a.error(w, http.StatusBadRequest, "slideDuration must be positive")
		return
	}
	if limit := a.Limits.MaxSlideDuration; limit > 0 && slideDuration > limit {
		a.error(w, http.StatusBadRequest, fmt.Sprintf("slideDuration must be at most %g seconds", limit))
		return
	}
	if limit := a.Limits.MaxSlides; limit > 0 && len(req.Listing.Images) > limit {
		a.error(w, http.StatusBadRequest, fmt.Sprintf("listing has %d images, at most %d are supported", len(req.Listing.Images), limit))
		return
	}

	id, err := a.Videos.CreateVideo(r.Context(), pipeline.Request{
		ImageURLs:       req.Listing.Images,
		AudioURL:        strings.TrimSpace(req.AudioURL),
		TransitionStyle: req.TransitionStyle,
		SlideDuration:   slideDuration,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, createVideoResponse{VideoURL: a.videoURL(id), JobID: id.String()})
}

// GetVideo streams a finished video. Range requests are honoured.
func (a *App) GetVideo(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "jobId")
	path, err := a.Artifacts.Resolve(raw)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="poshmark-video-%s.mp4"`, raw))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
