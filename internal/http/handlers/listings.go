package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"listingvideo/internal/fetch"
)

const (
	defaultProxyBytes = 10 << 20
	errProxyTooLarge  = "upstream response too large"
)

type extractRequest struct {
	URL string `json:"url"`
}

func (a *App) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := a.decode(r, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "URL is required")
		return
	}
	listing, err := a.Extractor.Extract(r.Context(), req.URL)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, listing)
}

// Proxy fetches url with browser headers and relays the upstream body.
func (a *App) Proxy(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		a.error(w, http.StatusBadRequest, "URL parameter is required")
		return
	}
	req, err := fetch.NewBrowserRequest(r.Context(), target)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	client := a.ProxyClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.error(w, resp.StatusCode, fmt.Sprintf("Failed to fetch: %s", http.StatusText(resp.StatusCode)))
		return
	}

	limit := a.Limits.MaxProxyBytes
	if limit <= 0 {
		limit = defaultProxyBytes
	}
	if resp.ContentLength > limit {
		a.error(w, http.StatusBadGateway, errProxyTooLarge)
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		a.error(w, http.StatusBadGateway, "failed to read upstream response")
		return
	}
	if int64(len(body)) > limit {
		a.error(w, http.StatusBadGateway, errProxyTooLarge)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
