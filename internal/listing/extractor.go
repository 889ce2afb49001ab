package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"listingvideo/internal/domain"
	"listingvideo/internal/fetch"
	"listingvideo/internal/infra"
)

const (
	defaultTitle       = "Poshmark Listing"
	defaultPrice       = "0.00"
	defaultDescription = "No description available"

	defaultTimeout  = 20 * time.Second
	defaultMaxBytes = 5 << 20
)

// Options configures an Extractor.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	Logger     *infra.Logger
}

// Extractor scrapes Poshmark listing pages into domain.Listing records.
type Extractor struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *infra.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(opts Options) *Extractor {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	return &Extractor{client: client, timeout: timeout, maxBytes: maxBytes, logger: logger}
}

// ValidateURL accepts absolute http(s) URLs on poshmark.com or one of its
// subdomains.
func ValidateURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.ErrInvalidListingURL
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "poshmark.com" && !strings.HasSuffix(host, ".poshmark.com") {
		return nil, domain.ErrInvalidListingURL
	}
	return parsed, nil
}

// Extract downloads the listing page at rawURL and parses it.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*domain.Listing, error) {
	pageURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := fetch.NewBrowserRequest(ctx, pageURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidListingURL, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing: fetch page: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: listing page returned status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	listing, err := Parse(pageURL, io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Str("listing_id", listing.ID).Int("images", len(listing.Images)).Msg("listing: extracted")
	return listing, nil
}

// Parse reads a listing page. Missing title, price and description fall
// back to fixed defaults; missing images and attributes yield empty values.
func Parse(pageURL *url.URL, r io.Reader) (*domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("listing: parse html: %w", err)
	}

	listing := &domain.Listing{
		ID:          listingID(pageURL),
		URL:         pageURL.String(),
		Title:       orDefault(text(doc.Find(".listing-title")), defaultTitle),
		Price:       orDefault(strings.TrimSpace(strings.Replace(text(doc.Find(".listing-price")), "$", "", 1)), defaultPrice),
		Description: orDefault(text(doc.Find(".listing-description")), defaultDescription),
		Brand:       text(doc.Find(".listing-brand")),
		Size:        text(doc.Find(".listing-size")),
		Condition:   text(doc.Find(".listing-condition")),
		Category:    text(doc.Find(".listing-category")),
		Images:      []string{},
		Attributes:  map[string]string{},
	}

	doc.Find(".listing-image-container img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}
		ref, err := url.Parse(strings.Replace(src, "_thumbnail", "", 1))
		if err != nil {
			return
		}
		listing.Images = append(listing.Images, pageURL.ResolveReference(ref).String())
	})

	doc.Find(".listing-attributes .attribute").Each(func(_ int, attr *goquery.Selection) {
		key := text(attr.Find(".attribute-name"))
		value := text(attr.Find(".attribute-value"))
		if key != "" && value != "" {
			listing.Attributes[key] = value
		}
	})
	return listing, nil
}

// listingID is the last non-empty path segment of the listing URL.
func listingID(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	return uuid.NewString()[:8]
}

// text collapses runs of whitespace and normalizes to NFC.
func text(sel *goquery.Selection) string {
	return norm.NFC.String(strings.Join(strings.Fields(sel.Text()), " "))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
