package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"listingvideo/internal/domain"
	"listingvideo/internal/infra"
)

// AudioFileName is the fixed name the downloaded voiceover is stored under.
const AudioFileName = "audio.mp3"

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 50 << 20
)

// ImageFileName returns the deterministic name of slide i inside a work dir.
func ImageFileName(i int) string {
	return fmt.Sprintf("image_%d.jpg", i)
}

// Options configures a Fetcher.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	Logger     *infra.Logger
}

// Fetcher downloads a job's slide images and audio track into its work dir.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *infra.Logger
}

// Assets lists the files a fetch produced, in slide order.
type Assets struct {
	ImagePaths []string
	AudioPath  string
	// Placeholders holds the indices of slides that were synthesized
	// because their download failed.
	Placeholders []int
}

// NewFetcher constructs a Fetcher with defaults for any unset option.
func NewFetcher(opts Options) *Fetcher {
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
	return &Fetcher{client: client, timeout: timeout, maxBytes: maxBytes, logger: logger}
}

// Fetch downloads every image and the audio track concurrently. A failed
// image is replaced by a placeholder slide at the same index; a failed audio
// download aborts the whole fetch with domain.ErrAudioFetchFailed. An empty
// image list yields a single placeholder slide.
func (f *Fetcher) Fetch(ctx context.Context, imageURLs []string, audioURL, workDir string) (*Assets, error) {
	urls := imageURLs
	if len(urls) == 0 {
		urls = []string{""}
	}

	paths := make([]string, len(urls))
	substituted := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, imageURL := range urls {
		g.Go(func() error {
			path := filepath.Join(workDir, ImageFileName(i))
			if err := f.download(gctx, imageURL, path); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if gctx.Err() != nil {
					// a sibling already failed the fetch
					return nil
				}
				f.logger.Warn().
					Err(fmt.Errorf("%w: %v", domain.ErrImageFetchFailed, err)).
					Int("index", i).
					Str("url", imageURL).
					Msg("fetch: substituting placeholder slide")
				if err := writePlaceholder(path); err != nil {
					return fmt.Errorf("fetch: write placeholder %d: %w", i, err)
				}
				substituted[i] = true
			}
			paths[i] = path
			return nil
		})
	}

	audioPath := filepath.Join(workDir, AudioFileName)
	g.Go(func() error {
		if err := f.download(gctx, audioURL, audioPath); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", domain.ErrAudioFetchFailed, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	assets := &Assets{ImagePaths: paths, AudioPath: audioPath}
	for i, ok := range substituted {
		if ok {
			assets.Placeholders = append(assets.Placeholders, i)
		}
	}
	return assets, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("empty url")
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := NewBrowserRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	part := dest + ".part"
	file, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	n, copyErr := io.Copy(file, io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("read body: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case n == 0:
		err = errors.New("empty body")
	case n > f.maxBytes:
		err = fmt.Errorf("body exceeds %d bytes", f.maxBytes)
	}
	if err != nil {
		_ = os.Remove(part)
		return err
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
