package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"listingvideo/internal/domain"
	"listingvideo/internal/fetch"
	"listingvideo/internal/infra"
)

const silentVideoName = "silent.mp4"

// Fetcher downloads the slide images and the narration into a work directory.
type Fetcher interface {
	Fetch(ctx context.Context, imageURLs []string, audioURL, workDir string) (*fetch.Assets, error)
}

// Compositor renders still images into a silent slideshow.
type Compositor interface {
	Compose(ctx context.Context, imagePaths []string, style domain.TransitionStyle, slideDuration float64, outPath string) error
}

// Muxer joins a silent video with an audio track.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outPath string) error
}

// Store owns job directories and published artifacts.
type Store interface {
	Create(id domain.JobID) (string, error)
	ArtifactPath(id domain.JobID) string
	Register(id domain.JobID, path string) error
	ReleaseWorkDir(id domain.JobID)
	Discard(id domain.JobID)
}

// Options wires the Orchestrator.
type Options struct {
	Fetcher       Fetcher
	Compositor    Compositor
	Muxer         Muxer
	Store         Store
	EncodeTimeout time.Duration
	Logger        *infra.Logger
}

// Request describes one video to render.
type Request struct {
	ImageURLs       []string
	AudioURL        string
	TransitionStyle domain.TransitionStyle
	SlideDuration   float64
}

// Orchestrator runs fetch, compose and mux for one job and publishes the
// result under a fresh job id.
type Orchestrator struct {
	fetcher       Fetcher
	compositor    Compositor
	muxer         Muxer
	store         Store
	encodeTimeout time.Duration
	logger        *infra.Logger
}

// NewOrchestrator validates opts and returns an Orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Fetcher == nil || opts.Compositor == nil || opts.Muxer == nil || opts.Store == nil {
		return nil, errors.New("pipeline: fetcher, compositor, muxer and store are required")
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	return &Orchestrator{
		fetcher:       opts.Fetcher,
		compositor:    opts.Compositor,
		muxer:         opts.Muxer,
		store:         opts.Store,
		encodeTimeout: opts.EncodeTimeout,
		logger:        logger,
	}, nil
}

// CreateVideo renders req synchronously. On success the returned id resolves
// to the finished video; on failure nothing is left behind for the job.
func (o *Orchestrator) CreateVideo(ctx context.Context, req Request) (domain.JobID, error) {
	if req.SlideDuration <= 0 {
		return domain.JobID{}, fmt.Errorf("%w: slide duration must be positive", domain.ErrInvalidRequest)
	}

	id := domain.NewJobID()
	log := o.logger.With().Str("job_id", id.String()).Logger()
	start := time.Now()

	if err := o.run(ctx, id, req, &log); err != nil {
		o.store.Discard(id)
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("pipeline: job failed")
		return domain.JobID{}, err
	}
	o.store.ReleaseWorkDir(id)
	log.Info().Dur("elapsed", time.Since(start)).Int("slides", max(len(req.ImageURLs), 1)).Msg("pipeline: job published")
	return id, nil
}

func (o *Orchestrator) run(ctx context.Context, id domain.JobID, req Request, log *infra.Logger) error {
	workDir, err := o.store.Create(id)
	if err != nil {
		return err
	}

	assets, err := o.fetcher.Fetch(ctx, req.ImageURLs, req.AudioURL, workDir)
	if err != nil {
		return err
	}
	if len(assets.Placeholders) > 0 {
		log.Warn().Ints("slots", assets.Placeholders).Msg("pipeline: placeholder slides substituted")
	}

	silent := filepath.Join(workDir, silentVideoName)
	composeCtx, cancel := o.stageContext(ctx)
	err = o.compositor.Compose(composeCtx, assets.ImagePaths, req.TransitionStyle, req.SlideDuration, silent)
	cancel()
	if err != nil {
		return err
	}

	final := o.store.ArtifactPath(id)
	muxCtx, cancel := o.stageContext(ctx)
	err = o.muxer.Mux(muxCtx, silent, assets.AudioPath, final)
	cancel()
	if err != nil {
		return err
	}
	return o.store.Register(id, final)
}

// stageContext bounds a single encoder stage by the encode timeout.
func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.encodeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.encodeTimeout)
}
