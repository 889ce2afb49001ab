package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"listingvideo/internal/fetch"
	"listingvideo/internal/http/handlers"
	httpapi "listingvideo/internal/http/httpapi"
	"listingvideo/internal/infra"
	"listingvideo/internal/listing"
	"listingvideo/internal/media"
	"listingvideo/internal/pipeline"
	"listingvideo/internal/providers/description"
	"listingvideo/internal/providers/voiceover"
	"listingvideo/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load(".env", ".env.local")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	workRoot := cfg.WorkRoot
	if abs, err := filepath.Abs(workRoot); err == nil {
		workRoot = abs
	}
	store, err := storage.NewJobStore(workRoot, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure job store")
	}
	reaper, err := store.StartReaper(cfg.CleanupSchedule, cfg.ArtifactTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to start reaper")
	}

	upstream := &http.Client{Timeout: cfg.FetchTimeout}
	mediaOpts := media.Options{FFmpegPath: cfg.FFmpegPath, Logger: &logger}
	orchestrator, err := pipeline.NewOrchestrator(pipeline.Options{
		Fetcher: fetch.NewFetcher(fetch.Options{
			HTTPClient: upstream,
			Timeout:    cfg.FetchTimeout,
			MaxBytes:   cfg.MaxDownloadBytes,
			Logger:     &logger,
		}),
		Compositor:    media.NewCompositor(mediaOpts),
		Muxer:         media.NewMuxer(mediaOpts),
		Store:         store,
		EncodeTimeout: cfg.EncodeTimeout,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure pipeline")
	}

	voices := voiceover.NewClient(voiceover.Options{
		APIKey:  cfg.ElevenLabsAPIKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		Model:   cfg.ElevenLabsModel,
		Logger:  &logger,
	})
	if !voices.HasCredentials() {
		logger.Warn().Msg("api: ELEVENLABS_API_KEY missing, voiceover requests will fail")
	}
	describer := description.NewGenerator(description.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  &logger,
	})
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Str("model", describer.Model()).Msg("api: OPENAI_API_KEY missing, description requests will fail")
	}

	app := &handlers.App{
		Extractor: listing.NewExtractor(listing.Options{
			HTTPClient: upstream,
			Timeout:    cfg.FetchTimeout,
			Logger:     &logger,
		}),
		Describer:   describer,
		Voices:      voices,
		Videos:      orchestrator,
		Artifacts:   store,
		ProxyClient: upstream,
		Limits: handlers.Limits{
			MaxSlideDuration: cfg.MaxSlideDuration,
			MaxSlides:        cfg.MaxSlides,
			MaxProxyBytes:    cfg.MaxDownloadBytes,
		},
		PublicBasePath: cfg.PublicBasePath,
		Logger:         logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		VideoRatePerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("work_root", workRoot).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	reaper.Stop()
	logger.Info().Msg("api: server stopped")
}
