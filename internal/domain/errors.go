package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidJobID      = errors.New("invalid job id")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidListingURL = errors.New("invalid poshmark url")
	ErrProviderFailure   = errors.New("provider failure")
	ErrAlreadyRegistered = errors.New("artifact already registered")

	// ErrImageFetchFailed never leaves the asset fetcher; it is only logged
	// before a placeholder slide takes the image's place.
	ErrImageFetchFailed  = errors.New("image fetch failed")
	ErrAudioFetchFailed  = errors.New("audio fetch failed")
	ErrCompositionFailed = errors.New("composition failed")
	ErrMuxFailed         = errors.New("mux failed")
)
