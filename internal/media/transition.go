package media

import "listingvideo/internal/domain"

// Transition is an ffmpeg xfade transition name.
type Transition string

const (
	TransitionFade      Transition = "fade"
	TransitionSlideLeft Transition = "slideleft"
	TransitionZoomIn    Transition = "zoomin"
	TransitionDissolve  Transition = "dissolve"
)

// TransitionFor maps a caller-facing style onto an xfade transition.
// Unknown styles fall back to a fade; there is no error path.
func TransitionFor(style domain.TransitionStyle) Transition {
	switch style.Normalize() {
	case domain.TransitionSlide:
		return TransitionSlideLeft
	case domain.TransitionZoom:
		return TransitionZoomIn
	case domain.TransitionDissolve:
		return TransitionDissolve
	default:
		return TransitionFade
	}
}
