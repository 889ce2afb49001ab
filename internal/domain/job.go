package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxJobIDLength = 64

// JobID is an opaque token naming one video job. A JobID value is always
// safe to use as a single path segment: it can only be obtained from
// NewJobID or ParseJobID.
type JobID struct {
	value string
}

// NewJobID returns a fresh, never reused identifier.
func NewJobID() JobID {
	return JobID{value: uuid.NewString()}
}

// ParseJobID validates untrusted input against the token alphabet
// [A-Za-z0-9_-]. Anything else, including path separators and dots, is
// rejected with ErrInvalidJobID.
func ParseJobID(raw string) (JobID, error) {
	if raw == "" || len(raw) > maxJobIDLength {
		return JobID{}, fmt.Errorf("%w: length must be 1-%d", ErrInvalidJobID, maxJobIDLength)
	}
	for _, r := range raw {
		if !isTokenRune(r) {
			return JobID{}, fmt.Errorf("%w: unexpected character %q", ErrInvalidJobID, r)
		}
	}
	return JobID{value: raw}, nil
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

func (id JobID) String() string { return id.value }

// IsZero reports whether id was never assigned.
func (id JobID) IsZero() bool { return id.value == "" }

// TransitionStyle is the caller-facing name of a slide transition.
type TransitionStyle string

const (
	TransitionFade     TransitionStyle = "fade"
	TransitionSlide    TransitionStyle = "slide"
	TransitionZoom     TransitionStyle = "zoom"
	TransitionDissolve TransitionStyle = "dissolve"
)

// Normalize lowercases and trims the style name. Unknown names are kept
// as-is; the compositor degrades them to a fade.
func (s TransitionStyle) Normalize() TransitionStyle {
	return TransitionStyle(strings.ToLower(strings.TrimSpace(string(s))))
}

// VideoOptions is the body of a video creation request.
type VideoOptions struct {
	Listing         *Listing        `json:"listing"`
	AudioURL        string          `json:"audioUrl"`
	TransitionStyle TransitionStyle `json:"transitionStyle"`
	SlideDuration   *float64        `json:"slideDuration"`
}
