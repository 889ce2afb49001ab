package media

import (
	"context"
	"fmt"
	"strings"

	"listingvideo/internal/domain"
)

const (
	CanvasWidth        = 1920
	CanvasHeight       = 1080
	FrameRate          = 30
	TransitionDuration = 1.0
)

// Compositor renders an ordered list of still images into a silent
// slideshow with transitions between consecutive slides.
type Compositor struct {
	ff ffmpeg
}

// NewCompositor constructs a Compositor.
func NewCompositor(opts Options) *Compositor {
	return &Compositor{ff: newFFmpeg(opts)}
}

// Compose renders imagePaths, in order, into a video-only file at outPath.
// Each slide is on screen for slideDuration seconds before a one second
// transition into the next one. A failed render never leaves a file at
// outPath.
func (c *Compositor) Compose(ctx context.Context, imagePaths []string, style domain.TransitionStyle, slideDuration float64, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("%w: no slides", domain.ErrCompositionFailed)
	}
	if slideDuration <= 0 {
		return fmt.Errorf("%w: slide duration must be positive", domain.ErrCompositionFailed)
	}
	args := composeArgs(imagePaths, TransitionFor(style), slideDuration)
	return c.ff.run(ctx, "compose", args, outPath, domain.ErrCompositionFailed)
}

// SlideshowDuration returns the rendered length in seconds of n slides.
func SlideshowDuration(n int, slideDuration float64) float64 {
	if n <= 1 {
		return slideDuration
	}
	return float64(n)*slideDuration + float64(n-1)*transitionDuration(slideDuration)
}

func transitionDuration(slideDuration float64) float64 {
	return min(TransitionDuration, slideDuration)
}

// composeArgs builds the ffmpeg arguments, minus the output path.
func composeArgs(imagePaths []string, transition Transition, slideDuration float64) []string {
	n := len(imagePaths)
	fade := transitionDuration(slideDuration)

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for i, path := range imagePaths {
		args = append(args,
			"-loop", "1",
			"-framerate", fmt.Sprint(FrameRate),
			"-t", seconds(slideHold(i, n, slideDuration, fade)),
			"-i", path,
		)
	}

	args = append(args,
		"-filter_complex", filterGraph(n, transition, slideDuration, fade),
		"-map", "[vout]",
		"-an",
		"-c:v", "libx264",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprint(FrameRate),
		"-movflags", "+faststart",
		"-f", "mp4",
	)
	return args
}

// slideHold is how long input i must last: its own slideDuration plus the
// transitions into and out of it.
func slideHold(i, n int, slideDuration, fade float64) float64 {
	hold := slideDuration
	if i > 0 {
		hold += fade
	}
	if i < n-1 {
		hold += fade
	}
	return hold
}

// transitionOffset is when the transition into slide k starts, after k
// full slides and the k-1 transitions between them.
func transitionOffset(k int, slideDuration, fade float64) float64 {
	return float64(k)*slideDuration + float64(k-1)*fade
}

// filterGraph scales and pads every input onto the canvas, then chains
// xfade filters at transitionOffset.
func filterGraph(n int, transition Transition, slideDuration, fade float64) string {
	var parts []string
	for i := 0; i < n; i++ {
		out := fmt.Sprintf("s%d", i)
		if n == 1 {
			out = "vout"
		}
		parts = append(parts, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
				"pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1,fps=%d,format=yuv420p,settb=AVTB[%s]",
			i, CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight, FrameRate, out))
	}

	prev := "s0"
	for k := 1; k < n; k++ {
		out := fmt.Sprintf("x%d", k)
		if k == n-1 {
			out = "vout"
		}
		parts = append(parts, fmt.Sprintf("[%s][s%d]xfade=transition=%s:duration=%s:offset=%s[%s]",
			prev, k, transition, seconds(fade), seconds(transitionOffset(k, slideDuration, fade)), out))
		prev = out
	}
	return strings.Join(parts, ";")
}
