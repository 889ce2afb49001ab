package media

import (
	"context"
	"fmt"

	"listingvideo/internal/domain"
)

// Muxer joins a silent slideshow with its voiceover track.
type Muxer struct {
	ff ffmpeg
}

// NewMuxer constructs a Muxer.
func NewMuxer(opts Options) *Muxer {
	return &Muxer{ff: newFFmpeg(opts)}
}

// Mux copies the video stream unchanged, transcodes the audio to AAC and
// stops at the end of the shorter input. A failed mux never leaves a file at
// outPath.
func (m *Muxer) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	if videoPath == "" || audioPath == "" {
		return fmt.Errorf("%w: video and audio paths are required", domain.ErrMuxFailed)
	}
	return m.ff.run(ctx, "mux", muxArgs(videoPath, audioPath), outPath, domain.ErrMuxFailed)
}

func muxArgs(videoPath, audioPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		"-f", "mp4",
	}
}
