package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"listingvideo/internal/infra"
)

// Options configures the ffmpeg-backed stages.
type Options struct {
	FFmpegPath string
	Runner     CommandRunner
	Logger     *infra.Logger
}

// ffmpeg runs one encoder invocation per call and publishes its output
// atomically: the process writes to a sibling ".part" file which is renamed
// onto the target only after a clean exit.
type ffmpeg struct {
	cmd    string
	runner CommandRunner
	logger *infra.Logger
}

func newFFmpeg(opts Options) ffmpeg {
	cmd := strings.TrimSpace(opts.FFmpegPath)
	if cmd == "" {
		cmd = "ffmpeg"
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.DiscardLogger()
		logger = &l
	}
	return ffmpeg{cmd: cmd, runner: runner, logger: logger}
}

// run invokes ffmpeg with args followed by the temporary output path. On
// failure the partial output is removed and failure wraps the cause.
func (ff ffmpeg) run(ctx context.Context, stage string, args []string, outPath string, failure error) error {
	part := outPath + ".part"
	_ = os.Remove(part)

	start := time.Now()
	ff.logger.Debug().Str("stage", stage).Strs("args", args).Msg("media: invoking ffmpeg")
	result, err := ff.runner.Run(ctx, ff.cmd, append(args, part)...)
	if err == nil {
		if _, statErr := os.Stat(part); statErr != nil {
			err = fmt.Errorf("no output written: %w", statErr)
		}
	}
	if err != nil {
		_ = os.Remove(part)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", failure, ctxErr)
		}
		return fmt.Errorf("%w: %s", failure, describeFailure(result, err))
	}
	if err := os.Rename(part, outPath); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("%w: publish output: %v", failure, err)
	}
	ff.logger.Info().Str("stage", stage).Dur("elapsed", time.Since(start)).Str("output", outPath).Msg("media: ffmpeg finished")
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
