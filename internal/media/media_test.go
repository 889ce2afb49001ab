package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingvideo/internal/domain"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations. Unless told to fail it writes a file at the
// last argument, which is where ffmpeg would put its output.
type fakeRunner struct {
	calls        []call
	err          error
	stderr       string
	skipOutput   bool
	writePartial bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if err := ctx.Err(); err != nil {
		return CommandResult{ExitCode: -1}, err
	}
	out := args[len(args)-1]
	if f.err != nil {
		if f.writePartial {
			_ = os.WriteFile(out, []byte("partial"), 0o644)
		}
		return CommandResult{Stderr: f.stderr, ExitCode: 1}, f.err
	}
	if !f.skipOutput {
		_ = os.WriteFile(out, []byte("video"), 0o644)
	}
	return CommandResult{}, nil
}

func argValues(args []string, flag string) []string {
	var out []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

func TestTransitionFor(t *testing.T) {
	tests := []struct {
		style domain.TransitionStyle
		want  Transition
	}{
		{"fade", TransitionFade},
		{"slide", TransitionSlideLeft},
		{"zoom", TransitionZoomIn},
		{"dissolve", TransitionDissolve},
		{" Dissolve ", TransitionDissolve},
		{"unknown-value", TransitionFade},
		{"", TransitionFade},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TransitionFor(tc.style), "style %q", tc.style)
	}
}

func TestComposeArgsKeepInputOrder(t *testing.T) {
	paths := []string{"/w/image_0.jpg", "/w/image_1.jpg", "/w/image_2.jpg", "/w/image_3.jpg"}
	args := composeArgs(paths, TransitionFade, 3)

	assert.Equal(t, paths, argValues(args, "-i"))
	assert.Equal(t, []string{"4", "5", "5", "4"}, argValues(args, "-t"))
	assert.Equal(t, []string{"[vout]"}, argValues(args, "-map"))
	assert.Contains(t, args, "-an")
}

func TestComposeSlideScenario(t *testing.T) {
	args := composeArgs([]string{"a.jpg", "b.jpg"}, TransitionFor("slide"), 5)

	graph := argValues(args, "-filter_complex")
	require.Len(t, graph, 1)
	assert.Contains(t, graph[0], "[0:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2")
	assert.Contains(t, graph[0], "[s0][s1]xfade=transition=slideleft:duration=1:offset=5[vout]")
	assert.Equal(t, []string{"6", "6"}, argValues(args, "-t"))
	assert.Equal(t, []string{"30", "30"}, argValues(args, "-framerate"))
	assert.Equal(t, 11.0, SlideshowDuration(2, 5))
}

func TestFilterGraphChainsOffsets(t *testing.T) {
	graph := filterGraph(3, TransitionDissolve, 2.5, 1)

	assert.Contains(t, graph, "[s0][s1]xfade=transition=dissolve:duration=1:offset=2.5[x1]")
	assert.Contains(t, graph, "[x1][s2]xfade=transition=dissolve:duration=1:offset=6[vout]")
	assert.Equal(t, 1, strings.Count(graph, "[vout]"))
}

var xfadeOffset = regexp.MustCompile(`xfade=transition=\w+:duration=([0-9.]+):offset=([0-9.]+)`)

// Every slide must stay fully on screen for slideDuration, with each
// input lasting long enough to cover its transitions.
func TestEverySlideGetsFullScreenTime(t *testing.T) {
	for _, tc := range []struct {
		n int
		d float64
	}{{3, 5}, {4, 3}, {5, 2.5}, {3, 0.5}} {
		paths := make([]string, tc.n)
		for i := range paths {
			paths[i] = fmt.Sprintf("image_%d.jpg", i)
		}
		args := composeArgs(paths, TransitionFade, tc.d)
		graph := argValues(args, "-filter_complex")[0]
		holds := argValues(args, "-t")
		require.Len(t, holds, tc.n)

		matches := xfadeOffset.FindAllStringSubmatch(graph, -1)
		require.Len(t, matches, tc.n-1)
		var fades, offsets []float64
		for _, m := range matches {
			fade, err := strconv.ParseFloat(m[1], 64)
			require.NoError(t, err)
			offset, err := strconv.ParseFloat(m[2], 64)
			require.NoError(t, err)
			fades = append(fades, fade)
			offsets = append(offsets, offset)
		}

		// Slide i starts once the transition into it ends and stays until
		// the transition out of it begins.
		for i := 0; i < tc.n; i++ {
			start := 0.0
			if i > 0 {
				start = offsets[i-1] + fades[i-1]
			}
			end := SlideshowDuration(tc.n, tc.d)
			if i < tc.n-1 {
				end = offsets[i]
			}
			assert.InDelta(t, tc.d, end-start, 1e-9, "n=%d d=%g slide %d", tc.n, tc.d, i)

			hold, err := strconv.ParseFloat(holds[i], 64)
			require.NoError(t, err)
			inputStart := 0.0
			if i > 0 {
				inputStart = offsets[i-1]
			}
			inputEnd := SlideshowDuration(tc.n, tc.d)
			if i < tc.n-1 {
				inputEnd = offsets[i] + fades[i]
			}
			assert.InDelta(t, inputEnd-inputStart, hold, 1e-9, "n=%d d=%g input %d", tc.n, tc.d, i)
		}
	}
}

func TestFilterGraphSingleSlide(t *testing.T) {
	args := composeArgs([]string{"only.jpg"}, TransitionFade, 4)
	graph := argValues(args, "-filter_complex")[0]

	assert.NotContains(t, graph, "xfade")
	assert.True(t, strings.HasSuffix(graph, "[vout]"))
	assert.Equal(t, []string{"4"}, argValues(args, "-t"))
	assert.Equal(t, 4.0, SlideshowDuration(1, 4))
}

func TestShortSlidesClampTransition(t *testing.T) {
	graph := filterGraph(2, TransitionFade, 0.5, transitionDuration(0.5))
	assert.Contains(t, graph, "duration=0.5:offset=0.5")
}

func TestComposePublishesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "silent.mp4")
	runner := &fakeRunner{}
	c := NewCompositor(Options{FFmpegPath: "/opt/ffmpeg", Runner: runner})

	err := c.Compose(context.Background(), []string{"a.jpg", "b.jpg"}, "zoom", 5, out)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/opt/ffmpeg", runner.calls[0].name)
	assert.Equal(t, out+".part", runner.calls[0].args[len(runner.calls[0].args)-1])
	assert.FileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestComposeFailureLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "silent.mp4")
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "Invalid data found", writePartial: true}
	c := NewCompositor(Options{Runner: runner})

	err := c.Compose(context.Background(), []string{"a.jpg"}, "fade", 5, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCompositionFailed))
	assert.Contains(t, err.Error(), "Invalid data found")
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestComposeRequiresOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "silent.mp4")
	c := NewCompositor(Options{Runner: &fakeRunner{skipOutput: true}})

	err := c.Compose(context.Background(), []string{"a.jpg"}, "fade", 5, out)
	assert.True(t, errors.Is(err, domain.ErrCompositionFailed))
}

func TestComposeRejectsInvalidInput(t *testing.T) {
	runner := &fakeRunner{}
	c := NewCompositor(Options{Runner: runner})
	out := filepath.Join(t.TempDir(), "silent.mp4")

	assert.True(t, errors.Is(c.Compose(context.Background(), nil, "fade", 5, out), domain.ErrCompositionFailed))
	assert.True(t, errors.Is(c.Compose(context.Background(), []string{"a.jpg"}, "fade", 0, out), domain.ErrCompositionFailed))
	assert.Empty(t, runner.calls)
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCompositor(Options{Runner: &fakeRunner{}})

	err := c.Compose(ctx, []string{"a.jpg"}, "fade", 5, filepath.Join(t.TempDir(), "silent.mp4"))
	assert.True(t, errors.Is(err, domain.ErrCompositionFailed))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMuxArgs(t *testing.T) {
	args := muxArgs("silent.mp4", "audio.mp3")

	assert.Equal(t, []string{"silent.mp4", "audio.mp3"}, argValues(args, "-i"))
	assert.Equal(t, []string{"copy"}, argValues(args, "-c:v"))
	assert.Equal(t, []string{"aac"}, argValues(args, "-c:a"))
	assert.Contains(t, args, "-shortest")
}

func TestMuxFailureLeavesNoArtifact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "final_output.mp4")
	m := NewMuxer(Options{Runner: &fakeRunner{err: errors.New("exit status 1"), writePartial: true}})

	err := m.Mux(context.Background(), "silent.mp4", "audio.mp3", out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMuxFailed))
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestMuxPublishesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "final_output.mp4")
	m := NewMuxer(Options{Runner: &fakeRunner{}})

	require.NoError(t, m.Mux(context.Background(), "silent.mp4", "audio.mp3", out))
	assert.FileExists(t, out)
}

// writeFakeFFmpeg installs a shell script that behaves like ffmpeg as far as
// the stages care: it writes its last argument and exits with code.
func writeFakeFFmpeg(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\necho rendered > \"$last\"\n"
	if code != 0 {
		script += "echo 'Error while filtering' >&2\n"
	}
	script += "exit " + string(rune('0'+code)) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExecRunnerWithFakeFFmpeg(t *testing.T) {
	dir := t.TempDir()

	ok := NewCompositor(Options{FFmpegPath: writeFakeFFmpeg(t, 0)})
	out := filepath.Join(dir, "silent.mp4")
	require.NoError(t, ok.Compose(context.Background(), []string{"a.jpg", "b.jpg"}, "slide", 5, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "rendered\n", string(data))

	failing := NewMuxer(Options{FFmpegPath: writeFakeFFmpeg(t, 1)})
	final := filepath.Join(dir, "final_output.mp4")
	err = failing.Mux(context.Background(), out, "audio.mp3", final)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMuxFailed))
	assert.Contains(t, err.Error(), "exit=1")
	assert.Contains(t, err.Error(), "Error while filtering")
	assert.NoFileExists(t, final)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	c := NewCompositor(Options{FFmpegPath: filepath.Join(t.TempDir(), "no-such-ffmpeg")})
	err := c.Compose(context.Background(), []string{"a.jpg"}, "fade", 1, filepath.Join(t.TempDir(), "out.mp4"))
	assert.True(t, errors.Is(err, domain.ErrCompositionFailed))
}
