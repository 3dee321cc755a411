package ffmpeg_test

import (
	"context"
	"image"
	_ "image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/koki-develop/vidsheet/internal/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

// makeTestVideo renders a short lavfi test pattern so no fixture needs to be checked in.
func makeTestVideo(t *testing.T, seconds int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration="+strconv.Itoa(seconds)+":size=320x240:rate=10",
		"-pix_fmt", "yuv420p", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v: %s", err, out)
	}
	return path
}

func TestIntegration_ProbeAndExtract(t *testing.T) {
	skipIfNoFFmpeg(t)

	video := makeTestVideo(t, 3)
	e, err := ffmpeg.New(ffmpeg.Options{Timeout: 30 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	d, err := e.ProbeDuration(ctx, video)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d, 0.2)

	dst := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, e.ExtractFrame(ctx, video, 1, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestIntegration_ExtractAtDuration(t *testing.T) {
	skipIfNoFFmpeg(t)

	video := makeTestVideo(t, 3)
	e, err := ffmpeg.New(ffmpeg.Options{Timeout: 30 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	d, err := e.ProbeDuration(ctx, video)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "last.jpg")
	require.NoError(t, e.ExtractFrame(ctx, video, d, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	_, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestIntegration_ProbeInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	e, err := ffmpeg.New(ffmpeg.Options{})
	require.NoError(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.mp4")
	require.NoError(t, os.WriteFile(invalid, []byte("not a video"), 0o644))

	_, err = e.ProbeDuration(context.Background(), invalid)
	assert.ErrorIs(t, err, ffmpeg.ErrProbe)
}
