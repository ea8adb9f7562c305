// Package media wraps the ffmpeg and ffprobe binaries for probing,
// trimming and final composition of video artifacts.
package media

import (
	"context"
	"os/exec"
)

// runner executes an external binary; injectable for tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpeg drives local ffmpeg/ffprobe processes.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	run     runner
}

func New(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpeg: ffmpegPath, ffprobe: ffprobePath, run: execRunner}
}

// CombineRequest describes one final composition: the (possibly trimmed)
// video, the synthesized audio track that replaces the original audio,
// and an optional subtitle file to burn into the picture.
type CombineRequest struct {
	VideoPath    string
	AudioPath    string
	SubtitlePath string
	OutputDir    string
	WorkDir      string
	Language     string
	Gender       string
}

// Operator is the media backend surface the pipeline depends on.
type Operator interface {
	ProbeDuration(ctx context.Context, videoPath string) (int64, error)
	Trim(ctx context.Context, videoPath string, startMS int64, endMS *int64, outputDir string) (string, error)
	Combine(ctx context.Context, req CombineRequest) (string, error)
}
