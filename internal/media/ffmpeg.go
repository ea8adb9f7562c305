package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dubflow/pkg/file"
	"dubflow/pkg/log"
)

// ProbeDuration reads the container duration in milliseconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, videoPath string) (int64, error) {
	output, err := f.run(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(output))
	}

	raw := strings.TrimSpace(string(output))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return int64(seconds * 1000), nil
}

// Trim cuts the video to [startMS, endMS) by stream copy, resetting
// timestamps so the derivative starts at zero. A nil endMS means "to the
// end". When the range covers the whole video (start 0, no end) the
// source path is returned unchanged and ffmpeg is never invoked.
// Re-trimming overwrites the previous derivative for the same file id.
func (f *FFmpeg) Trim(ctx context.Context, videoPath string, startMS int64, endMS *int64, outputDir string) (string, error) {
	if startMS == 0 && endMS == nil {
		log.Debug("trim range covers the whole video, skipping: %s", videoPath)
		return videoPath, nil
	}
	if endMS != nil && startMS >= *endMS {
		return "", fmt.Errorf("invalid trim range: start %dms must precede end %dms", startMS, *endMS)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create trim output dir: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("trimmed_%s%s", fileIDFrom(videoPath), filepath.Ext(videoPath)))

	args := []string{
		"-y",
		"-ss", fmtSeconds(startMS),
	}
	if endMS != nil {
		args = append(args, "-t", fmtSeconds(*endMS-startMS))
	}
	args = append(args,
		"-i", videoPath,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	)

	if output, err := f.run(ctx, f.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg trim: %w\n%s", err, string(output))
	}

	log.Debug("trimmed %s to %s (start=%dms)", videoPath, outputPath, startMS)
	return outputPath, nil
}

// Combine replaces the video's audio track with the synthesized one and,
// when a subtitle file is given, burns the subtitles into the picture in
// a second pass. The result path is deterministic per video id, language
// and voice gender; an existing result is overwritten.
func (f *FFmpeg) Combine(ctx context.Context, req CombineRequest) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	id := fileIDFrom(req.VideoPath)
	ext := filepath.Ext(req.VideoPath)
	variant := fmt.Sprintf("%s_%s_%s", id, req.Language, req.Gender)
	outputPath := filepath.Join(req.OutputDir, fmt.Sprintf("result_%s%s", variant, ext))

	muxTarget := outputPath
	if req.SubtitlePath != "" {
		workDir := req.WorkDir
		if workDir == "" {
			workDir = req.OutputDir
		}
		muxTarget = filepath.Join(workDir, fmt.Sprintf("temp_%s%s", variant, ext))
	}

	// first pass: stream-copy mux, synthesized audio replaces the original
	muxArgs := []string{
		"-y",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-map_metadata", "0",
		muxTarget,
	}
	if output, err := f.run(ctx, f.ffmpeg, muxArgs...); err != nil {
		return "", fmt.Errorf("ffmpeg mux: %w\n%s", err, string(output))
	}

	if req.SubtitlePath == "" {
		log.Debug("composed %s", outputPath)
		return outputPath, nil
	}

	// second pass: burn-in forces a video re-encode, audio stays copied
	burnArgs := []string{
		"-y",
		"-i", muxTarget,
		"-vf", "subtitles=" + escapeFilterPath(req.SubtitlePath) + ":force_style='FontSize=24'",
		"-c:a", "copy",
		"-map_metadata", "0",
		outputPath,
	}
	if output, err := f.run(ctx, f.ffmpeg, burnArgs...); err != nil {
		return "", fmt.Errorf("ffmpeg subtitle burn-in: %w\n%s", err, string(output))
	}

	if err := os.Remove(muxTarget); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove intermediate file %s: %v", muxTarget, err)
	}

	log.Debug("composed %s with burned-in subtitles", outputPath)
	return outputPath, nil
}

// fileIDFrom recovers the asset id from artifact names of the form
// prefix_<id>.ext, falling back to the whole stem for plain names.
func fileIDFrom(path string) string {
	stem := file.Stem(path)
	parts := strings.Split(stem, "_")
	return parts[len(parts)-1]
}

func fmtSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, ":", `\:`)
	return p
}
