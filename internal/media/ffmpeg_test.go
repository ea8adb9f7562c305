package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and optionally touches output files so
// the intermediate-cleanup path can be exercised.
type fakeRunner struct {
	calls       []call
	output      []byte
	err         error
	touchOutput bool
}

func (r *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.touchOutput && len(args) > 0 {
		_ = os.WriteFile(args[len(args)-1], []byte("x"), 0o644)
	}
	return r.output, r.err
}

func newTestFFmpeg(r *fakeRunner) *FFmpeg {
	ff := New("", "")
	ff.run = r.run
	return ff
}

func TestProbeDuration(t *testing.T) {
	runner := &fakeRunner{output: []byte("634.512000\n")}
	ff := newTestFFmpeg(runner)

	ms, err := ff.ProbeDuration(context.Background(), "/data/uploads/video_abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(634512), ms)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "ffprobe", runner.calls[0].name)
	assert.Contains(t, runner.calls[0].args, "format=duration")
}

func TestProbeDurationGarbageOutput(t *testing.T) {
	ff := newTestFFmpeg(&fakeRunner{output: []byte("N/A")})
	_, err := ff.ProbeDuration(context.Background(), "/data/uploads/video_abc.mp4")
	assert.Error(t, err)
}

func TestTrimFullRangeIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	ff := newTestFFmpeg(runner)

	out, err := ff.Trim(context.Background(), "/data/uploads/video_abc.mp4", 0, nil, t.TempDir())
	require.NoError(t, err)

	// the source passes through untouched and no process is spawned
	assert.Equal(t, "/data/uploads/video_abc.mp4", out)
	assert.Empty(t, runner.calls)
}

func TestTrimStreamCopies(t *testing.T) {
	runner := &fakeRunner{}
	ff := newTestFFmpeg(runner)
	dir := t.TempDir()

	end := int64(120000)
	out, err := ff.Trim(context.Background(), "/data/uploads/video_abc.mp4", 5000, &end, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trimmed_abc.mp4"), out)

	require.Len(t, runner.calls, 1)
	args := runner.calls[0].args
	assert.Equal(t, "ffmpeg", runner.calls[0].name)
	assert.Contains(t, args, "-ss")
	assert.Contains(t, args, "5.000")
	assert.Contains(t, args, "-t")
	assert.Contains(t, args, "115.000")
	assert.Contains(t, args, "copy")
	assert.Contains(t, args, "make_zero")
}

func TestTrimOpenEnded(t *testing.T) {
	runner := &fakeRunner{}
	ff := newTestFFmpeg(runner)

	out, err := ff.Trim(context.Background(), "/data/uploads/video_abc.mp4", 30000, nil, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "trimmed_abc.mp4")

	args := runner.calls[0].args
	assert.Contains(t, args, "30.000")
	assert.NotContains(t, args, "-t")
}

func TestTrimRejectsInvertedRange(t *testing.T) {
	runner := &fakeRunner{}
	ff := newTestFFmpeg(runner)

	end := int64(1000)
	_, err := ff.Trim(context.Background(), "/data/uploads/video_abc.mp4", 5000, &end, t.TempDir())
	require.Error(t, err)
	assert.Empty(t, runner.calls)
}

func TestTrimSurfacesFFmpegError(t *testing.T) {
	runner := &fakeRunner{output: []byte("moov atom not found"), err: errors.New("exit status 1")}
	ff := newTestFFmpeg(runner)

	end := int64(1000)
	_, err := ff.Trim(context.Background(), "/data/uploads/video_abc.mp4", 0, &end, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestCombineWithoutSubtitles(t *testing.T) {
	runner := &fakeRunner{}
	ff := newTestFFmpeg(runner)
	dir := t.TempDir()

	out, err := ff.Combine(context.Background(), CombineRequest{
		VideoPath: "/data/processed/trimmed_abc.mp4",
		AudioPath: "/data/processed/tts_abc_en_female.wav",
		OutputDir: dir,
		Language:  "en",
		Gender:    "female",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "result_abc_en_female.mp4"), out)

	// single stream-copy mux, no burn-in pass
	require.Len(t, runner.calls, 1)
	args := runner.calls[0].args
	assert.Contains(t, args, "/data/processed/trimmed_abc.mp4")
	assert.Contains(t, args, "/data/processed/tts_abc_en_female.wav")
	assert.Contains(t, args, "0:v:0")
	assert.Contains(t, args, "1:a:0")
}

func TestCombineWithSubtitleBurnIn(t *testing.T) {
	runner := &fakeRunner{touchOutput: true}
	ff := newTestFFmpeg(runner)
	dir := t.TempDir()
	work := t.TempDir()

	out, err := ff.Combine(context.Background(), CombineRequest{
		VideoPath:    "/data/uploads/video_abc.mp4",
		AudioPath:    "/data/processed/tts_abc_de_male.wav",
		SubtitlePath: "/data/processed/translated_abc_de.srt",
		OutputDir:    dir,
		WorkDir:      work,
		Language:     "de",
		Gender:       "male",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "result_abc_de_male.mp4"), out)

	require.Len(t, runner.calls, 2)

	temp := filepath.Join(work, "temp_abc_de_male.mp4")
	assert.Contains(t, runner.calls[0].args, temp)

	burn := runner.calls[1].args
	assert.Contains(t, burn, temp)
	found := false
	for _, a := range burn {
		if a == "subtitles=/data/processed/translated_abc_de.srt:force_style='FontSize=24'" {
			found = true
		}
	}
	assert.True(t, found, "burn-in filter argument missing: %v", burn)

	// the intermediate mux file is cleaned up
	_, statErr := os.Stat(temp)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileIDFrom(t *testing.T) {
	assert.Equal(t, "abc123", fileIDFrom("/data/uploads/video_abc123.mp4"))
	assert.Equal(t, "abc123", fileIDFrom("/data/processed/trimmed_abc123.mp4"))
	assert.Equal(t, "plain", fileIDFrom("/data/uploads/plain.mp4"))
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, `C\:/subs/a.srt`, escapeFilterPath(`C:/subs/a.srt`))
}
