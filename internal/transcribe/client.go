// Package transcribe invokes the external speech-to-text HTTP service
// and hands its SRT output to the subtitle parser.
package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dubflow/pkg/log"
)

// ErrTranscriptionFailed is wrapped by every upstream transcription
// failure. The stage never retries; a single failure surfaces to the
// caller immediately.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Granularity selects the timestamp resolution of the result.
type Granularity string

const (
	GranularitySegment Granularity = "segment"
	GranularityWord    Granularity = "word"
)

const maxInitialPromptLen = 500

// Options tune a single transcription request. The zero value asks the
// service for its defaults with segment-level timestamps.
type Options struct {
	Language      string // language hint, empty or "auto" = autodetect
	ModelSize     string
	Temperature   float64
	InitialPrompt string
	Granularity   Granularity
}

func (o Options) validate() error {
	if o.Temperature < 0 || o.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0, 1], got %v", o.Temperature)
	}
	if len(o.InitialPrompt) > maxInitialPromptLen {
		return fmt.Errorf("initial prompt exceeds %d characters", maxInitialPromptLen)
	}
	if o.Granularity != "" && o.Granularity != GranularitySegment && o.Granularity != GranularityWord {
		return fmt.Errorf("invalid timestamp granularity %q", o.Granularity)
	}
	return nil
}

type response struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	SubtitlePath   string  `json:"subtitle_path"`
	Error          string  `json:"error"`
	ProcessingTime float64 `json:"processing_time"`
}

// Client talks to the whisper HTTP service. Video paths are exchanged
// relative to the shared data volume, not uploaded in the request body.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Transcribe asks the service to extract subtitles from the video at
// videoPath and returns the path of the produced SRT file.
func (c *Client) Transcribe(ctx context.Context, videoPath string, opts Options) (string, error) {
	if videoPath == "" {
		return "", fmt.Errorf("video path is required")
	}
	if err := opts.validate(); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("video_path", videoPath)
	if opts.Language != "" && opts.Language != "auto" {
		form.Set("language", opts.Language)
	}
	if opts.ModelSize != "" {
		form.Set("model_size", opts.ModelSize)
	}
	form.Set("temperature", strconv.FormatFloat(opts.Temperature, 'f', -1, 64))
	if opts.InitialPrompt != "" {
		form.Set("initial_prompt", opts.InitialPrompt)
	}
	granularity := opts.Granularity
	if granularity == "" {
		granularity = GranularitySegment
	}
	form.Set("timestamp_granularity", string(granularity))

	endpoint := c.baseURL + "/api/extract_subtitles"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Debug("transcription request: %s (video=%s)", endpoint, videoPath)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTranscriptionFailed, err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid response: %v", ErrTranscriptionFailed, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "success" {
		message := parsed.Error
		if message == "" {
			message = parsed.Message
		}
		if message == "" {
			message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, message)
	}

	if parsed.SubtitlePath == "" {
		return "", fmt.Errorf("%w: response carries no subtitle path", ErrTranscriptionFailed)
	}

	log.Debug("transcription finished in %.2fs: %s", parsed.ProcessingTime, parsed.SubtitlePath)
	return parsed.SubtitlePath, nil
}
