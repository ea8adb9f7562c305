package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/singleflight"

	"dubflow/pkg/log"
)

// ErrEngineInit means the synthesis engine could not be constructed.
// This is fatal for the synthesis stage.
var ErrEngineInit = errors.New("speech synthesis engine initialization failed")

// SpeechRequest is one synthesis invocation: the full text, the file to
// produce, and optional voice and language selectors.
type SpeechRequest struct {
	Text       string
	OutputPath string
	Speaker    string
	Language   string
}

// Engine produces a speech audio file from text.
type Engine interface {
	Synthesize(ctx context.Context, req SpeechRequest) error
}

// LazyEngine defers engine construction to the first synthesis call and
// shares the constructed instance for the life of the process.
// Concurrent first calls are collapsed to a single construction.
type LazyEngine struct {
	construct func() (Engine, error)

	group singleflight.Group
	mu    sync.RWMutex
	inner Engine
}

func NewLazyEngine(construct func() (Engine, error)) *LazyEngine {
	return &LazyEngine{construct: construct}
}

func (l *LazyEngine) Synthesize(ctx context.Context, req SpeechRequest) error {
	engine, err := l.get()
	if err != nil {
		return err
	}
	return engine.Synthesize(ctx, req)
}

func (l *LazyEngine) get() (Engine, error) {
	l.mu.RLock()
	inner := l.inner
	l.mu.RUnlock()
	if inner != nil {
		return inner, nil
	}

	v, err, _ := l.group.Do("construct", func() (interface{}, error) {
		engine, err := l.construct()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngineInit, err)
		}
		l.mu.Lock()
		l.inner = engine
		l.mu.Unlock()
		return engine, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// runner executes the synthesis binary; injectable for tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandEngine shells out to a local synthesis binary per request.
type CommandEngine struct {
	command string
	model   string
	useGPU  bool
	run     runner
}

// NewCommandEngine verifies the binary is resolvable and selects GPU
// acceleration when the environment advertises one.
func NewCommandEngine(command, model string) (*CommandEngine, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("synthesis binary %q not found: %w", command, err)
	}

	engine := &CommandEngine{
		command: path,
		model:   model,
		useGPU:  gpuAvailable(),
		run:     execRunner,
	}
	log.Debug("synthesis engine ready: %s (model=%s, gpu=%v)", path, model, engine.useGPU)
	return engine, nil
}

func (e *CommandEngine) Synthesize(ctx context.Context, req SpeechRequest) error {
	if req.Text == "" {
		return errors.New("nothing to synthesize: text is empty")
	}
	if req.OutputPath == "" {
		return errors.New("synthesis output path is required")
	}

	args := e.buildArgs(req)
	output, err := e.run(ctx, e.command, args...)
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w\n%s", err, string(output))
	}
	return nil
}

func (e *CommandEngine) buildArgs(req SpeechRequest) []string {
	args := []string{
		"--model_name", e.model,
		"--text", req.Text,
		"--out_path", req.OutputPath,
	}
	if req.Speaker != "" {
		args = append(args, "--speaker_idx", req.Speaker)
	}
	if req.Language != "" {
		args = append(args, "--language_idx", req.Language)
	}
	if e.useGPU {
		args = append(args, "--use_cuda", "true")
	}
	return args
}

func gpuAvailable() bool {
	if os.Getenv("CUDA_VISIBLE_DEVICES") != "" {
		return true
	}
	_, err := os.Stat("/proc/driver/nvidia/version")
	return err == nil
}
