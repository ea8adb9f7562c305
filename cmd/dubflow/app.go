package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dubflow/internal/config"
	"dubflow/internal/media"
	"dubflow/internal/pipeline"
	"dubflow/internal/session"
	"dubflow/internal/subtitle"
	"dubflow/internal/transcribe"
	"dubflow/internal/translate"
	"dubflow/internal/tts"
	"dubflow/pkg/log"
)

// app wires the real backends together for one CLI invocation.
type app struct {
	cfg      *config.Config
	store    *session.Store
	pipeline *pipeline.Pipeline
}

func newApp() (*app, error) {
	_ = godotenv.Load() // best-effort: load .env if present

	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, err
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	store, err := session.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	roster, err := tts.LoadRoster(cfg.TTS.SpeakersFile)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	engine := tts.NewLazyEngine(func() (tts.Engine, error) {
		return tts.NewCommandEngine(cfg.TTS.Command, cfg.TTS.Model)
	})

	p := pipeline.New(
		cfg,
		store,
		media.New(cfg.Media.FFmpegPath, cfg.Media.FFprobePath),
		transcribe.NewClient(cfg.Whisper.APIURL, time.Duration(cfg.Whisper.Timeout)*time.Second),
		&deferredTranslator{cfg: cfg.LLM},
		tts.NewSynthesizer(engine, roster),
	)

	return &app{cfg: cfg, store: store, pipeline: p}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

// loadSession attaches to the session named by --video, or the current
// one when the flag is absent.
func (a *app) loadSession(ctx context.Context, cmd *cobra.Command) error {
	videoID, _ := cmd.Flags().GetString("video")
	if videoID != "" {
		return a.pipeline.Load(ctx, videoID)
	}
	return a.pipeline.LoadCurrent(ctx)
}

// deferredTranslator postpones client construction to first use so
// commands that never translate work without an API key.
type deferredTranslator struct {
	cfg config.LLMConfig
}

func (d *deferredTranslator) Translate(ctx context.Context, segments []subtitle.Segment, sourceLanguage, targetLanguage string) (translate.Result, error) {
	client, err := translate.NewOpenAIClient(d.cfg.APIKey, d.cfg.APIURL, d.cfg.Model)
	if err != nil {
		return translate.Result{}, err
	}
	return translate.New(client).Translate(ctx, segments, sourceLanguage, targetLanguage)
}
