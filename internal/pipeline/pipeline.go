// Package pipeline orchestrates the dubbing workflow: upload, trim,
// transcribe, translate, synthesize and compose. Stages run strictly in
// that order, each gated on its predecessor's cached artifact.
package pipeline

import (
	"context"
	"sort"

	"dubflow/internal/config"
	"dubflow/internal/media"
	"dubflow/internal/session"
	"dubflow/internal/subtitle"
	"dubflow/internal/transcribe"
	"dubflow/internal/translate"
)

// Transcriber extracts subtitles from a video via the external
// speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string, opts transcribe.Options) (string, error)
}

// Translator fills the translated text of a segment list in place.
type Translator interface {
	Translate(ctx context.Context, segments []subtitle.Segment, sourceLanguage, targetLanguage string) (translate.Result, error)
}

// Synthesizer produces one audio file from a translated segment list.
type Synthesizer interface {
	Synthesize(ctx context.Context, segments []subtitle.Segment, targetLanguage, gender, outputPath string) error
}

// Pipeline owns the session and the stage backends. A failed stage
// leaves earlier artifacts untouched; re-running re-invokes only the
// failed stage.
type Pipeline struct {
	cfg         *config.Config
	store       *session.Store
	media       media.Operator
	transcriber Transcriber
	translator  Translator
	synthesizer Synthesizer

	sess *session.Session
}

func New(
	cfg *config.Config,
	store *session.Store,
	mediaOp media.Operator,
	transcriber Transcriber,
	translator Translator,
	synthesizer Synthesizer,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		store:       store,
		media:       mediaOp,
		transcriber: transcriber,
		translator:  translator,
		synthesizer: synthesizer,
	}
}

// Session exposes the loaded session; nil before Upload or Load.
func (p *Pipeline) Session() *session.Session {
	return p.sess
}

// Load attaches the pipeline to a stored session.
func (p *Pipeline) Load(ctx context.Context, videoID string) error {
	sess, ok, err := p.store.LoadSession(ctx, videoID)
	if err != nil {
		return WrapError(err, ErrInternal, "failed to load session").WithContext("video_id", videoID)
	}
	if !ok {
		return NewError(ErrValidation, "no session for video id").WithContext("video_id", videoID)
	}
	p.sess = sess
	return nil
}

// LoadCurrent attaches to the most recently used session.
func (p *Pipeline) LoadCurrent(ctx context.Context) error {
	videoID, ok, err := p.store.CurrentVideoID(ctx)
	if err != nil {
		return WrapError(err, ErrInternal, "failed to resolve current session")
	}
	if !ok {
		return NewError(ErrValidation, "no active session; upload a video first")
	}
	return p.Load(ctx, videoID)
}

func (p *Pipeline) requireSession() error {
	if p.sess == nil || p.sess.Video == nil {
		return NewError(ErrValidation, session.ErrNoVideo.Error())
	}
	return nil
}

// Status is a read-only summary of the session's progress.
type Status struct {
	VideoID        string
	OriginalName   string
	DurationMS     int64
	Trimmed        bool
	SegmentCount   int
	SourceLanguage string
	Translations   []string
	AudioKeys      []string
	Results        map[string]string
}

func (p *Pipeline) Status() (Status, error) {
	if err := p.requireSession(); err != nil {
		return Status{}, err
	}

	audioKeys := make([]string, 0, len(p.sess.Audio))
	for key := range p.sess.Audio {
		audioKeys = append(audioKeys, key)
	}
	sort.Strings(audioKeys)

	results := make(map[string]string, len(p.sess.Results))
	for key, path := range p.sess.Results {
		results[key] = path
	}

	return Status{
		VideoID:        p.sess.Video.ID,
		OriginalName:   p.sess.Video.OriginalName,
		DurationMS:     p.sess.Video.DurationMS,
		Trimmed:        p.sess.Video.Trimmed,
		SegmentCount:   len(p.sess.Segments),
		SourceLanguage: p.sess.SourceLanguage,
		Translations:   p.sess.TranslatedLanguages(),
		AudioKeys:      audioKeys,
		Results:        results,
	}, nil
}

// Reset drops all derived state for the session, keeping the uploaded
// video and its trim derivative on disk.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	if err := p.store.DeleteDerived(ctx, p.sess.Video.ID); err != nil {
		return WrapError(err, ErrInternal, "failed to reset stored session")
	}
	p.sess.Reset()
	return nil
}
