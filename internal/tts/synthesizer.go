// Package tts turns translated segments into a single synthesized audio
// artifact per language and voice selection.
package tts

import (
	"context"
	"errors"
	"strings"

	"dubflow/internal/subtitle"
	"dubflow/pkg/log"
)

// ErrNotImplemented marks the per-segment synthesis extension point.
var ErrNotImplemented = errors.New("per-segment synthesis is not implemented")

// languageTags maps target language codes to the tags the synthesis
// model understands. Unknown languages fall back to English.
var languageTags = map[string]string{
	"en": "en",
	"zh": "zh-cn",
	"ja": "ja",
	"de": "de",
	"id": "id",
}

// Synthesizer concatenates segment text and drives the synthesis engine.
type Synthesizer struct {
	engine Engine
	roster Roster
}

func NewSynthesizer(engine Engine, roster Roster) *Synthesizer {
	return &Synthesizer{engine: engine, roster: roster}
}

// Synthesize produces one audio file for the whole segment list. The
// translated text is preferred per segment with a warning on fallback.
// The result is deliberately not time-aligned to segment boundaries.
func (s *Synthesizer) Synthesize(ctx context.Context, segments []subtitle.Segment, targetLanguage, gender, outputPath string) error {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.TranslatedText == "" {
			log.Warn("segment %d has no translation, synthesizing source text", seg.ID)
		}
		texts = append(texts, seg.RenderText(true))
	}

	speaker := s.roster.SpeakerFor(targetLanguage, gender)

	tag, ok := languageTags[targetLanguage]
	if !ok {
		tag = "en"
	}

	log.Debug("synthesizing %d segments (language=%s, speaker=%s)", len(segments), tag, speaker)

	return s.engine.Synthesize(ctx, SpeechRequest{
		Text:       strings.Join(texts, " "),
		OutputPath: outputPath,
		Speaker:    speaker,
		Language:   tag,
	})
}

// SynthesizeSegmented would synthesize each segment individually and
// concatenate the parts to preserve timing. Declared extension point
// only; callers must not depend on it.
func (s *Synthesizer) SynthesizeSegmented(ctx context.Context, segments []subtitle.Segment, targetLanguage, gender, outputPath string) error {
	return ErrNotImplemented
}
