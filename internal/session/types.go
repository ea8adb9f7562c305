// Package session holds the dubbing workflow state: the uploaded video,
// its current subtitle segments, and the per-language and per-voice
// artifact caches produced by the pipeline stages.
package session

import (
	"errors"
	"fmt"
	"sort"

	"dubflow/internal/subtitle"
)

var (
	// ErrNoVideo gates every stage behind a completed upload.
	ErrNoVideo = errors.New("no video uploaded")
	// ErrNoSubtitles gates translation behind extraction or import.
	ErrNoSubtitles = errors.New("no subtitles available")
	// ErrNoTranslation gates synthesis behind translation.
	ErrNoTranslation = errors.New("no translation for requested language")
	// ErrNoAudio gates composition behind synthesis.
	ErrNoAudio = errors.New("no synthesized audio for requested voice")
	// ErrCacheExists is returned when a stage would overwrite a cached
	// artifact without the caller confirming the overwrite.
	ErrCacheExists = errors.New("artifact already cached for this key")
)

// VideoAsset is an uploaded source video and its trim state. The
// original file is retained; trimming produces a separate derivative.
type VideoAsset struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	SavedName    string `json:"saved_name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	DurationMS   int64  `json:"duration_ms"`

	Trimmed     bool   `json:"trimmed"`
	TrimmedPath string `json:"trimmed_path,omitempty"`
	TrimStartMS *int64 `json:"trim_start_ms,omitempty"`
	TrimEndMS   *int64 `json:"trim_end_ms,omitempty"`
}

// EffectivePath is the video downstream stages should read: the trimmed
// derivative when one exists, the original otherwise.
func (a *VideoAsset) EffectivePath() string {
	if a.Trimmed && a.TrimmedPath != "" {
		return a.TrimmedPath
	}
	return a.Path
}

// Translation is one target language's cached record: the segments with
// translated text populated plus the serialized artifact pair.
type Translation struct {
	Language string             `json:"language"`
	Segments []subtitle.Segment `json:"segments"`
	SRTPath  string             `json:"srt_path"`
	TextPath string             `json:"text_path"`
}

// AudioArtifact is one synthesized audio file, keyed by language and
// voice gender.
type AudioArtifact struct {
	Language string `json:"language"`
	Gender   string `json:"gender"`
	Path     string `json:"path"`
}

// CacheKey builds the composite language_gender cache key.
func CacheKey(language, gender string) string {
	return fmt.Sprintf("%s_%s", language, gender)
}

// Session is the full workflow state for one video. Stage caches are
// never evicted; overwriting requires explicit confirmation.
type Session struct {
	Video *VideoAsset

	Segments       []subtitle.Segment
	SourceLanguage string
	SubtitlePath   string

	Translations map[string]*Translation
	Audio        map[string]*AudioArtifact
	Results      map[string]string
}

func New(video *VideoAsset) *Session {
	return &Session{
		Video:        video,
		Translations: make(map[string]*Translation),
		Audio:        make(map[string]*AudioArtifact),
		Results:      make(map[string]string),
	}
}

// SetSubtitles replaces the current segment set wholesale. Downstream
// caches are left intact; their keys still identify stale artifacts the
// caller can choose to overwrite.
func (s *Session) SetSubtitles(segments []subtitle.Segment, sourceLanguage, path string) {
	s.Segments = segments
	s.SourceLanguage = sourceLanguage
	s.SubtitlePath = path
}

func (s *Session) HasSubtitles() bool {
	return len(s.Segments) > 0
}

// Translation looks up the cached record for a target language.
func (s *Session) Translation(language string) (*Translation, bool) {
	t, ok := s.Translations[language]
	return t, ok
}

// PutTranslation caches a language's record. An existing record for the
// same language is only replaced when overwrite is set; other languages
// are never touched.
func (s *Session) PutTranslation(t *Translation, overwrite bool) error {
	if _, exists := s.Translations[t.Language]; exists && !overwrite {
		return fmt.Errorf("%w: translation %q", ErrCacheExists, t.Language)
	}
	s.Translations[t.Language] = t
	return nil
}

// AudioFor looks up synthesized audio by language and gender.
func (s *Session) AudioFor(language, gender string) (*AudioArtifact, bool) {
	a, ok := s.Audio[CacheKey(language, gender)]
	return a, ok
}

func (s *Session) PutAudio(a *AudioArtifact, overwrite bool) error {
	key := CacheKey(a.Language, a.Gender)
	if _, exists := s.Audio[key]; exists && !overwrite {
		return fmt.Errorf("%w: audio %q", ErrCacheExists, key)
	}
	s.Audio[key] = a
	return nil
}

func (s *Session) ResultFor(language, gender string) (string, bool) {
	path, ok := s.Results[CacheKey(language, gender)]
	return path, ok
}

func (s *Session) PutResult(language, gender, path string, overwrite bool) error {
	key := CacheKey(language, gender)
	if _, exists := s.Results[key]; exists && !overwrite {
		return fmt.Errorf("%w: result %q", ErrCacheExists, key)
	}
	s.Results[key] = path
	return nil
}

// TranslatedLanguages lists cached target languages in stable order.
func (s *Session) TranslatedLanguages() []string {
	langs := make([]string, 0, len(s.Translations))
	for lang := range s.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Reset drops all derived state, keeping only the uploaded video.
func (s *Session) Reset() {
	s.Segments = nil
	s.SourceLanguage = ""
	s.SubtitlePath = ""
	s.Translations = make(map[string]*Translation)
	s.Audio = make(map[string]*AudioArtifact)
	s.Results = make(map[string]string)
}
