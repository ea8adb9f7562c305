package tts

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"dubflow/pkg/log"
)

// Voice is one synthetic voice identity in the roster.
type Voice struct {
	Name   string `yaml:"name"`
	Gender string `yaml:"gender"`
}

// Roster maps a language code to its available voices. It is external
// configuration, loaded once and cached by the synthesizer.
type Roster map[string][]Voice

// LoadRoster reads the voice roster YAML. A missing file degrades to an
// empty roster with a warning; the synthesis service default voice is
// used in that case.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("voice roster file not found: %s", path)
			return Roster{}, nil
		}
		return nil, fmt.Errorf("failed to read voice roster: %w", err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse voice roster: %w", err)
	}
	return roster, nil
}

// SpeakerFor resolves a voice name for the language and gender. When no
// voice of the requested gender exists the roster's first entry for the
// language is used with a warning; an unknown language yields the empty
// string, meaning the service default voice.
func (r Roster) SpeakerFor(language, gender string) string {
	voices, ok := r[language]
	if !ok || len(voices) == 0 {
		log.Warn("no voices registered for language %q", language)
		return ""
	}

	for _, voice := range voices {
		if voice.Gender == gender {
			return voice.Name
		}
	}

	log.Warn("no %s voice for language %q, using %q", gender, language, voices[0].Name)
	return voices[0].Name
}
