package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the dominant language of a segment list by
// majority vote over per-segment detection.
func DetectLanguage(segments []Segment) language.Tag {
	if len(segments) == 0 {
		return language.Und
	}

	counts := make(map[string]int)
	for _, seg := range segments {
		iso := whatlanggo.DetectLang(seg.Text).Iso6391()
		counts[iso]++
	}

	var topLang string
	var topCount int
	for lang, count := range counts {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	if topLang == "" {
		return language.Und
	}
	return language.Make(topLang)
}
