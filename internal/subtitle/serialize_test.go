package subtitle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestSerializeSRT(t *testing.T) {
	segments := []Segment{
		{ID: 1, StartMS: 0, EndMS: 3000, Text: "Hello.", TranslatedText: "Hallo."},
		{ID: 2, StartMS: 3500, EndMS: 6000, Text: "Untranslated."},
	}

	plain := Serialize(segments, FormatSRT, false)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:03,000\nHello.\n\n"+
		"2\n00:00:03,500 --> 00:00:06,000\nUntranslated.\n\n", plain)

	translated := Serialize(segments, FormatSRT, true)
	assert.Contains(t, translated, "Hallo.")
	// missing translation falls back to the source text
	assert.Contains(t, translated, "Untranslated.")
}

func TestSerializeLineFormat(t *testing.T) {
	segments := []Segment{
		{ID: 1, StartMS: 0, EndMS: 3000, Text: "Hello.", TranslatedText: "Hallo."},
	}

	assert.Equal(t, "0 - 3000 - Hello.\n", Serialize(segments, FormatLine, false))
	assert.Equal(t, "0 - 3000 - Hallo.\n", Serialize(segments, FormatLine, true))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.srt")

	segments := []Segment{{ID: 1, StartMS: 0, EndMS: 1000, Text: "hi"}}
	require.NoError(t, WriteFile(path, segments, FormatSRT, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	parsed, err := ParseSRT(string(content))
	require.NoError(t, err)
	assert.Equal(t, segments, parsed)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatSRT, FormatForPath("subtitle_ab12.srt"))
	assert.Equal(t, FormatLine, FormatForPath("translated_ab12_en.TXT"))
	assert.Equal(t, FormatSRT, FormatForPath("weird.vtt"))
}

func TestSegmentByID(t *testing.T) {
	set := &Set{Segments: []Segment{{ID: 1}, {ID: 7}}}
	require.NotNil(t, set.SegmentByID(7))
	assert.Nil(t, set.SegmentByID(2))

	set.SegmentByID(7).TranslatedText = "mutated"
	assert.Equal(t, "mutated", set.Segments[1].TranslatedText)
}

func TestDetectLanguage(t *testing.T) {
	english := []Segment{
		{ID: 1, Text: "Hello, how are you doing today my friend?"},
		{ID: 2, Text: "The weather is quite nice this afternoon."},
		{ID: 3, Text: "Let us walk to the market together."},
	}
	assert.Equal(t, language.English, DetectLanguage(english))

	assert.Equal(t, language.Und, DetectLanguage(nil))
}
