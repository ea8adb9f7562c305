// Package subtitle holds the timed-segment representation shared by every
// pipeline stage, and its SRT / plain line-format codecs.
package subtitle

// Format identifies a subtitle serialization format.
type Format string

const (
	// FormatSRT is the standard SubRip block format.
	FormatSRT Format = "srt"
	// FormatLine is the hand-editable "start_ms - end_ms - text" format.
	FormatLine Format = "txt"
)

// Segment is a single timed unit of transcript text. TranslatedText is
// empty until the translation stage succeeds for this segment.
type Segment struct {
	ID             int    `json:"id"`
	StartMS        int64  `json:"start_ms"`
	EndMS          int64  `json:"end_ms"`
	Text           string `json:"text"`
	TranslatedText string `json:"translated_text,omitempty"`
}

// RenderText returns the preferred rendering of the segment: the
// translation when requested and present, the source text otherwise.
func (s Segment) RenderText(useTranslated bool) string {
	if useTranslated && s.TranslatedText != "" {
		return s.TranslatedText
	}
	return s.Text
}

// Set is an ordered sequence of segments tied to a source video.
// Segment IDs are unique but not necessarily contiguous; an empty
// sequence is valid and means no speech was detected.
type Set struct {
	FileID          string    `json:"file_id"`
	Segments        []Segment `json:"segments"`
	SourceLanguage  string    `json:"source_language,omitempty"`
	TargetLanguage  string    `json:"target_language,omitempty"`
	SourceVideoPath string    `json:"source_video_path,omitempty"`
	FilePath        string    `json:"file_path,omitempty"`
}

// SegmentByID returns a pointer to the segment with the given id, or nil.
func (s *Set) SegmentByID(id int) *Segment {
	for i := range s.Segments {
		if s.Segments[i].ID == id {
			return &s.Segments[i]
		}
	}
	return nil
}
