package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:03,000
Hello there.

2
00:00:03,500 --> 00:00:06,250
Nice to meet you.
How are you?

3
00:00:07,000 --> 00:00:09,900
Goodbye.
`

func TestParseSRT(t *testing.T) {
	segments, err := ParseSRT(sampleSRT)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, Segment{ID: 1, StartMS: 0, EndMS: 3000, Text: "Hello there."}, segments[0])
	assert.Equal(t, 2, segments[1].ID)
	assert.Equal(t, int64(3500), segments[1].StartMS)
	assert.Equal(t, int64(6250), segments[1].EndMS)
	assert.Equal(t, "Nice to meet you.\nHow are you?", segments[1].Text)
	assert.Equal(t, 3, segments[2].ID)
}

func TestParseSRTDotSeparatorAndWhitespace(t *testing.T) {
	content := "1\n00:00:01.500 --> 00:00:02.750   \nDotted millis.\n\n"
	segments, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, int64(1500), segments[0].StartMS)
	assert.Equal(t, int64(2750), segments[0].EndMS)
}

func TestParseSRTNonContiguousIDs(t *testing.T) {
	content := "3\n00:00:00,000 --> 00:00:01,000\nfirst\n\n9\n00:00:02,000 --> 00:00:03,000\nsecond\n"
	segments, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 3, segments[0].ID)
	assert.Equal(t, 9, segments[1].ID)
}

func TestParseSRTEmptyContent(t *testing.T) {
	segments, err := ParseSRT("")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestParseSRTFailFast(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad index",
			content: "one\n00:00:00,000 --> 00:00:01,000\ntext\n",
		},
		{
			name:    "bad time line",
			content: "1\n00:00 --> 00:01\ntext\n",
		},
		{
			name:    "end before start",
			content: "1\n00:00:05,000 --> 00:00:01,000\ntext\n",
		},
		{
			name: "second block malformed aborts whole parse",
			content: "1\n00:00:00,000 --> 00:00:01,000\nok\n\n" +
				"2\nnot a time\nbroken\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := ParseSRT(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, segments)
		})
	}
}

func TestSRTRoundTrip(t *testing.T) {
	segments := []Segment{
		{ID: 1, StartMS: 0, EndMS: 3000, Text: "First line."},
		{ID: 2, StartMS: 3500, EndMS: 6000, Text: "Second line."},
		{ID: 7, StartMS: 6100, EndMS: 9999, Text: "Non contiguous id."},
	}

	parsed, err := ParseSRT(Serialize(segments, FormatSRT, false))
	require.NoError(t, err)
	assert.Equal(t, segments, parsed)
}
