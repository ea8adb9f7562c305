package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubflow/internal/subtitle"
)

func TestEffectivePath(t *testing.T) {
	asset := &VideoAsset{Path: "/data/uploads/video_abc.mp4"}
	assert.Equal(t, "/data/uploads/video_abc.mp4", asset.EffectivePath())

	asset.Trimmed = true
	asset.TrimmedPath = "/data/processed/trimmed_abc.mp4"
	assert.Equal(t, "/data/processed/trimmed_abc.mp4", asset.EffectivePath())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "en_female", CacheKey("en", "female"))
}

func TestPutTranslationOverwriteGate(t *testing.T) {
	sess := New(&VideoAsset{ID: "abc"})

	first := &Translation{Language: "en", SRTPath: "/a.srt"}
	require.NoError(t, sess.PutTranslation(first, false))

	// second write without confirmation is rejected and leaves the
	// cached record untouched
	err := sess.PutTranslation(&Translation{Language: "en", SRTPath: "/b.srt"}, false)
	require.ErrorIs(t, err, ErrCacheExists)
	got, ok := sess.Translation("en")
	require.True(t, ok)
	assert.Equal(t, "/a.srt", got.SRTPath)

	// confirmed overwrite replaces only that language
	require.NoError(t, sess.PutTranslation(&Translation{Language: "de"}, false))
	require.NoError(t, sess.PutTranslation(&Translation{Language: "en", SRTPath: "/b.srt"}, true))
	got, _ = sess.Translation("en")
	assert.Equal(t, "/b.srt", got.SRTPath)
	_, ok = sess.Translation("de")
	assert.True(t, ok)
}

func TestPutAudioOverwriteGate(t *testing.T) {
	sess := New(&VideoAsset{ID: "abc"})

	require.NoError(t, sess.PutAudio(&AudioArtifact{Language: "en", Gender: "female", Path: "/a.wav"}, false))
	err := sess.PutAudio(&AudioArtifact{Language: "en", Gender: "female", Path: "/b.wav"}, false)
	assert.ErrorIs(t, err, ErrCacheExists)

	// a different gender is a distinct cache entry
	require.NoError(t, sess.PutAudio(&AudioArtifact{Language: "en", Gender: "male", Path: "/m.wav"}, false))

	a, ok := sess.AudioFor("en", "female")
	require.True(t, ok)
	assert.Equal(t, "/a.wav", a.Path)
}

func TestTranslatedLanguagesSorted(t *testing.T) {
	sess := New(&VideoAsset{ID: "abc"})
	require.NoError(t, sess.PutTranslation(&Translation{Language: "zh"}, false))
	require.NoError(t, sess.PutTranslation(&Translation{Language: "de"}, false))
	require.NoError(t, sess.PutTranslation(&Translation{Language: "en"}, false))

	assert.Equal(t, []string{"de", "en", "zh"}, sess.TranslatedLanguages())
}

func TestResetKeepsVideo(t *testing.T) {
	sess := New(&VideoAsset{ID: "abc"})
	sess.SetSubtitles([]subtitle.Segment{{ID: 1, Text: "hi"}}, "ko", "/s.srt")
	require.NoError(t, sess.PutTranslation(&Translation{Language: "en"}, false))
	require.NoError(t, sess.PutAudio(&AudioArtifact{Language: "en", Gender: "female"}, false))
	require.NoError(t, sess.PutResult("en", "female", "/r.mp4", false))

	sess.Reset()

	assert.NotNil(t, sess.Video)
	assert.False(t, sess.HasSubtitles())
	assert.Empty(t, sess.Translations)
	assert.Empty(t, sess.Audio)
	assert.Empty(t, sess.Results)
}
