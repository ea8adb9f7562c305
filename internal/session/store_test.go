package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubflow/internal/subtitle"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "dubflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleAsset() *VideoAsset {
	return &VideoAsset{
		ID:           "abc123",
		OriginalName: "lecture.mp4",
		SavedName:    "original_abc123.mp4",
		Path:         "/data/uploads/original_abc123.mp4",
		Size:         15000000,
		Type:         "mp4",
		DurationMS:   180000,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVideo(ctx, sampleAsset()))

	segments := []subtitle.Segment{
		{ID: 1, StartMS: 0, EndMS: 1500, Text: "안녕하세요"},
		{ID: 2, StartMS: 1500, EndMS: 3000, Text: "반갑습니다"},
	}
	require.NoError(t, store.SaveSubtitles(ctx, "abc123", "ko", "/data/processed/subtitle_abc123.srt", segments))
	require.NoError(t, store.SaveTranslation(ctx, "abc123", &Translation{
		Language: "en",
		Segments: []subtitle.Segment{{ID: 1, StartMS: 0, EndMS: 1500, Text: "안녕하세요", TranslatedText: "Hello"}},
		SRTPath:  "/data/processed/translated_abc123_en.srt",
		TextPath: "/data/processed/translated_abc123_en.txt",
	}))
	require.NoError(t, store.SaveAudio(ctx, "abc123", &AudioArtifact{
		Language: "en", Gender: "female", Path: "/data/processed/tts_abc123_en_female.wav",
	}))
	require.NoError(t, store.SaveResult(ctx, "abc123", "en", "female", "/data/results/result_abc123_en_female.mp4"))

	sess, ok, err := store.LoadSession(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "lecture.mp4", sess.Video.OriginalName)
	assert.Equal(t, int64(180000), sess.Video.DurationMS)

	require.Len(t, sess.Segments, 2)
	assert.Equal(t, "ko", sess.SourceLanguage)
	assert.Equal(t, "반갑습니다", sess.Segments[1].Text)

	tr, ok := sess.Translation("en")
	require.True(t, ok)
	assert.Equal(t, "Hello", tr.Segments[0].TranslatedText)
	assert.Equal(t, "/data/processed/translated_abc123_en.srt", tr.SRTPath)

	audio, ok := sess.AudioFor("en", "female")
	require.True(t, ok)
	assert.Equal(t, "/data/processed/tts_abc123_en_female.wav", audio.Path)

	result, ok := sess.ResultFor("en", "female")
	require.True(t, ok)
	assert.Equal(t, "/data/results/result_abc123_en_female.mp4", result)
}

func TestStoreLoadMissingSession(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.LoadSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreTrimStatePersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset := sampleAsset()
	require.NoError(t, store.SaveVideo(ctx, asset))

	start, end := int64(5000), int64(120000)
	asset.Trimmed = true
	asset.TrimmedPath = "/data/processed/trimmed_abc123.mp4"
	asset.TrimStartMS = &start
	asset.TrimEndMS = &end
	require.NoError(t, store.SaveVideo(ctx, asset))

	sess, ok, err := store.LoadSession(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, sess.Video.Trimmed)
	assert.Equal(t, "/data/processed/trimmed_abc123.mp4", sess.Video.EffectivePath())
	require.NotNil(t, sess.Video.TrimStartMS)
	assert.Equal(t, int64(5000), *sess.Video.TrimStartMS)
	require.NotNil(t, sess.Video.TrimEndMS)
	assert.Equal(t, int64(120000), *sess.Video.TrimEndMS)
}

func TestStoreTranslationUpsertIsPerLanguage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVideo(ctx, sampleAsset()))
	require.NoError(t, store.SaveTranslation(ctx, "abc123", &Translation{Language: "en", SRTPath: "/en_v1.srt"}))
	require.NoError(t, store.SaveTranslation(ctx, "abc123", &Translation{Language: "de", SRTPath: "/de_v1.srt"}))
	require.NoError(t, store.SaveTranslation(ctx, "abc123", &Translation{Language: "en", SRTPath: "/en_v2.srt"}))

	sess, _, err := store.LoadSession(ctx, "abc123")
	require.NoError(t, err)

	en, _ := sess.Translation("en")
	de, _ := sess.Translation("de")
	assert.Equal(t, "/en_v2.srt", en.SRTPath)
	assert.Equal(t, "/de_v1.srt", de.SRTPath)
}

func TestStoreCurrentSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.CurrentVideoID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetCurrent(ctx, "abc123"))
	id, ok, err := store.CurrentVideoID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	require.NoError(t, store.SetCurrent(ctx, "def456"))
	id, _, _ = store.CurrentVideoID(ctx)
	assert.Equal(t, "def456", id)
}

func TestStoreDeleteDerived(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVideo(ctx, sampleAsset()))
	require.NoError(t, store.SaveSubtitles(ctx, "abc123", "ko", "/s.srt", []subtitle.Segment{{ID: 1}}))
	require.NoError(t, store.SaveTranslation(ctx, "abc123", &Translation{Language: "en"}))
	require.NoError(t, store.SaveAudio(ctx, "abc123", &AudioArtifact{Language: "en", Gender: "female"}))
	require.NoError(t, store.SaveResult(ctx, "abc123", "en", "female", "/r.mp4"))

	require.NoError(t, store.DeleteDerived(ctx, "abc123"))

	sess, ok, err := store.LoadSession(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok, "video row survives a derived-state wipe")
	assert.False(t, sess.HasSubtitles())
	assert.Empty(t, sess.Translations)
	assert.Empty(t, sess.Audio)
	assert.Empty(t, sess.Results)
}

func TestStoreDeleteSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVideo(ctx, sampleAsset()))
	require.NoError(t, store.SetCurrent(ctx, "abc123"))
	require.NoError(t, store.DeleteSession(ctx, "abc123"))

	_, ok, err := store.LoadSession(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.CurrentVideoID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
