package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"dubflow/internal/media"
	"dubflow/internal/session"
	"dubflow/internal/subtitle"
	"dubflow/internal/transcribe"
	"dubflow/internal/translate"
	"dubflow/pkg/file"
	"dubflow/pkg/log"
)

// Upload is the capability the upload stage needs from a source file:
// a name to validate, a size to record and the bytes themselves.
type Upload interface {
	io.Reader
	Name() string
	Size() int64
}

// UploadVideo validates and stores a new source video, probes its
// duration once, and starts a fresh session around it.
func (p *Pipeline) UploadVideo(ctx context.Context, upload Upload) (*session.VideoAsset, error) {
	ext := file.Ext(upload.Name())
	if !p.allowedVideo(ext) {
		return nil, NewError(ErrValidation, "unsupported video format").
			WithContext("name", upload.Name()).
			WithContext("allowed", strings.Join(p.cfg.Storage.AllowedVideo, ","))
	}

	id := newFileID()
	savedName := fmt.Sprintf("original_%s.%s", id, ext)
	path := filepath.Join(p.cfg.Storage.UploadDir, savedName)

	if err := os.MkdirAll(p.cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, WrapError(err, ErrConfiguration, "upload directory is not writable")
	}
	dst, err := os.Create(path)
	if err != nil {
		return nil, WrapError(err, ErrInternal, "failed to create upload target")
	}
	written, err := io.Copy(dst, upload)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, WrapError(err, ErrInternal, "failed to save uploaded video")
	}

	durationMS, err := p.media.ProbeDuration(ctx, path)
	if err != nil {
		_ = os.Remove(path)
		return nil, WrapError(err, ErrMediaProcessing, "uploaded file is not a readable video")
	}

	asset := &session.VideoAsset{
		ID:           id,
		OriginalName: upload.Name(),
		SavedName:    savedName,
		Path:         path,
		Size:         written,
		Type:         ext,
		DurationMS:   durationMS,
	}
	if err := p.store.SaveVideo(ctx, asset); err != nil {
		return nil, WrapError(err, ErrInternal, "failed to persist video asset")
	}
	if err := p.store.SetCurrent(ctx, id); err != nil {
		return nil, WrapError(err, ErrInternal, "failed to mark session current")
	}

	p.sess = session.New(asset)
	log.Info("uploaded %s as %s (%d bytes, %dms)", upload.Name(), savedName, written, durationMS)
	return asset, nil
}

// Trim cuts the source video to [startMS, endMS). A nil endMS means "to
// the end". Re-trimming overwrites the previous derivative; the original
// upload is always kept and always used as the trim input.
func (p *Pipeline) Trim(ctx context.Context, startMS int64, endMS *int64) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	asset := p.sess.Video

	if startMS < 0 {
		return NewError(ErrValidation, "trim start must not be negative")
	}
	if endMS != nil && *endMS <= startMS {
		return NewError(ErrValidation, "trim start must precede trim end").
			WithContext("start_ms", startMS).
			WithContext("end_ms", *endMS)
	}
	if endMS != nil && *endMS > asset.DurationMS {
		return NewError(ErrValidation, "trim end exceeds video duration").
			WithContext("end_ms", *endMS).
			WithContext("duration_ms", asset.DurationMS)
	}

	trimmedPath, err := p.media.Trim(ctx, asset.Path, startMS, endMS, p.cfg.Storage.ProcessedDir)
	if err != nil {
		return WrapError(err, ErrMediaProcessing, "video trim failed")
	}

	if trimmedPath == asset.Path {
		// whole-video range: clear any previous trim state
		asset.Trimmed = false
		asset.TrimmedPath = ""
		asset.TrimStartMS = nil
		asset.TrimEndMS = nil
	} else {
		asset.Trimmed = true
		asset.TrimmedPath = trimmedPath
		asset.TrimStartMS = &startMS
		asset.TrimEndMS = endMS
	}

	if err := p.store.SaveVideo(ctx, asset); err != nil {
		return WrapError(err, ErrInternal, "failed to persist trim state")
	}
	return nil
}

// Transcribe extracts subtitles from the effective video through the
// speech-to-text service. One attempt, no retries; a cached segment set
// is only replaced with the overwrite flag.
func (p *Pipeline) Transcribe(ctx context.Context, opts transcribe.Options, overwrite bool) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	if p.sess.HasSubtitles() && !overwrite {
		return WrapError(session.ErrCacheExists, ErrValidation, "subtitles already extracted; pass overwrite to replace them")
	}

	videoPath := p.relativeToData(p.sess.Video.EffectivePath())
	subtitlePath, err := p.transcriber.Transcribe(ctx, videoPath, opts)
	if err != nil {
		if errors.Is(err, transcribe.ErrTranscriptionFailed) {
			return WrapError(err, ErrUpstreamService, "transcription service failed")
		}
		return WrapError(err, ErrValidation, "invalid transcription request")
	}

	absPath := subtitlePath
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(p.cfg.Storage.DataDir, subtitlePath)
	}
	segments, err := subtitle.ParseSRTFile(absPath)
	if err != nil {
		return WrapError(err, ErrUpstreamService, "transcription produced an unreadable subtitle file").
			WithContext("path", absPath)
	}

	sourceLanguage := opts.Language
	if sourceLanguage == "" || sourceLanguage == "auto" {
		sourceLanguage = p.detectSource(segments)
	}

	p.sess.SetSubtitles(segments, sourceLanguage, absPath)
	if err := p.store.SaveSubtitles(ctx, p.sess.Video.ID, sourceLanguage, absPath, segments); err != nil {
		return WrapError(err, ErrInternal, "failed to persist subtitles")
	}
	log.Info("transcribed %d segments (language=%s)", len(segments), sourceLanguage)
	return nil
}

// ImportSubtitles replaces the current segment set wholesale from an
// SRT or line-format file the user provides.
func (p *Pipeline) ImportSubtitles(ctx context.Context, srcPath string, overwrite bool) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	if p.sess.HasSubtitles() && !overwrite {
		return WrapError(session.ErrCacheExists, ErrValidation, "subtitles already present; pass overwrite to replace them")
	}

	var segments []subtitle.Segment
	var err error
	ext := file.Ext(srcPath)
	switch ext {
	case "srt":
		segments, err = subtitle.ParseSRTFile(srcPath)
	case "txt":
		segments, err = subtitle.ParseLineFormatFile(srcPath)
	default:
		return NewError(ErrValidation, "subtitle file must be .srt or .txt").WithContext("path", srcPath)
	}
	if err != nil {
		return WrapError(err, ErrValidation, "failed to parse subtitle file").WithContext("path", srcPath)
	}
	if len(segments) == 0 {
		return NewError(ErrValidation, "subtitle file contains no usable segments").WithContext("path", srcPath)
	}

	savedPath := filepath.Join(p.cfg.Storage.ProcessedDir,
		fmt.Sprintf("edited_subtitle_%s.%s", p.sess.Video.ID, ext))
	format := subtitle.FormatForPath(savedPath)
	if err := subtitle.WriteFile(savedPath, segments, format, false); err != nil {
		return WrapError(err, ErrInternal, "failed to save imported subtitles")
	}

	sourceLanguage := p.detectSource(segments)
	p.sess.SetSubtitles(segments, sourceLanguage, savedPath)
	if err := p.store.SaveSubtitles(ctx, p.sess.Video.ID, sourceLanguage, savedPath, segments); err != nil {
		return WrapError(err, ErrInternal, "failed to persist subtitles")
	}
	log.Info("imported %d segments from %s", len(segments), srcPath)
	return nil
}

// ExportSubtitles writes the current segment set to path, choosing SRT
// or line format from the extension. With language set the translated
// text of that language is rendered instead of the source text.
func (p *Pipeline) ExportSubtitles(path, language string) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	if !p.sess.HasSubtitles() {
		return NewError(ErrValidation, session.ErrNoSubtitles.Error())
	}

	segments := p.sess.Segments
	useTranslated := false
	if language != "" {
		record, ok := p.sess.Translation(language)
		if !ok {
			return NewError(ErrValidation, session.ErrNoTranslation.Error()).WithContext("language", language)
		}
		segments = record.Segments
		useTranslated = true
	}

	if err := subtitle.WriteFile(path, segments, subtitle.FormatForPath(path), useTranslated); err != nil {
		return WrapError(err, ErrInternal, "failed to write subtitle export")
	}
	return nil
}

// Translate produces the target language's translation record and its
// serialized artifact pair. Per-language caching: an existing record is
// only replaced with the overwrite flag and other languages are never
// touched. On upstream exhaustion the whole operation fails and nothing
// is cached.
func (p *Pipeline) Translate(ctx context.Context, targetLanguage string, overwrite bool) (translate.Result, error) {
	if err := p.requireSession(); err != nil {
		return translate.Result{}, err
	}
	if !p.sess.HasSubtitles() {
		return translate.Result{}, NewError(ErrValidation, session.ErrNoSubtitles.Error())
	}
	if !p.supportedLanguage(targetLanguage) {
		return translate.Result{}, NewError(ErrValidation, "unsupported target language").
			WithContext("language", targetLanguage).
			WithContext("supported", strings.Join(p.cfg.Language.Supported, ","))
	}
	if _, exists := p.sess.Translation(targetLanguage); exists && !overwrite {
		return translate.Result{}, WrapError(session.ErrCacheExists, ErrValidation, "translation already cached; pass overwrite to redo it").
			WithContext("language", targetLanguage)
	}

	// translate a copy so the source segment set stays pristine
	segments := make([]subtitle.Segment, len(p.sess.Segments))
	copy(segments, p.sess.Segments)

	result, err := p.translator.Translate(ctx, segments, p.sess.SourceLanguage, targetLanguage)
	if err != nil {
		return result, WrapError(err, ErrUpstreamService, "translation failed").
			WithContext("language", targetLanguage)
	}
	if !result.Complete() {
		log.Warn("translation to %s left %d segments untranslated", targetLanguage, len(result.MissingIDs))
	}

	id := p.sess.Video.ID
	srtPath := filepath.Join(p.cfg.Storage.ProcessedDir, fmt.Sprintf("translated_%s_%s.srt", id, targetLanguage))
	textPath := filepath.Join(p.cfg.Storage.ProcessedDir, fmt.Sprintf("translated_%s_%s.txt", id, targetLanguage))
	if err := subtitle.WriteFile(srtPath, segments, subtitle.FormatSRT, true); err != nil {
		return result, WrapError(err, ErrInternal, "failed to write translated srt")
	}
	if err := subtitle.WriteFile(textPath, segments, subtitle.FormatLine, true); err != nil {
		return result, WrapError(err, ErrInternal, "failed to write translated text")
	}

	record := &session.Translation{
		Language: targetLanguage,
		Segments: segments,
		SRTPath:  srtPath,
		TextPath: textPath,
	}
	if err := p.sess.PutTranslation(record, overwrite); err != nil {
		return result, WrapError(err, ErrInternal, "failed to cache translation")
	}
	if err := p.store.SaveTranslation(ctx, id, record); err != nil {
		return result, WrapError(err, ErrInternal, "failed to persist translation")
	}
	log.Info("translated %d/%d segments to %s", result.Translated, result.Requested, targetLanguage)
	return result, nil
}

// Synthesize produces the language+gender voice track from the cached
// translation.
func (p *Pipeline) Synthesize(ctx context.Context, targetLanguage, gender string, overwrite bool) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	record, ok := p.sess.Translation(targetLanguage)
	if !ok {
		return NewError(ErrValidation, session.ErrNoTranslation.Error()).WithContext("language", targetLanguage)
	}
	if _, exists := p.sess.AudioFor(targetLanguage, gender); exists && !overwrite {
		return WrapError(session.ErrCacheExists, ErrValidation, "audio already synthesized; pass overwrite to redo it").
			WithContext("key", session.CacheKey(targetLanguage, gender))
	}

	outputPath := filepath.Join(p.cfg.Storage.ProcessedDir,
		fmt.Sprintf("tts_%s_%s.wav", p.sess.Video.ID, session.CacheKey(targetLanguage, gender)))
	if err := p.synthesizer.Synthesize(ctx, record.Segments, targetLanguage, gender, outputPath); err != nil {
		return WrapError(err, ErrUpstreamService, "speech synthesis failed").
			WithContext("key", session.CacheKey(targetLanguage, gender))
	}

	artifact := &session.AudioArtifact{Language: targetLanguage, Gender: gender, Path: outputPath}
	if err := p.sess.PutAudio(artifact, overwrite); err != nil {
		return WrapError(err, ErrInternal, "failed to cache audio artifact")
	}
	if err := p.store.SaveAudio(ctx, p.sess.Video.ID, artifact); err != nil {
		return WrapError(err, ErrInternal, "failed to persist audio artifact")
	}
	return nil
}

// Compose muxes the synthesized audio over the effective video and,
// when requested, burns the translated subtitles in. The result path is
// deterministic per video id, language and gender.
func (p *Pipeline) Compose(ctx context.Context, targetLanguage, gender string, includeSubtitles, overwrite bool) (string, error) {
	if err := p.requireSession(); err != nil {
		return "", err
	}
	audio, ok := p.sess.AudioFor(targetLanguage, gender)
	if !ok {
		return "", NewError(ErrValidation, session.ErrNoAudio.Error()).
			WithContext("key", session.CacheKey(targetLanguage, gender))
	}
	if _, exists := p.sess.ResultFor(targetLanguage, gender); exists && !overwrite {
		return "", WrapError(session.ErrCacheExists, ErrValidation, "result already composed; pass overwrite to redo it").
			WithContext("key", session.CacheKey(targetLanguage, gender))
	}

	subtitlePath := ""
	if includeSubtitles {
		record, ok := p.sess.Translation(targetLanguage)
		if !ok {
			return "", NewError(ErrValidation, session.ErrNoTranslation.Error()).WithContext("language", targetLanguage)
		}
		subtitlePath = record.SRTPath
	}

	resultPath, err := p.media.Combine(ctx, media.CombineRequest{
		VideoPath:    p.sess.Video.EffectivePath(),
		AudioPath:    audio.Path,
		SubtitlePath: subtitlePath,
		OutputDir:    p.cfg.Storage.ResultsDir,
		WorkDir:      p.cfg.Storage.ProcessedDir,
		Language:     targetLanguage,
		Gender:       gender,
	})
	if err != nil {
		return "", WrapError(err, ErrMediaProcessing, "final composition failed")
	}

	if err := p.sess.PutResult(targetLanguage, gender, resultPath, overwrite); err != nil {
		return "", WrapError(err, ErrInternal, "failed to cache result")
	}
	if err := p.store.SaveResult(ctx, p.sess.Video.ID, targetLanguage, gender, resultPath); err != nil {
		return "", WrapError(err, ErrInternal, "failed to persist result")
	}
	log.Info("composed %s", resultPath)
	return resultPath, nil
}

// Clean removes the session's temporary files from the upload and
// processed areas, keeping anything named like a result.
func (p *Pipeline) Clean(ctx context.Context) error {
	if err := p.requireSession(); err != nil {
		return err
	}

	id := p.sess.Video.ID
	for _, dir := range []string{p.cfg.Storage.UploadDir, p.cfg.Storage.ProcessedDir} {
		matches, err := file.FindContaining(dir, id)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return WrapError(err, ErrInternal, "failed to scan for temporary files").WithContext("dir", dir)
		}
		for _, path := range matches {
			if strings.Contains(filepath.Base(path), "result") {
				continue
			}
			if err := os.Remove(path); err != nil {
				log.Warn("failed to remove %s: %v", path, err)
				continue
			}
			log.Debug("removed temporary file %s", path)
		}
	}
	return nil
}

func (p *Pipeline) allowedVideo(ext string) bool {
	for _, allowed := range p.cfg.Storage.AllowedVideo {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (p *Pipeline) supportedLanguage(code string) bool {
	for _, lang := range p.cfg.Language.Supported {
		if code == lang {
			return true
		}
	}
	return false
}

// relativeToData converts an absolute artifact path to the form the
// transcription service expects: relative to the shared data volume.
func (p *Pipeline) relativeToData(path string) string {
	rel, err := filepath.Rel(p.cfg.Storage.DataDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func (p *Pipeline) detectSource(segments []subtitle.Segment) string {
	tag := subtitle.DetectLanguage(segments)
	base, confidence := tag.Base()
	if confidence == 0 {
		return p.cfg.Language.DefaultSource
	}
	return base.String()
}

func newFileID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
