package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dubflow/internal/subtitle"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store persists sessions across CLI invocations in a local sqlite
// database.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *Store) SaveVideo(ctx context.Context, asset *VideoAsset) error {
	if asset == nil {
		return fmt.Errorf("video asset is nil")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
			id, original_name, saved_name, path, size, type, duration_ms,
			trimmed, trimmed_path, trim_start_ms, trim_end_ms, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trimmed=excluded.trimmed,
			trimmed_path=excluded.trimmed_path,
			trim_start_ms=excluded.trim_start_ms,
			trim_end_ms=excluded.trim_end_ms,
			updated_at=excluded.updated_at`,
		asset.ID,
		asset.OriginalName,
		asset.SavedName,
		asset.Path,
		asset.Size,
		asset.Type,
		asset.DurationMS,
		boolToInt(asset.Trimmed),
		asset.TrimmedPath,
		asset.TrimStartMS,
		asset.TrimEndMS,
		now,
		now,
	)
	return err
}

func (s *Store) SaveSubtitles(ctx context.Context, videoID, sourceLanguage, filePath string, segments []subtitle.Segment) error {
	payload, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO subtitle_sets (video_id, source_language, file_path, segments_json, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET
			source_language=excluded.source_language,
			file_path=excluded.file_path,
			segments_json=excluded.segments_json,
			updated_at=excluded.updated_at`,
		videoID,
		sourceLanguage,
		filePath,
		string(payload),
		time.Now().UTC(),
	)
	return err
}

func (s *Store) SaveTranslation(ctx context.Context, videoID string, t *Translation) error {
	if t == nil {
		return fmt.Errorf("translation is nil")
	}
	payload, err := json.Marshal(t.Segments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO translations (video_id, language, segments_json, srt_path, text_path, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(video_id, language) DO UPDATE SET
			segments_json=excluded.segments_json,
			srt_path=excluded.srt_path,
			text_path=excluded.text_path,
			updated_at=excluded.updated_at`,
		videoID,
		t.Language,
		string(payload),
		t.SRTPath,
		t.TextPath,
		time.Now().UTC(),
	)
	return err
}

func (s *Store) SaveAudio(ctx context.Context, videoID string, a *AudioArtifact) error {
	if a == nil {
		return fmt.Errorf("audio artifact is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audio_artifacts (video_id, cache_key, language, gender, path, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(video_id, cache_key) DO UPDATE SET
			language=excluded.language,
			gender=excluded.gender,
			path=excluded.path,
			updated_at=excluded.updated_at`,
		videoID,
		CacheKey(a.Language, a.Gender),
		a.Language,
		a.Gender,
		a.Path,
		time.Now().UTC(),
	)
	return err
}

func (s *Store) SaveResult(ctx context.Context, videoID, language, gender, path string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO results (video_id, cache_key, path, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(video_id, cache_key) DO UPDATE SET
			path=excluded.path,
			updated_at=excluded.updated_at`,
		videoID,
		CacheKey(language, gender),
		path,
		time.Now().UTC(),
	)
	return err
}

// LoadSession reassembles the full session for a video id. The second
// return is false when no such video exists.
func (s *Store) LoadSession(ctx context.Context, videoID string) (*Session, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, original_name, saved_name, path, size, type, duration_ms,
			trimmed, trimmed_path, trim_start_ms, trim_end_ms
		 FROM videos WHERE id = ?`,
		videoID,
	)

	asset := &VideoAsset{}
	var trimmed int
	if err := row.Scan(
		&asset.ID,
		&asset.OriginalName,
		&asset.SavedName,
		&asset.Path,
		&asset.Size,
		&asset.Type,
		&asset.DurationMS,
		&trimmed,
		&asset.TrimmedPath,
		&asset.TrimStartMS,
		&asset.TrimEndMS,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	asset.Trimmed = trimmed == 1

	sess := New(asset)

	var segmentsJSON string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT source_language, file_path, segments_json FROM subtitle_sets WHERE video_id = ?`,
		videoID,
	).Scan(&sess.SourceLanguage, &sess.SubtitlePath, &segmentsJSON)
	switch err {
	case nil:
		if err := json.Unmarshal([]byte(segmentsJSON), &sess.Segments); err != nil {
			return nil, false, fmt.Errorf("decode subtitle set: %w", err)
		}
	case sql.ErrNoRows:
	default:
		return nil, false, err
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT language, segments_json, srt_path, text_path FROM translations WHERE video_id = ?`,
		videoID,
	)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		t := &Translation{}
		var payload string
		if err := rows.Scan(&t.Language, &payload, &t.SRTPath, &t.TextPath); err != nil {
			return nil, false, err
		}
		if err := json.Unmarshal([]byte(payload), &t.Segments); err != nil {
			return nil, false, fmt.Errorf("decode translation %s: %w", t.Language, err)
		}
		sess.Translations[t.Language] = t
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	audioRows, err := s.db.QueryContext(
		ctx,
		`SELECT cache_key, language, gender, path FROM audio_artifacts WHERE video_id = ?`,
		videoID,
	)
	if err != nil {
		return nil, false, err
	}
	defer audioRows.Close()
	for audioRows.Next() {
		a := &AudioArtifact{}
		var key string
		if err := audioRows.Scan(&key, &a.Language, &a.Gender, &a.Path); err != nil {
			return nil, false, err
		}
		sess.Audio[key] = a
	}
	if err := audioRows.Err(); err != nil {
		return nil, false, err
	}

	resultRows, err := s.db.QueryContext(
		ctx,
		`SELECT cache_key, path FROM results WHERE video_id = ?`,
		videoID,
	)
	if err != nil {
		return nil, false, err
	}
	defer resultRows.Close()
	for resultRows.Next() {
		var key, path string
		if err := resultRows.Scan(&key, &path); err != nil {
			return nil, false, err
		}
		sess.Results[key] = path
	}
	if err := resultRows.Err(); err != nil {
		return nil, false, err
	}

	return sess, true, nil
}

// SetCurrent marks the session CLI subcommands operate on by default.
func (s *Store) SetCurrent(ctx context.Context, videoID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO current_session (id, video_id, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			video_id=excluded.video_id,
			updated_at=excluded.updated_at`,
		videoID,
		time.Now().UTC(),
	)
	return err
}

func (s *Store) CurrentVideoID(ctx context.Context) (string, bool, error) {
	var videoID string
	err := s.db.QueryRowContext(ctx, `SELECT video_id FROM current_session WHERE id = 1`).Scan(&videoID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return videoID, true, nil
}

// DeleteDerived drops everything but the video row, mirroring
// Session.Reset in the persistent copy.
func (s *Store) DeleteDerived(ctx context.Context, videoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"subtitle_sets", "translations", "audio_artifacts", "results"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE video_id = ?`, table), videoID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteSession removes the session entirely, video row included.
func (s *Store) DeleteSession(ctx context.Context, videoID string) error {
	if err := s.DeleteDerived(ctx, videoID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, videoID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM current_session WHERE video_id = ?`, videoID)
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
