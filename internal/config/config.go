package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration, loaded from environment
// variables with sensible defaults.
//
// Environment Variables:
//
// Translation service:
//   - OPENAI_API_KEY: API key for the translation provider (required for the translate stage)
//   - OPENAI_API_URL: API endpoint URL (default: https://api.openai.com/v1)
//   - OPENAI_MODEL: Model name (default: gpt-4)
//   - OPENAI_TIMEOUT: Request timeout in seconds (default: 120)
//
// Transcription service:
//   - WHISPER_API_URL: Whisper HTTP service base URL (default: http://whisper:9000)
//   - WHISPER_TIMEOUT: Request timeout in seconds (default: 300)
//   - WHISPER_MODEL_SIZE: Default model size (default: large-v3)
//
// Speech synthesis:
//   - TTS_COMMAND: Synthesis binary invoked per request (default: tts)
//   - TTS_MODEL: Voice model identifier passed to the binary (default: xtts_v2)
//   - TTS_SPEAKERS_FILE: Voice roster YAML path (default: config/tts_speakers.yaml)
//
// Storage:
//   - DATA_DIR: Root data directory (default: /data)
//   - UPLOAD_DIR, PROCESSED_DIR, RESULTS_DIR: Override individual areas
//   - DB_PATH: Session database path (default: <DATA_DIR>/dubflow.db)
//   - ALLOWED_VIDEO_FORMATS: Comma-separated extensions (default: mp4,avi)
//
// Languages:
//   - DEFAULT_SOURCE_LANGUAGE: Source language hint (default: ko)
//   - SUPPORTED_LANGUAGES: Comma-separated target codes (default: en,ja,zh,de,id)
//
// Media backend:
//   - FFMPEG_PATH, FFPROBE_PATH: Binary overrides (default: ffmpeg / ffprobe)
//
// Janitor:
//   - CLEANUP_CRON: Sweep schedule (default: 0 0 * * *)
//   - CLEANUP_MAX_AGE_HOURS: Stale temp artifact age (default: 72)
//
// System:
//   - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	LLM      LLMConfig
	Whisper  WhisperConfig
	TTS      TTSConfig
	Storage  StorageConfig
	Language LanguageConfig
	Media    MediaConfig
	Janitor  JanitorConfig
	LogLevel string
}

// LLMConfig configures the chat-completion translation backend.
type LLMConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout int
}

// WhisperConfig configures the external transcription HTTP service.
type WhisperConfig struct {
	APIURL    string
	Timeout   int
	ModelSize string
}

// TTSConfig configures the speech-synthesis engine.
type TTSConfig struct {
	Command      string
	Model        string
	SpeakersFile string
}

// StorageConfig describes the persisted file layout: uploads hold
// original assets, processed holds intermediate artifacts, results the
// final composed videos.
type StorageConfig struct {
	DataDir      string
	UploadDir    string
	ProcessedDir string
	ResultsDir   string
	DBPath       string
	AllowedVideo []string
}

// LanguageConfig holds the language defaults.
type LanguageConfig struct {
	DefaultSource string
	Supported     []string
}

// MediaConfig points at the media backend binaries.
type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// JanitorConfig drives the scheduled temp-file sweep.
type JanitorConfig struct {
	CronExpr    string
	MaxAgeHours int
}

// Option is a function type for configuring Config.
type Option func(*Config)

// NewFromEnv creates a Config from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("DATA_DIR", "/data")

	config := &Config{
		LLM: LLMConfig{
			APIKey:  getEnvString("OPENAI_API_KEY", ""),
			APIURL:  getEnvString("OPENAI_API_URL", "https://api.openai.com/v1"),
			Model:   getEnvString("OPENAI_MODEL", "gpt-4"),
			Timeout: getEnvInt("OPENAI_TIMEOUT", 120),
		},
		Whisper: WhisperConfig{
			APIURL:    getEnvString("WHISPER_API_URL", "http://whisper:9000"),
			Timeout:   getEnvInt("WHISPER_TIMEOUT", 300),
			ModelSize: getEnvString("WHISPER_MODEL_SIZE", "large-v3"),
		},
		TTS: TTSConfig{
			Command:      getEnvString("TTS_COMMAND", "tts"),
			Model:        getEnvString("TTS_MODEL", "xtts_v2"),
			SpeakersFile: getEnvString("TTS_SPEAKERS_FILE", "config/tts_speakers.yaml"),
		},
		Storage: StorageConfig{
			DataDir:      dataDir,
			UploadDir:    getEnvString("UPLOAD_DIR", filepath.Join(dataDir, "uploads")),
			ProcessedDir: getEnvString("PROCESSED_DIR", filepath.Join(dataDir, "processed")),
			ResultsDir:   getEnvString("RESULTS_DIR", filepath.Join(dataDir, "results")),
			DBPath:       getEnvString("DB_PATH", filepath.Join(dataDir, "dubflow.db")),
			AllowedVideo: splitList(getEnvString("ALLOWED_VIDEO_FORMATS", "mp4,avi")),
		},
		Language: LanguageConfig{
			DefaultSource: getEnvString("DEFAULT_SOURCE_LANGUAGE", "ko"),
			Supported:     splitList(getEnvString("SUPPORTED_LANGUAGES", "en,ja,zh,de,id")),
		},
		Media: MediaConfig{
			FFmpegPath:  getEnvString("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnvString("FFPROBE_PATH", "ffprobe"),
		},
		Janitor: JanitorConfig{
			CronExpr:    getEnvString("CLEANUP_CRON", "0 0 * * *"),
			MaxAgeHours: getEnvInt("CLEANUP_MAX_AGE_HOURS", 72),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if len(c.Storage.AllowedVideo) == 0 {
		return fmt.Errorf("ALLOWED_VIDEO_FORMATS must list at least one extension")
	}
	if len(c.Language.Supported) == 0 {
		return fmt.Errorf("SUPPORTED_LANGUAGES must list at least one language")
	}
	return nil
}

// EnsureDirs creates the upload, processed and results directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Storage.UploadDir, c.Storage.ProcessedDir, c.Storage.ResultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ret = append(ret, strings.ToLower(trimmed))
		}
	}
	return ret
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
