// Package config loads emadesk's configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDir     = "emadesk"
	configFile = "config.yaml"
	envPrefix  = "EMADESK_"
)

// Config is the top-level structure of config.yaml.
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Agent       AgentConfig       `yaml:"agent"`
	Locale      LocaleConfig      `yaml:"locale"`
	Translation TranslationConfig `yaml:"translation"`
	Voice       VoiceConfig       `yaml:"voice"`
	Deepgram    DeepgramConfig    `yaml:"deepgram"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Render      RenderConfig      `yaml:"render"`
}

type BackendConfig struct {
	URL string `yaml:"url"`
	// LinksPath enables the links side-channel when set.
	LinksPath     string            `yaml:"links_path"`
	MaxAudioBytes int               `yaml:"max_audio_bytes"`
	Headers       map[string]string `yaml:"headers"`
}

type AgentConfig struct {
	// Default is the agent selected at start, empty means the backend's
	// default.
	Default    string            `yaml:"default"`
	AccessKeys map[string]string `yaml:"access_keys"`
	// Overrides are merged over the catalogs served by the backend, keyed by
	// agent id or "*" for all agents.
	Overrides map[string]map[string]any `yaml:"overrides"`
}

type LocaleConfig struct {
	Language string `yaml:"language"`
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
}

type TranslationConfig struct {
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`
}

type VoiceConfig struct {
	// Strategy is "whisper" (record then transcribe) or "deepgram" (live).
	Strategy string `yaml:"strategy"`
	// AudioBackend is "miniaudio" or "portaudio".
	AudioBackend string        `yaml:"audio_backend"`
	SampleRate   int           `yaml:"sample_rate"`
	Channels     int           `yaml:"channels"`
	WarnAfter    time.Duration `yaml:"warn_after"`
	MaxDuration  time.Duration `yaml:"max_duration"`
	MinBytes     int           `yaml:"min_bytes"`
}

type DeepgramConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type PlaybackConfig struct {
	// Synthesizer is "backend" (the agent backend's speech endpoint) or
	// "deepgram".
	Synthesizer string `yaml:"synthesizer"`
	// Command receives the synthesized audio on stdin.
	Command []string `yaml:"command"`
}

type RenderConfig struct {
	Markdown bool   `yaml:"markdown"`
	Style    string `yaml:"style"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:           "http://localhost:8000",
			MaxAudioBytes: 25 << 20,
		},
		Locale: LocaleConfig{
			Language: "fr",
			Timezone: "UTC",
			Locale:   "fr-FR",
		},
		Translation: TranslationConfig{
			SourceLanguage: "auto",
			TargetLanguage: "en",
		},
		Voice: VoiceConfig{
			Strategy:     "whisper",
			AudioBackend: "miniaudio",
			SampleRate:   16000,
			Channels:     1,
			WarnAfter:    50 * time.Second,
			MaxDuration:  60 * time.Second,
			MinBytes:     16000,
		},
		Deepgram: DeepgramConfig{
			Model: "nova-2",
		},
		Playback: PlaybackConfig{
			Synthesizer: "backend",
			Command:     []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"},
		},
		Render: RenderConfig{
			Markdown: true,
			Style:    "auto",
		},
	}
}

// DefaultPath is config.yaml below the user's configuration directory,
// honouring XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, appDir, configFile), nil
}

// Load reads the configuration at path, then applies environment overrides
// and fills anything left unset with defaults. An empty path reads
// [DefaultPath] and tolerates it being absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// Write stores cfg at path, creating parent directories as needed.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Backend.URL, envPrefix+"BACKEND_URL")
	setString(&cfg.Backend.LinksPath, envPrefix+"LINKS_PATH")
	setString(&cfg.Agent.Default, envPrefix+"AGENT")
	setString(&cfg.Locale.Language, envPrefix+"LANGUAGE")
	setString(&cfg.Locale.Timezone, envPrefix+"TIMEZONE")
	setString(&cfg.Locale.Locale, envPrefix+"LOCALE")
	setString(&cfg.Translation.SourceLanguage, envPrefix+"SOURCE_LANGUAGE")
	setString(&cfg.Translation.TargetLanguage, envPrefix+"TARGET_LANGUAGE")
	setString(&cfg.Voice.Strategy, envPrefix+"VOICE_STRATEGY")
	setString(&cfg.Voice.AudioBackend, envPrefix+"AUDIO_BACKEND")
	setInt(&cfg.Voice.SampleRate, envPrefix+"SAMPLE_RATE")
	setString(&cfg.Playback.Synthesizer, envPrefix+"SYNTHESIZER")
	setString(&cfg.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	setString(&cfg.Deepgram.Model, "DEEPGRAM_MODEL")
	setString(&cfg.Deepgram.Language, "DEEPGRAM_LANGUAGE")
	if command := strings.Fields(os.Getenv(envPrefix + "PLAYER_COMMAND")); len(command) > 0 {
		cfg.Playback.Command = command
	}
	if value, ok := envBool(envPrefix + "MARKDOWN"); ok {
		cfg.Render.Markdown = value
	}
}

func (cfg *Config) normalize() {
	defaults := Default()
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.MaxAudioBytes <= 0 {
		cfg.Backend.MaxAudioBytes = defaults.Backend.MaxAudioBytes
	}
	if cfg.Voice.SampleRate <= 0 {
		cfg.Voice.SampleRate = defaults.Voice.SampleRate
	}
	if cfg.Voice.Channels <= 0 {
		cfg.Voice.Channels = defaults.Voice.Channels
	}
	if cfg.Voice.MaxDuration <= 0 {
		cfg.Voice.MaxDuration = defaults.Voice.MaxDuration
	}
	if cfg.Voice.WarnAfter <= 0 || cfg.Voice.WarnAfter >= cfg.Voice.MaxDuration {
		cfg.Voice.WarnAfter = cfg.Voice.MaxDuration * 5 / 6
	}
	if cfg.Voice.MinBytes < 0 {
		cfg.Voice.MinBytes = 0
	}
	if cfg.Translation.SourceLanguage == "" {
		cfg.Translation.SourceLanguage = defaults.Translation.SourceLanguage
	}
	if cfg.Translation.TargetLanguage == "" {
		cfg.Translation.TargetLanguage = defaults.Translation.TargetLanguage
	}
	if cfg.Playback.Synthesizer == "" {
		cfg.Playback.Synthesizer = defaults.Playback.Synthesizer
	}
	if len(cfg.Playback.Command) == 0 {
		cfg.Playback.Command = defaults.Playback.Command
	}
}

func setString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func setInt(target *int, key string) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		*target = parsed
	}
}

func envBool(key string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
