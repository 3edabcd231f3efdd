package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"subgen/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultConfigFile is the file name probed in the working directory when no
// explicit path is supplied.
const DefaultConfigFile = "subgen.toml"

// ASRBackend selects the speech recognition implementation.
type ASRBackend string

const (
	ASRBackendLocal ASRBackend = "local"
	ASRBackendGroq  ASRBackend = "groq"
)

// LLMBackend selects the chat completion provider used for enhancement and
// translation. Groq and OpenAI expose the same wire protocol; the backend
// only chooses the default base URL.
type LLMBackend string

const (
	LLMBackendGroq   LLMBackend = "groq"
	LLMBackendOpenAI LLMBackend = "openai"
)

// SubtitleMode selects how subtitles are attached to the final video.
type SubtitleMode string

const (
	SubtitleModeSoft SubtitleMode = "soft"
	SubtitleModeBurn SubtitleMode = "burn"
)

// Video contains the source media settings.
type Video struct {
	URL           string `toml:"url"`
	InputLanguage string `toml:"input_language"`
}

// ASR contains speech recognition settings.
type ASR struct {
	Backend      string `toml:"backend"`
	WhisperModel string `toml:"whisper_model"`
	GroqModel    string `toml:"groq_model"`
}

// Enhancer contains transcript enhancement settings.
type Enhancer struct {
	Enabled     bool    `toml:"enabled"`
	Temperature float64 `toml:"temperature"`
}

// Translator contains transcript translation settings. Translation activates
// only when Enabled is true and TargetLanguage is non-empty; any other
// combination degrades to a warning, never an error.
type Translator struct {
	Enabled        bool    `toml:"enabled"`
	TargetLanguage string  `toml:"target_language"`
	Temperature    float64 `toml:"temperature"`
}

// LLM contains the shared chat completion settings.
type LLM struct {
	Backend        string     `toml:"backend"`
	Model          string     `toml:"model"`
	BaseURL        string     `toml:"base_url"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
	Enhancer       Enhancer   `toml:"enhancer"`
	Translator     Translator `toml:"translator"`
}

// Subtitles contains subtitle rendering settings.
type Subtitles struct {
	Mode       string  `toml:"mode"`
	BoxOpacity float64 `toml:"box_opacity"`
	Language   string  `toml:"language"`
}

// API contains credentials for remote services.
type API struct {
	GroqAPIKey string `toml:"groq_api_key"`
}

// Audio contains audio extraction settings.
type Audio struct {
	SampleRate int  `toml:"sample_rate"`
	Mono       bool `toml:"mono"`
}

// Output contains output tree settings.
type Output struct {
	Root string `toml:"root"`
}

// Processing groups audio and output settings.
type Processing struct {
	Audio  Audio  `toml:"audio"`
	Output Output `toml:"output"`
}

// Separation contains vocal separation settings. Separation is an optional
// enhancement stage; its failure never aborts the pipeline.
type Separation struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model"`
	OutputFormat   string `toml:"output_format"`
	SampleRate     int    `toml:"sample_rate"`
	AutoSelectBest bool   `toml:"auto_select_best"`
	StemType       string `toml:"stem_type"`
}

// FasterWhisper contains tuning knobs for the local ASR backend.
type FasterWhisper struct {
	Device               string  `toml:"device"`
	ComputeType          string  `toml:"compute_type"`
	BeamSize             int     `toml:"beam_size"`
	VADFilter            bool    `toml:"vad_filter"`
	MinSilenceDurationMS int     `toml:"min_silence_duration_ms"`
	WordTimestamps       bool    `toml:"word_timestamps"`
	Temperature          float64 `toml:"temperature"`
}

// Advanced groups tuning settings that most users never touch.
type Advanced struct {
	FasterWhisper FasterWhisper `toml:"faster_whisper"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subgen.
//
// Sections by subsystem:
//   - Video: source URL and language hint
//   - ASR: backend selection and model names
//   - LLM: chat completion connection plus enhancer/translator sub-sections
//   - Subtitles: soft/burn mode and burn-in box styling
//   - API: remote service credentials
//   - Processing: audio extraction parameters and output tree root
//   - Separation: optional vocal separation stage
//   - Advanced: faster-whisper tuning
//   - Logging: log format and level
type Config struct {
	Video      Video      `toml:"video"`
	ASR        ASR        `toml:"asr"`
	LLM        LLM        `toml:"llm"`
	Subtitles  Subtitles  `toml:"subtitles"`
	API        API        `toml:"api"`
	Processing Processing `toml:"processing"`
	Separation Separation `toml:"separation"`
	Advanced   Advanced   `toml:"advanced"`
	Logging    Logging    `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. When path is
// empty the default file is probed and its absence is not an error; an
// explicit path that does not exist is.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", services.Wrap(services.ErrParse, "config", "parse", resolvedPath, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, services.Wrap(services.ErrNotFound, "config", "resolve", expanded, err)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return projectPath, false, nil
}

// normalize fills credential and URL fallbacks after decoding.
func (c *Config) normalize() {
	if strings.TrimSpace(c.API.GroqAPIKey) == "" {
		c.API.GroqAPIKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		switch LLMBackend(strings.TrimSpace(c.LLM.Backend)) {
		case LLMBackendOpenAI:
			c.LLM.BaseURL = "https://api.openai.com/v1"
		default:
			c.LLM.BaseURL = defaultGroqBaseURL
		}
	}
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// TranslationActive reports whether translation should run. Both the enabled
// flag and a non-empty target language are required.
func (c *Config) TranslationActive() bool {
	return c.LLM.Translator.Enabled && strings.TrimSpace(c.LLM.Translator.TargetLanguage) != ""
}
