package config

const (
	defaultASRBackend            = "local"
	defaultWhisperModel          = "base"
	defaultGroqASRModel          = "distil-whisper-large-v3-en"
	defaultLLMBackend            = "groq"
	defaultLLMModel              = "llama3-8b-8192"
	defaultGroqBaseURL           = "https://api.groq.com/openai/v1"
	defaultLLMTimeoutSeconds     = 120
	defaultEnhancerTemperature   = 0.0
	defaultTranslatorTemperature = 0.1
	defaultSubtitleMode          = "soft"
	defaultBoxOpacity            = 0.6
	defaultSubtitleLanguage      = "eng"
	defaultAudioSampleRate       = 16000
	defaultOutputsRoot           = "outputs"
	defaultSeparationModel       = "Roformer Model: BS-Roformer-Viperx-1297"
	defaultSeparationFormat      = "WAV"
	defaultSeparationStem        = "vocals"
	defaultWhisperDevice         = "auto"
	defaultWhisperComputeType    = "int8"
	defaultWhisperBeamSize       = 5
	defaultMinSilenceMS          = 500
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		ASR: ASR{
			Backend:      defaultASRBackend,
			WhisperModel: defaultWhisperModel,
			GroqModel:    defaultGroqASRModel,
		},
		LLM: LLM{
			Backend:        defaultLLMBackend,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			Enhancer: Enhancer{
				Enabled:     true,
				Temperature: defaultEnhancerTemperature,
			},
			Translator: Translator{
				Enabled:     false,
				Temperature: defaultTranslatorTemperature,
			},
		},
		Subtitles: Subtitles{
			Mode:       defaultSubtitleMode,
			BoxOpacity: defaultBoxOpacity,
			Language:   defaultSubtitleLanguage,
		},
		Processing: Processing{
			Audio: Audio{
				SampleRate: defaultAudioSampleRate,
				Mono:       true,
			},
			Output: Output{
				Root: defaultOutputsRoot,
			},
		},
		Separation: Separation{
			Enabled:      false,
			Model:        defaultSeparationModel,
			OutputFormat: defaultSeparationFormat,
			SampleRate:   defaultAudioSampleRate,
			StemType:     defaultSeparationStem,
		},
		Advanced: Advanced{
			FasterWhisper: FasterWhisper{
				Device:               defaultWhisperDevice,
				ComputeType:          defaultWhisperComputeType,
				BeamSize:             defaultWhisperBeamSize,
				VADFilter:            true,
				MinSilenceDurationMS: defaultMinSilenceMS,
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
