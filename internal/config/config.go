package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type CaptureConfig struct {
	SampleRate      int  `yaml:"sample_rate"`
	Channels        int  `yaml:"channels"`
	ChunkIntervalMS int  `yaml:"chunk_interval_ms"`
	EchoCancel      bool `yaml:"echo_cancellation"`
	NoiseSuppress   bool `yaml:"noise_suppression"`
}

type RecognitionConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Mode             string `yaml:"mode"` // mock, exec
	Command          string `yaml:"command"`
	Language         string `yaml:"language"`
	RestartDelayMS   int    `yaml:"restart_delay_ms"`
	PublishInterim   bool   `yaml:"publish_interim"`
	InterimThrottleMS int   `yaml:"interim_throttle_ms"`
}

type TranscribeConfig struct {
	Endpoint         string `yaml:"endpoint"`
	Language         string `yaml:"language"`
	NumSpeakers      int    `yaml:"num_speakers"`
	Async            bool   `yaml:"async"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	PollIntervalMS   int    `yaml:"poll_interval_ms"`
	PollBudgetMS     int    `yaml:"poll_budget_ms"`
	ProbeTimeoutMS   int    `yaml:"probe_timeout_ms"`
}

type AnalyzeConfig struct {
	Mode             string  `yaml:"mode"` // mock, remote, exec
	Endpoint         string  `yaml:"endpoint"`
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"-"` // env only, never from file
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TokenBudget      int     `yaml:"token_budget"`
	LongInput        string  `yaml:"long_input"` // truncate, split
	Command          string  `yaml:"command"`
	RequestTimeoutMS int     `yaml:"request_timeout_ms"`
}

type DiarizeConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Endpoint         string `yaml:"endpoint"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
}

type PipelineConfig struct {
	UseBackend             bool `yaml:"use_backend"`
	SpeakerHeuristicPeriod int  `yaml:"speaker_heuristic_period"`
}

type StoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type ShareConfig struct {
	MaxMessageLength int `yaml:"max_message_length"`
}

type Config struct {
	ServiceName string            `yaml:"service_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	Capture     CaptureConfig     `yaml:"capture"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Transcribe  TranscribeConfig  `yaml:"transcribe"`
	Analyze     AnalyzeConfig     `yaml:"analyze"`
	Diarize     DiarizeConfig     `yaml:"diarize"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Store       StoreConfig       `yaml:"store"`
	Share       ShareConfig       `yaml:"share"`
}

func Default() Config {
	return Config{
		ServiceName: "meetscribed",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Capture: CaptureConfig{
			SampleRate:      16000,
			Channels:        1,
			ChunkIntervalMS: 1000,
			EchoCancel:      true,
			NoiseSuppress:   true,
		},
		Recognition: RecognitionConfig{
			Enabled:           true,
			Mode:              "mock",
			Language:          "zh",
			RestartDelayMS:    100,
			PublishInterim:    true,
			InterimThrottleMS: 0,
		},
		Transcribe: TranscribeConfig{
			Endpoint:         "",
			Language:         "zh",
			Async:            true,
			RequestTimeoutMS: 30000,
			PollIntervalMS:   2000,
			PollBudgetMS:     300000,
			ProbeTimeoutMS:   3000,
		},
		Analyze: AnalyzeConfig{
			Mode:             "mock",
			Endpoint:         "https://openrouter.ai/api/v1",
			Model:            "google/gemma-3-27b-it:free",
			MaxTokens:        4000,
			Temperature:      0.7,
			TokenBudget:      80000,
			LongInput:        "truncate",
			RequestTimeoutMS: 60000,
		},
		Diarize: DiarizeConfig{
			Enabled:          false,
			RequestTimeoutMS: 120000,
		},
		Pipeline: PipelineConfig{
			UseBackend:             true,
			SpeakerHeuristicPeriod: 3,
		},
		Store: StoreConfig{
			Path:          "./data/meetscribe.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Share: ShareConfig{
			MaxMessageLength: 800,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "MEETSCRIBE_SERVICE_NAME")
	overrideString(&cfg.Environment, "MEETSCRIBE_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "MEETSCRIBE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "MEETSCRIBE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "MEETSCRIBE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "MEETSCRIBE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "MEETSCRIBE_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "MEETSCRIBE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "MEETSCRIBE_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "MEETSCRIBE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "MEETSCRIBE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "MEETSCRIBE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "MEETSCRIBE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "MEETSCRIBE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "MEETSCRIBE_BUS_CONNECT_TIMEOUT_MS")
	overrideInt(&cfg.Capture.SampleRate, "MEETSCRIBE_CAPTURE_SAMPLE_RATE")
	overrideInt(&cfg.Capture.Channels, "MEETSCRIBE_CAPTURE_CHANNELS")
	overrideInt(&cfg.Capture.ChunkIntervalMS, "MEETSCRIBE_CAPTURE_CHUNK_INTERVAL_MS")
	overrideBool(&cfg.Capture.EchoCancel, "MEETSCRIBE_CAPTURE_ECHO_CANCELLATION")
	overrideBool(&cfg.Capture.NoiseSuppress, "MEETSCRIBE_CAPTURE_NOISE_SUPPRESSION")
	overrideBool(&cfg.Recognition.Enabled, "MEETSCRIBE_RECOGNITION_ENABLED")
	overrideString(&cfg.Recognition.Mode, "MEETSCRIBE_RECOGNITION_MODE")
	overrideString(&cfg.Recognition.Command, "MEETSCRIBE_RECOGNITION_COMMAND")
	overrideString(&cfg.Recognition.Language, "MEETSCRIBE_RECOGNITION_LANGUAGE")
	overrideInt(&cfg.Recognition.RestartDelayMS, "MEETSCRIBE_RECOGNITION_RESTART_DELAY_MS")
	overrideBool(&cfg.Recognition.PublishInterim, "MEETSCRIBE_RECOGNITION_PUBLISH_INTERIM")
	overrideInt(&cfg.Recognition.InterimThrottleMS, "MEETSCRIBE_RECOGNITION_INTERIM_THROTTLE_MS")
	overrideString(&cfg.Transcribe.Endpoint, "MEETSCRIBE_TRANSCRIBE_ENDPOINT")
	overrideString(&cfg.Transcribe.Language, "MEETSCRIBE_TRANSCRIBE_LANGUAGE")
	overrideInt(&cfg.Transcribe.NumSpeakers, "MEETSCRIBE_TRANSCRIBE_NUM_SPEAKERS")
	overrideBool(&cfg.Transcribe.Async, "MEETSCRIBE_TRANSCRIBE_ASYNC")
	overrideInt(&cfg.Transcribe.RequestTimeoutMS, "MEETSCRIBE_TRANSCRIBE_REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.Transcribe.PollIntervalMS, "MEETSCRIBE_TRANSCRIBE_POLL_INTERVAL_MS")
	overrideInt(&cfg.Transcribe.PollBudgetMS, "MEETSCRIBE_TRANSCRIBE_POLL_BUDGET_MS")
	overrideInt(&cfg.Transcribe.ProbeTimeoutMS, "MEETSCRIBE_TRANSCRIBE_PROBE_TIMEOUT_MS")
	overrideString(&cfg.Analyze.Mode, "MEETSCRIBE_ANALYZE_MODE")
	overrideString(&cfg.Analyze.Endpoint, "MEETSCRIBE_ANALYZE_ENDPOINT")
	overrideString(&cfg.Analyze.Model, "MEETSCRIBE_ANALYZE_MODEL")
	overrideString(&cfg.Analyze.APIKey, "MEETSCRIBE_ANALYZE_API_KEY")
	overrideInt(&cfg.Analyze.MaxTokens, "MEETSCRIBE_ANALYZE_MAX_TOKENS")
	overrideFloat(&cfg.Analyze.Temperature, "MEETSCRIBE_ANALYZE_TEMPERATURE")
	overrideInt(&cfg.Analyze.TokenBudget, "MEETSCRIBE_ANALYZE_TOKEN_BUDGET")
	overrideString(&cfg.Analyze.LongInput, "MEETSCRIBE_ANALYZE_LONG_INPUT")
	overrideString(&cfg.Analyze.Command, "MEETSCRIBE_ANALYZE_COMMAND")
	overrideInt(&cfg.Analyze.RequestTimeoutMS, "MEETSCRIBE_ANALYZE_REQUEST_TIMEOUT_MS")
	overrideBool(&cfg.Diarize.Enabled, "MEETSCRIBE_DIARIZE_ENABLED")
	overrideString(&cfg.Diarize.Endpoint, "MEETSCRIBE_DIARIZE_ENDPOINT")
	overrideInt(&cfg.Diarize.RequestTimeoutMS, "MEETSCRIBE_DIARIZE_REQUEST_TIMEOUT_MS")
	overrideBool(&cfg.Pipeline.UseBackend, "MEETSCRIBE_PIPELINE_USE_BACKEND")
	overrideInt(&cfg.Pipeline.SpeakerHeuristicPeriod, "MEETSCRIBE_PIPELINE_SPEAKER_HEURISTIC_PERIOD")
	overrideString(&cfg.Store.Path, "MEETSCRIBE_STORE_PATH")
	overrideString(&cfg.Store.RetentionMode, "MEETSCRIBE_STORE_RETENTION_MODE")
	overrideInt(&cfg.Store.RetentionDays, "MEETSCRIBE_STORE_RETENTION_DAYS")
	overrideInt(&cfg.Store.MaxSessions, "MEETSCRIBE_STORE_MAX_SESSIONS")
	overrideBool(&cfg.Store.VacuumOnStart, "MEETSCRIBE_STORE_VACUUM_ON_START")
	overrideInt(&cfg.Share.MaxMessageLength, "MEETSCRIBE_SHARE_MAX_MESSAGE_LENGTH")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Capture.SampleRate <= 0 {
		return errors.New("capture.sample_rate must be positive")
	}
	if cfg.Capture.Channels <= 0 {
		return errors.New("capture.channels must be positive")
	}
	if cfg.Capture.ChunkIntervalMS <= 0 {
		return errors.New("capture.chunk_interval_ms must be positive")
	}
	if cfg.Recognition.Enabled {
		switch cfg.Recognition.Mode {
		case "mock", "exec":
		default:
			return errors.New("recognition.mode must be one of mock|exec")
		}
		if cfg.Recognition.Mode == "exec" && cfg.Recognition.Command == "" {
			return errors.New("recognition.command must be set when mode=exec")
		}
		if cfg.Recognition.RestartDelayMS < 0 {
			return errors.New("recognition.restart_delay_ms must be >= 0")
		}
	}
	if cfg.Transcribe.PollIntervalMS <= 0 {
		return errors.New("transcribe.poll_interval_ms must be positive")
	}
	if cfg.Transcribe.PollBudgetMS < cfg.Transcribe.PollIntervalMS {
		return errors.New("transcribe.poll_budget_ms must be >= poll interval")
	}
	switch cfg.Analyze.Mode {
	case "mock", "remote", "exec":
	default:
		return errors.New("analyze.mode must be one of mock|remote|exec")
	}
	if cfg.Analyze.Mode == "remote" && cfg.Analyze.Endpoint == "" {
		return errors.New("analyze.endpoint must be set when mode=remote")
	}
	if cfg.Analyze.Mode == "exec" && cfg.Analyze.Command == "" {
		return errors.New("analyze.command must be set when mode=exec")
	}
	if cfg.Analyze.TokenBudget <= 0 {
		return errors.New("analyze.token_budget must be positive")
	}
	switch cfg.Analyze.LongInput {
	case "truncate", "split":
	default:
		return errors.New("analyze.long_input must be one of truncate|split")
	}
	if cfg.Diarize.Enabled && cfg.Diarize.Endpoint == "" {
		return errors.New("diarize.endpoint must be set when diarization is enabled")
	}
	if cfg.Pipeline.SpeakerHeuristicPeriod <= 0 {
		return errors.New("pipeline.speaker_heuristic_period must be >= 1")
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	switch cfg.Store.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.Store.RetentionDays < 0 {
		return errors.New("store.retention_days must be >= 0")
	}
	if cfg.Share.MaxMessageLength <= 0 {
		return errors.New("share.max_message_length must be positive")
	}
	return nil
}
