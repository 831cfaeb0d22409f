package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM            LLMConfig            `mapstructure:"llm"`
	Server         ServerConfig         `mapstructure:"server"`
	GoogleCalendar GoogleCalendarConfig `mapstructure:"google_calendar"`
	Scheduling     SchedulingConfig     `mapstructure:"scheduling"`
	Agent          AgentConfig          `mapstructure:"agent"`
	History        HistoryConfig        `mapstructure:"history"`
	Log            LogConfig            `mapstructure:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host               string `mapstructure:"host"`
	Port               string `mapstructure:"port"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
}

// GoogleCalendarConfig holds the Google Calendar configuration
type GoogleCalendarConfig struct {
	// Backend is "google" or "memory".
	Backend         string `mapstructure:"backend"`
	CalendarID      string `mapstructure:"calendar_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SchedulingConfig describes the bookable working window.
type SchedulingConfig struct {
	Timezone         string `mapstructure:"timezone"`
	WorkdayStartHour int    `mapstructure:"workday_start_hour"`
	WorkdayEndHour   int    `mapstructure:"workday_end_hour"`
}

// AgentConfig tunes the dialogue loop.
type AgentConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// HistoryConfig holds the turn log configuration
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig toggles the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TracingConfig selects where spans are exported.
type TracingConfig struct {
	// Exporter is "none" or "stdout" (pretty-printed spans on stderr).
	Exporter string `mapstructure:"exporter"`
}

const (
	TracingNone   = "none"
	TracingStdout = "stdout"

	BackendGoogle = "google"
	BackendMemory = "memory"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can override it during Unmarshal.
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit_per_minute", 60)
	v.SetDefault("google_calendar.backend", BackendGoogle)
	v.SetDefault("google_calendar.calendar_id", "primary")
	v.SetDefault("google_calendar.credentials_json", "")
	v.SetDefault("google_calendar.credentials_file", "service_account.json")
	v.SetDefault("scheduling.timezone", "America/Los_Angeles")
	v.SetDefault("scheduling.workday_start_hour", 9)
	v.SetDefault("scheduling.workday_end_hour", 17)
	v.SetDefault("agent.max_iterations", 100)
	v.SetDefault("agent.system_prompt", "")
	v.SetDefault("history.db_path", "history.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("tracing.exporter", TracingNone)
}

// Load loads the configuration from config.yaml (or the file named by
// CONFIG_PATH), overlaid with JARVIS_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("jarvis")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Hosted deployments pass the service account key inline through the environment.
	if raw := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"); raw != "" && v.GetString("google_calendar.credentials_json") == "" {
		v.Set("google_calendar.credentials_json", raw)
	}
	if id := os.Getenv("CALENDAR_ID"); id != "" && v.GetString("google_calendar.calendar_id") == "primary" {
		v.Set("google_calendar.calendar_id", id)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := c.Scheduling.Location(); err != nil {
		return err
	}
	s := c.Scheduling
	if s.WorkdayStartHour < 0 || s.WorkdayEndHour > 24 || s.WorkdayStartHour >= s.WorkdayEndHour {
		return fmt.Errorf("invalid working hours %d-%d", s.WorkdayStartHour, s.WorkdayEndHour)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	switch c.GoogleCalendar.Backend {
	case BackendGoogle, BackendMemory:
	default:
		return fmt.Errorf("unsupported calendar backend %q", c.GoogleCalendar.Backend)
	}
	switch c.Tracing.Exporter {
	case TracingNone, TracingStdout:
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	return nil
}

// Location resolves the configured IANA timezone.
func (s SchedulingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
