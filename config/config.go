package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "INTERVIEWER"

// DefaultMaxUploadBytes caps resume and job description uploads.
const DefaultMaxUploadBytes = 3 * 1024 * 1024

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, mysql, postgres.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LLMConfig struct {
	// Provider is one of openai, gemini, vertex.
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	Project         string  `mapstructure:"project"`
	Location        string  `mapstructure:"location"`
	CredentialsFile string  `mapstructure:"credentials_file"`
	MaxLogLength    int     `mapstructure:"max_log_length"`
	TimeoutSeconds  float64 `mapstructure:"timeout_seconds"`
}

type RabbitMQConfig struct {
	// URL empty disables event publishing.
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "interviewer.db")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.project", "")
	v.SetDefault("llm.location", "us-central1")
	v.SetDefault("llm.credentials_file", "")
	v.SetDefault("llm.max_log_length", 200)
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "interview_events")
	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// New returns a viper instance with defaults and environment binding. Keys
// map to INTERVIEWER_<SECTION>_<KEY>, e.g. INTERVIEWER_LLM_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present), the optional config file and the
// environment, then validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch c.LLM.Provider {
	case "openai", "gemini", "vertex":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	return nil
}

// Validate checks the credentials the selected provider needs. It runs when
// a model client is built so commands without model access need no key.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("llm.api_key is required for provider %s", c.Provider)
		}
	case "vertex":
		if strings.TrimSpace(c.Project) == "" {
			return errors.New("llm.project is required for provider vertex")
		}
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.Provider)
	}
	return nil
}
