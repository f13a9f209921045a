// Package config loads and validates the aggregation settings via Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/JakeFAU/survey-trends/internal/survey"
)

// EnvPrefix scopes environment overrides, e.g. SURVEY_INPUT_DIR.
const EnvPrefix = "SURVEY"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config captures all knobs of an aggregation run.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Survey   SurveyConfig   `mapstructure:"survey"`
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// InputConfig points at the directory of newline-delimited JSON files.
type InputConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	ChunkSize int    `mapstructure:"chunk_size" validate:"gte=0"`
}

// OutputConfig selects where the final document goes.
type OutputConfig struct {
	Backend     string `mapstructure:"backend" validate:"oneof=local gcs memory none"`
	Path        string `mapstructure:"path" validate:"required"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	ContentType string `mapstructure:"content_type"`
}

// SurveyConfig defines what is counted.
type SurveyConfig struct {
	Years        []string            `mapstructure:"years" validate:"required,min=1,dive,numeric"`
	Likes        []string            `mapstructure:"likes" validate:"required,min=1,dive,required"`
	Technologies []survey.Technology `mapstructure:"technologies" validate:"required,min=1,dive"`
}

// ServerConfig controls the optional presentation API.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=0,lte=65535"`
	// Linger keeps the API up after the run until the process is signalled.
	Linger bool `mapstructure:"linger"`
}

// DBConfig enables run history in Postgres when DSN is set.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
}

// PubSubConfig enables completion notices when TopicName is set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ProgressConfig tunes the asynchronous event hub.
type ProgressConfig struct {
	BufferSize     int `mapstructure:"buffer_size" validate:"gte=0"`
	MaxBatchEvents int `mapstructure:"max_batch_events" validate:"gte=0"`
	MaxBatchWaitMs int `mapstructure:"max_batch_wait_ms" validate:"gte=0"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Load builds a Config from an optional file and the environment.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied Viper, e.g. one with CLI flags bound.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.dir", "./docs/state-of-js")
	v.SetDefault("input.chunk_size", 64*1024)
	v.SetDefault("output.backend", "local")
	v.SetDefault("output.path", "./docs/final.json")
	v.SetDefault("output.content_type", "application/json")
	v.SetDefault("survey.years", []string{"2016", "2017", "2018", "2019"})
	v.SetDefault("survey.likes", survey.DefaultLikes)
	v.SetDefault("survey.technologies", []map[string]any{
		{"key": "angular", "title": "angular", "line": []int{170, 42, 44}},
		{"key": "react", "title": "react", "line": []int{97, 218, 251}},
		{"key": "vuejs", "title": "vuejs", "line": []int{63, 178, 127}},
		{"key": "ember", "title": "ember", "line": []int{218, 89, 46}},
		{"key": "backbone", "title": "backbone", "line": []int{37, 108, 74}},
	})
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.linger", false)
	v.SetDefault("db.table", "survey_runs")
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch_events", 256)
	v.SetDefault("progress.max_batch_wait_ms", 250)
	v.SetDefault("logging.development", isatty.IsTerminal(os.Stdout.Fd()))
}

// Validate enforces required values and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if dup := firstDuplicate(c.Survey.Years); dup != "" {
		return fmt.Errorf("survey.years contains %q twice", dup)
	}
	if dup := firstDuplicate(survey.Keys(c.Survey.Technologies)); dup != "" {
		return fmt.Errorf("survey.technologies contains %q twice", dup)
	}
	for _, t := range c.Survey.Technologies {
		if t.Key == "total" {
			return fmt.Errorf("survey.technologies may not use the reserved key %q", t.Key)
		}
	}
	if c.Output.Backend == "gcs" && c.Output.GCSBucket == "" {
		return fmt.Errorf("output.gcs_bucket must be set when output.backend is gcs")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if c.DB.DSN != "" && !validTableName.MatchString(c.DB.Table) {
		return fmt.Errorf("invalid db.table %q", c.DB.Table)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// OutputLocation splits output.path into the local base directory and the
// object name handed to the storage provider. Remote backends use the path
// as the object name unchanged.
func (c Config) OutputLocation() (dir, object string) {
	if c.Output.Backend != "local" {
		return "", strings.TrimPrefix(c.Output.Path, "/")
	}
	return filepath.Dir(c.Output.Path), filepath.Base(c.Output.Path)
}

// MaxBatchWait converts the hub flush interval to a duration.
func (c Config) MaxBatchWait() time.Duration {
	return time.Duration(c.Progress.MaxBatchWaitMs) * time.Millisecond
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
