package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/survey-trends/internal/survey"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "./docs/state-of-js", cfg.Input.Dir)
	require.Equal(t, []string{"2016", "2017", "2018", "2019"}, cfg.Survey.Years)
	require.Equal(t, []string{"interested", "would_use"}, cfg.Survey.Likes)
	require.Equal(t, []string{"angular", "react", "vuejs", "ember", "backbone"}, survey.Keys(cfg.Survey.Technologies))
	require.Equal(t, []int{97, 218, 251}, cfg.Survey.Technologies[1].Line)
	require.Equal(t, 250*time.Millisecond, cfg.MaxBatchWait())

	dir, object := cfg.OutputLocation()
	require.Equal(t, "docs", filepath.Clean(dir))
	require.Equal(t, "final.json", object)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
input:
  dir: /data/surveys
  chunk_size: 4096
output:
  backend: gcs
  path: results/final.json
  gcs_bucket: survey-results
survey:
  years: ["2020", "2021"]
  likes: [would_use]
  technologies:
    - key: svelte
      title: Svelte
      line: [255, 62, 0]
server:
  enabled: true
  port: 9090
logging:
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/data/surveys", cfg.Input.Dir)
	require.Equal(t, 4096, cfg.Input.ChunkSize)
	require.Equal(t, []string{"2020", "2021"}, cfg.Survey.Years)
	require.Equal(t, []survey.Technology{{Key: "svelte", Title: "Svelte", Line: []int{255, 62, 0}}}, cfg.Survey.Technologies)
	require.True(t, cfg.Server.Enabled)
	require.Equal(t, 9090, cfg.Server.Port)
	require.False(t, cfg.Logging.Development)

	dirOut, object := cfg.OutputLocation()
	require.Empty(t, dirOut)
	require.Equal(t, "results/final.json", object)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"no years":          func(c *Config) { c.Survey.Years = nil },
		"non numeric year":  func(c *Config) { c.Survey.Years = []string{"last-year"} },
		"duplicate year":    func(c *Config) { c.Survey.Years = []string{"2016", "2016"} },
		"no technologies":   func(c *Config) { c.Survey.Technologies = nil },
		"empty tech key":    func(c *Config) { c.Survey.Technologies = []survey.Technology{{Title: "x"}} },
		"duplicate tech":    func(c *Config) { c.Survey.Technologies = []survey.Technology{{Key: "a"}, {Key: "a"}} },
		"reserved tech key": func(c *Config) { c.Survey.Technologies = []survey.Technology{{Key: "total"}} },
		"bad colour":        func(c *Config) { c.Survey.Technologies = []survey.Technology{{Key: "a", Line: []int{1, 2}}} },
		"no likes":          func(c *Config) { c.Survey.Likes = nil },
		"unknown backend":   func(c *Config) { c.Output.Backend = "s3" },
		"gcs without bucket": func(c *Config) {
			c.Output.Backend = "gcs"
			c.Output.GCSBucket = ""
		},
		"server without port": func(c *Config) {
			c.Server.Enabled = true
			c.Server.Port = 0
		},
		"bad table": func(c *Config) {
			c.DB.DSN = "postgres://localhost/db"
			c.DB.Table = "runs; drop"
		},
		"topic without project": func(c *Config) { c.PubSub.TopicName = "done" },
		"no input dir":          func(c *Config) { c.Input.Dir = "" },
		"bad log level":         func(c *Config) { c.Logging.Level = "chatty" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Survey.Technologies = append([]survey.Technology(nil), base.Survey.Technologies...)
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SURVEY_INPUT_DIR", "/env/surveys")
	t.Setenv("SURVEY_OUTPUT_PATH", "/env/out/final.json")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/env/surveys", cfg.Input.Dir)
	dir, object := cfg.OutputLocation()
	require.True(t, strings.HasSuffix(dir, "/env/out"))
	require.Equal(t, "final.json", object)
}
