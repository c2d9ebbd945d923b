package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configPathEnv     = "DESIGNCATALOG_CONFIG"
	logLevelEnv       = "DESIGNCATALOG_LOG_LEVEL"
	dedupModeEnv      = "DESIGNCATALOG_DEDUP_MODE"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	// MaxManualPages caps the page limit of a manual search.
	MaxManualPages = 50
)

// requiredKeys must be present in a configuration file.
var requiredKeys = []string{"repos", "terms", "max_pages"}

// Config holds high-level settings required across the application.
type Config struct {
	Repos         Repositories       `yaml:"repos"`
	Terms         []string           `yaml:"terms"`
	MaxPages      int                `yaml:"max_pages"`
	Pause         time.Duration      `yaml:"pause"`
	Files         FilesConfig        `yaml:"files"`
	Deduplication DedupConfig        `yaml:"deduplication"`
	Acquisition   AcquisitionConfig  `yaml:"acquisition"`
	Filtering     FilteringConfig    `yaml:"filtering"`
	Adapters      []AdapterConfig    `yaml:"adapters"`
	Logging       LoggingConfig      `yaml:"logging"`
	History       HistoryConfig      `yaml:"history"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
	Schedule      ScheduleConfig     `yaml:"schedule"`

	// Source is the file the configuration was read from, empty for
	// defaults.
	Source string `yaml:"-"`
}

// FilesConfig lists the tables a run reads and writes.
type FilesConfig struct {
	RawResults        string `yaml:"raw_results"`
	NormalizedResults string `yaml:"normalized_results"`
	FilteredResults   string `yaml:"filtered_results"`
	NewRecords        string `yaml:"new_records"`
	Catalog           string `yaml:"catalog"`
}

// DedupConfig selects the reconciliation mode (review or auto-merge).
type DedupConfig struct {
	Mode string `yaml:"mode"`
}

// AcquisitionConfig tunes fetching.
type AcquisitionConfig struct {
	Parallelism int           `yaml:"parallelism"`
	Timeout     time.Duration `yaml:"timeout"`
}

// FilteringConfig extends the built-in vocabularies.
type FilteringConfig struct {
	ExtraRelevantTerms  []string `yaml:"extra_relevant_terms"`
	ExtraExclusionTerms []string `yaml:"extra_exclusion_terms"`
	RequireReliable     bool     `yaml:"require_reliable_detection"`
}

// AdapterConfig declares an adapter beyond, or replacing, the built-in ones.
type AdapterConfig struct {
	Key     string `yaml:"key"`
	Kind    string `yaml:"kind"`
	URL     string `yaml:"url"`
	Journal string `yaml:"journal"`
}

// LoggingConfig controls the slog handler and optional rotating file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// HistoryConfig locates the run-history database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig controls prometheus export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
	Listen   string `yaml:"listen"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIBase  string `yaml:"api_base"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ScheduleConfig defines how often the schedule command runs the pipeline.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoadDotEnv loads secrets from a .env file when one exists.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: cannot load %s: %v", path, err)
		}
	}
}

// ResolvePath picks the explicit path, then DESIGNCATALOG_CONFIG, then the
// default location.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return defaultConfigPath
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A missing file falls back to defaults; an unreadable or
// malformed one is a ConfigurationError.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	path = ResolvePath(path)

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config: %s not found (using defaults)", path)
	case err != nil:
		return Config{}, invalid("", fmt.Sprintf("cannot read %s: %v", path, err))
	default:
		fileCfg, perr := parse(raw)
		if perr != nil {
			return Config{}, perr
		}
		cfg = mergeConfig(cfg, fileCfg)
		cfg.Source = path
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func parse(raw []byte) (Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return Config{}, invalid("", fmt.Sprintf("cannot parse yaml: %v", err))
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Config{}, invalid("", "top level must be a mapping")
	}

	present := map[string]bool{}
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		present[top.Content[i].Value] = true
	}
	for _, key := range requiredKeys {
		if !present[key] {
			return Config{}, invalid(key, "required key missing")
		}
	}

	var fileCfg Config
	if err := top.Decode(&fileCfg); err != nil {
		return Config{}, invalid("", fmt.Sprintf("wrong value type: %v", err))
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(dedupModeEnv); v != "" {
		c.Deduplication.Mode = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if len(override.Repos) > 0 {
		base.Repos = override.Repos
	}
	if override.Terms != nil {
		base.Terms = override.Terms
	}
	base.MaxPages = override.MaxPages
	if override.Pause != 0 {
		base.Pause = override.Pause
	}

	base.Files = mergeFiles(base.Files, override.Files)

	if override.Deduplication.Mode != "" {
		base.Deduplication.Mode = override.Deduplication.Mode
	}

	if override.Acquisition.Parallelism != 0 {
		base.Acquisition.Parallelism = override.Acquisition.Parallelism
	}
	if override.Acquisition.Timeout != 0 {
		base.Acquisition.Timeout = override.Acquisition.Timeout
	}

	base.Filtering = override.Filtering

	if len(override.Adapters) > 0 {
		base.Adapters = override.Adapters
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.MaxSizeMB != 0 {
		base.Logging.MaxSizeMB = override.Logging.MaxSizeMB
	}
	if override.Logging.MaxBackups != 0 {
		base.Logging.MaxBackups = override.Logging.MaxBackups
	}
	if override.Logging.MaxAgeDays != 0 {
		base.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}

	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}

	if override.Metrics.Textfile != "" {
		base.Metrics.Textfile = override.Metrics.Textfile
	}
	if override.Metrics.Listen != "" {
		base.Metrics.Listen = override.Metrics.Listen
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}

	if override.Schedule.Interval != 0 {
		base.Schedule.Interval = override.Schedule.Interval
	}

	return base
}

func mergeFiles(base, override FilesConfig) FilesConfig {
	if override.RawResults != "" {
		base.RawResults = override.RawResults
	}
	if override.NormalizedResults != "" {
		base.NormalizedResults = override.NormalizedResults
	}
	if override.FilteredResults != "" {
		base.FilteredResults = override.FilteredResults
	}
	if override.NewRecords != "" {
		base.NewRecords = override.NewRecords
	}
	if override.Catalog != "" {
		base.Catalog = override.Catalog
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Repos: Repositories{
			{Name: "estudos_em_design", Adapter: "estudos_em_design"},
			{Name: "infodesign", Adapter: "infodesign"},
			{Name: "human_factors_in_design", Adapter: "human_factors_in_design"},
			{Name: "arcos_design", Adapter: "arcos_design"},
			{Name: "design_e_tecnologia", Adapter: "design_e_tecnologia"},
			{Name: "triades", Adapter: "triades"},
			{Name: "educacao_grafica", Adapter: "educacao_grafica"},
		},
		Terms: []string{
			"experiencia", "usuario", "interface", "usabilidade",
			"interacao", "sistema", "ergonomia", "digital",
			"informacao", "tecnologia",
		},
		MaxPages: 10,
		Pause:    2 * time.Second,
		Files: FilesConfig{
			RawResults:        "data/raw/search_results.csv",
			NormalizedResults: "data/processed/transformed_results.csv",
			FilteredResults:   "data/processed/curation_candidates.csv",
			NewRecords:        "data/processed/new_records.csv",
			Catalog:           "data/raw/base_database.csv",
		},
		Deduplication: DedupConfig{Mode: "review"},
		Acquisition:   AcquisitionConfig{Parallelism: 1, Timeout: 20 * time.Second},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		History:  HistoryConfig{Path: "data/history.db"},
		Schedule: ScheduleConfig{Interval: 24 * time.Hour},
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Notifications.Telegram.BotToken != "" {
		c.Notifications.Telegram.BotToken = "***"
	}
	return c
}

// YAML renders the configuration.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return strings.TrimRight(string(out), "\n") + "\n", nil
}
