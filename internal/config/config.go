package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	DomainCache DomainCacheConfig `yaml:"domain_cache" mapstructure:"domain_cache"`
	Waterfall   WaterfallConfig   `yaml:"waterfall" mapstructure:"waterfall"`
	Drafts      DraftsConfig      `yaml:"drafts" mapstructure:"drafts"`
	Resilience  ResilienceConfig  `yaml:"resilience" mapstructure:"resilience"`
	PDL         PDLConfig         `yaml:"pdl" mapstructure:"pdl"`
	Hunter      HunterConfig      `yaml:"hunter" mapstructure:"hunter"`
	Google      GoogleConfig      `yaml:"google" mapstructure:"google"`
	Perplexity  PerplexityConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Gmail       GmailConfig       `yaml:"gmail" mapstructure:"gmail"`
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	Salesforce  SalesforceConfig  `yaml:"salesforce" mapstructure:"salesforce"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig configures the search orchestrator.
type SearchConfig struct {
	Workers             int  `yaml:"workers" mapstructure:"workers"`
	StrategyTimeoutSecs int  `yaml:"strategy_timeout_secs" mapstructure:"strategy_timeout_secs"`
	PageSize            int  `yaml:"page_size" mapstructure:"page_size"`
	MaxPages            int  `yaml:"max_pages" mapstructure:"max_pages"`
	MaxContacts         int  `yaml:"max_contacts" mapstructure:"max_contacts"`
	RequireEmail        bool `yaml:"require_email" mapstructure:"require_email"`
}

// ExtractConfig configures the extraction pool.
type ExtractConfig struct {
	Workers            int `yaml:"workers" mapstructure:"workers"`
	DomainWorkers      int `yaml:"domain_workers" mapstructure:"domain_workers"`
	EarlyStopMultiple  int `yaml:"early_stop_multiple" mapstructure:"early_stop_multiple"`
	ResolveTimeoutSecs int `yaml:"resolve_timeout_secs" mapstructure:"resolve_timeout_secs"`
}

// DomainCacheConfig configures employer domain caching.
type DomainCacheConfig struct {
	TTLHours          int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	NegativeTTLHours  int  `yaml:"negative_ttl_hours" mapstructure:"negative_ttl_hours"`
	LookupTimeoutSecs int  `yaml:"lookup_timeout_secs" mapstructure:"lookup_timeout_secs"`
	Persist           bool `yaml:"persist" mapstructure:"persist"`
}

// WaterfallConfig points at the email waterfall YAML file.
type WaterfallConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
	Watch      bool   `yaml:"watch" mapstructure:"watch"`
}

// DraftsConfig configures draft creation.
type DraftsConfig struct {
	Workers       int    `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Backend       string `yaml:"backend" mapstructure:"backend"`
	MarkContacted bool   `yaml:"mark_contacted" mapstructure:"mark_contacted"`
}

// ResilienceConfig configures retries and circuit breakers for provider calls.
type ResilienceConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PDLConfig holds People Data Labs person search settings.
type PDLConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// HunterConfig holds Hunter.io settings used for domain, finder, pattern and verification.
type HunterConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GoogleConfig holds Google Places API settings (domain resolution fallback).
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// PerplexityConfig holds Perplexity API settings (last-resort domain resolution).
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GmailConfig holds Gmail draft creation settings.
type GmailConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Sender    string  `yaml:"sender" mapstructure:"sender"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials and the outreach database ID.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	DraftDB string `yaml:"draft_db" mapstructure:"draft_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the contacted query.
type SalesforceConfig struct {
	ClientID      string `yaml:"client_id" mapstructure:"client_id"`
	Username      string `yaml:"username" mapstructure:"username"`
	KeyPath       string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL      string `yaml:"login_url" mapstructure:"login_url"`
	ContactedSOQL string `yaml:"contacted_soql" mapstructure:"contacted_soql"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("search.workers", 2)
	v.SetDefault("search.strategy_timeout_secs", 45)
	v.SetDefault("search.page_size", 25)
	v.SetDefault("search.max_pages", 3)
	v.SetDefault("search.max_contacts", 50)
	v.SetDefault("search.require_email", true)
	v.SetDefault("extract.workers", 10)
	v.SetDefault("extract.domain_workers", 5)
	v.SetDefault("extract.early_stop_multiple", 2)
	v.SetDefault("extract.resolve_timeout_secs", 30)
	v.SetDefault("domain_cache.ttl_hours", 168)
	v.SetDefault("domain_cache.negative_ttl_hours", 6)
	v.SetDefault("domain_cache.lookup_timeout_secs", 30)
	v.SetDefault("domain_cache.persist", true)
	v.SetDefault("waterfall.config_path", "waterfall.yaml")
	v.SetDefault("drafts.workers", 5)
	v.SetDefault("drafts.timeout_secs", 30)
	v.SetDefault("drafts.backend", "gmail")
	v.SetDefault("drafts.mark_contacted", true)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 10000)
	v.SetDefault("resilience.multiplier", 2.0)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("pdl.base_url", "https://api.peopledatalabs.com/v5")
	v.SetDefault("pdl.rate_limit", 5.0)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.rate_limit", 10.0)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("gmail.base_url", "https://gmail.googleapis.com/gmail/v1")
	v.SetDefault("gmail.rate_limit", 4.0)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.contacted_soql",
		"SELECT FirstName, LastName, Account.Name FROM Contact WHERE LastActivityDate != null")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys a command mode needs. Modes: "search", "drafts", "serve".
// Unknown modes only run the shared checks.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Search.MaxContacts <= 0 {
		errs = append(errs, "search.max_contacts must be positive")
	}
	if c.Extract.Workers <= 0 || c.Extract.DomainWorkers <= 0 {
		errs = append(errs, "extract.workers and extract.domain_workers must be positive")
	}
	if c.Drafts.Workers <= 0 {
		errs = append(errs, "drafts.workers must be positive")
	}

	switch mode {
	case "search":
		require(c.PDL.Key, "pdl.key")
		require(c.Hunter.Key, "hunter.key")
	case "drafts":
		c.validateDraftBackend(require, &errs)
	case "serve":
		require(c.PDL.Key, "pdl.key")
		require(c.Hunter.Key, "hunter.key")
		c.validateDraftBackend(require, &errs)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateDraftBackend(require func(string, string), errs *[]string) {
	switch c.Drafts.Backend {
	case "gmail":
		require(c.Gmail.Token, "gmail.token")
	case "notion":
		require(c.Notion.Token, "notion.token")
		require(c.Notion.DraftDB, "notion.draft_db")
	default:
		*errs = append(*errs, fmt.Sprintf("drafts.backend %q must be gmail or notion", c.Drafts.Backend))
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
