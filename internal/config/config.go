package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// YouTubeConfig controls the ingestion source.
type YouTubeConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	AnalyticsBaseURL  string  `mapstructure:"analytics_base_url"`
	AnalyticsToken    string  `mapstructure:"analytics_token"` // OAuth bearer; empty disables shares/watch time
	FeedURL           string  `mapstructure:"feed_url"`
	Source            string  `mapstructure:"source"` // search | feed
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// AnalysisConfig holds the ranking and topic defaults.
type AnalysisConfig struct {
	CohortSize int `mapstructure:"cohort_size"`
	TopTopics  int `mapstructure:"top_topics"`
	DisplayTop int `mapstructure:"display_top"`
}

// PipelineConfig controls the scheduled daily run.
type PipelineConfig struct {
	RunAt         string `mapstructure:"run_at"`   // HH:MM in Timezone
	Timezone      string `mapstructure:"timezone"` // IANA name, e.g. UTC
	CheckInterval string `mapstructure:"check_interval"`
	OutputDir     string `mapstructure:"output_dir"`
	Retention     string `mapstructure:"retention"` // TTL for stored batches, e.g. "168h"
}

// ChannelConfig defines one YouTube channel analyzed by the pipeline.
type ChannelConfig struct {
	Name       string `mapstructure:"name"`
	ChannelID  string `mapstructure:"channel_id"`
	MaxResults int    `mapstructure:"max_results"` // overrides youtube.max_results
	Source     string `mapstructure:"source"`      // overrides youtube.source
	Language   string `mapstructure:"language"`    // language for AI theme ideas
	Title      string `mapstructure:"title"`       // report title template, supports {.CurrentDate} and {.Channel}
}

// HTTPConfig controls the presentation API.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// OpenAIConfig configures the optional theme advisor.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Redis    RedisConfig     `mapstructure:"redis"`
	YouTube  YouTubeConfig   `mapstructure:"youtube"`
	Analysis AnalysisConfig  `mapstructure:"analysis"`
	Pipeline PipelineConfig  `mapstructure:"pipeline"`
	Channels []ChannelConfig `mapstructure:"channels"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	OpenAI   OpenAIConfig    `mapstructure:"openai"`
}

const (
	SourceSearch = "search"
	SourceFeed   = "feed"
)

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.YouTube.AnalyticsBaseURL == "" {
		c.YouTube.AnalyticsBaseURL = "https://youtubeanalytics.googleapis.com/v2"
	}
	if c.YouTube.FeedURL == "" {
		c.YouTube.FeedURL = "https://www.youtube.com/feeds/videos.xml"
	}
	if c.YouTube.Source == "" {
		c.YouTube.Source = SourceSearch
	}
	if c.YouTube.MaxResults == 0 {
		c.YouTube.MaxResults = 50
	}
	if c.YouTube.RequestsPerSecond == 0 {
		c.YouTube.RequestsPerSecond = 5
	}
	if c.Analysis.CohortSize == 0 {
		c.Analysis.CohortSize = 50
	}
	if c.Analysis.TopTopics == 0 {
		c.Analysis.TopTopics = 5
	}
	if c.Analysis.DisplayTop == 0 {
		c.Analysis.DisplayTop = 10
	}
	if c.Pipeline.RunAt == "" {
		c.Pipeline.RunAt = "06:00"
	}
	if c.Pipeline.Timezone == "" {
		c.Pipeline.Timezone = "UTC"
	}
	if c.Pipeline.CheckInterval == "" {
		c.Pipeline.CheckInterval = "10m"
	}
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "./out"
	}
	if c.Pipeline.Retention == "" {
		c.Pipeline.Retention = "168h"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	// Fill channel defaults
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.MaxResults == 0 {
			ch.MaxResults = c.YouTube.MaxResults
		}
		if ch.Source == "" {
			ch.Source = c.YouTube.Source
		}
		ch.Source = strings.ToLower(strings.TrimSpace(ch.Source))
		if ch.Language == "" {
			ch.Language = "English"
		}
		if ch.Title == "" {
			ch.Title = "{.Channel} engagement report {.CurrentDate}"
		}
	}
}

// Validate reports configuration that FillDefaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.YouTube.Source) {
	case SourceSearch, SourceFeed:
	default:
		errs = append(errs, fmt.Errorf("youtube.source: unknown source %q", c.YouTube.Source))
	}
	if _, err := ParseRunAt(c.Pipeline.RunAt); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.run_at: %w", err))
	}
	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.timezone: %w", err))
	}
	for _, f := range []struct{ name, val string }{
		{"pipeline.check_interval", c.Pipeline.CheckInterval},
		{"pipeline.retention", c.Pipeline.Retention},
	} {
		if d, err := time.ParseDuration(f.val); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", f.name, f.val))
		}
	}
	seen := map[string]struct{}{}
	for i, ch := range c.Channels {
		if strings.TrimSpace(ch.Name) == "" {
			errs = append(errs, fmt.Errorf("channels[%d]: name is required", i))
			continue
		}
		if _, dup := seen[ch.Name]; dup {
			errs = append(errs, fmt.Errorf("channels[%d]: duplicate name %q", i, ch.Name))
		}
		seen[ch.Name] = struct{}{}
		if strings.TrimSpace(ch.ChannelID) == "" {
			errs = append(errs, fmt.Errorf("channel %s: channel_id is required", ch.Name))
		}
		switch ch.Source {
		case SourceSearch, SourceFeed:
		default:
			errs = append(errs, fmt.Errorf("channel %s: unknown source %q", ch.Name, ch.Source))
		}
	}
	return errors.Join(errs...)
}

// Channel returns the configured channel with the given name.
func (c *Config) Channel(name string) (ChannelConfig, bool) {
	for _, ch := range c.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChannelConfig{}, false
}

// ParseRunAt parses an "HH:MM" time of day into an offset from midnight.
func ParseRunAt(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
