package cmd

import (
	"errors"
	"strings"
	"time"

	"engagement-optimizer/internal/ai"
	"engagement-optimizer/internal/config"
	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/youtube"
)

var errNoAPIKey = errors.New("youtube api key is required (youtube.api_key or YOUTUBE_API_KEY)")

// newYouTubeIngester wires the Data API, the optional feed lister and the
// optional Analytics client for one channel.
func newYouTubeIngester(cfg config.Config, channelID string, maxResults int, source string) (*youtube.Ingester, error) {
	if strings.TrimSpace(cfg.YouTube.APIKey) == "" {
		return nil, errNoAPIKey
	}
	client := youtube.NewClient(cfg.YouTube.BaseURL, cfg.YouTube.APIKey, cfg.YouTube.RequestsPerSecond)
	in := &youtube.Ingester{
		ChannelID:  channelID,
		MaxResults: maxResults,
		Lister:     client,
		Details:    client,
	}
	if strings.EqualFold(source, config.SourceFeed) {
		in.Lister = youtube.NewFeedLister(cfg.YouTube.FeedURL)
	}
	if cfg.YouTube.AnalyticsToken != "" {
		in.Metrics = youtube.NewAnalyticsClient(cfg.YouTube.AnalyticsBaseURL, cfg.YouTube.AnalyticsToken, cfg.YouTube.RequestsPerSecond)
	}
	return in, nil
}

// newAdvisor returns nil when no OpenAI key is configured.
func newAdvisor(cfg config.Config) ai.Advisor {
	if cfg.OpenAI.APIKey == "" {
		return nil
	}
	return ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
}

func analysisOptions(cfg config.Config) engagement.Options {
	return engagement.Options{CohortSize: cfg.Analysis.CohortSize, TopTopics: cfg.Analysis.TopTopics}
}

func retention(cfg config.Config) time.Duration {
	d, err := time.ParseDuration(cfg.Pipeline.Retention)
	if err != nil {
		return 0
	}
	return d
}
