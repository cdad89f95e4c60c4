package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultFeedURL serves a channel's recent uploads as Atom.
const DefaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

// FeedLister lists recent uploads from the channel Atom feed. It costs no
// API quota but only ever sees the latest 15 or so videos.
type FeedLister struct {
	feedURL string
	parser  *gofeed.Parser
}

func NewFeedLister(feedURL string) *FeedLister {
	if strings.TrimSpace(feedURL) == "" {
		feedURL = DefaultFeedURL
	}
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: 10 * time.Second}
	return &FeedLister{feedURL: feedURL, parser: fp}
}

// ListVideoIDs returns up to limit video ids in feed order.
func (f *FeedLister) ListVideoIDs(ctx context.Context, channelID string, limit int) ([]string, error) {
	u := f.feedURL + "?" + url.Values{"channel_id": {channelID}}.Encode()
	feed, err := f.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube: feed %s: %w", channelID, err)
	}
	var ids []string
	for _, item := range feed.Items {
		if id := feedVideoID(item); id != "" {
			ids = append(ids, id)
		}
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	slog.Info("youtube: listed feed videos", "channel", channelID, "count", len(ids))
	return ids, nil
}

func feedVideoID(item *gofeed.Item) string {
	if ext := item.Extensions["yt"]["videoId"]; len(ext) > 0 {
		return strings.TrimSpace(ext[0].Value)
	}
	// <id>yt:video:VIDEO_ID</id>
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok {
		return id
	}
	return ""
}
