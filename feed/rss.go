package feed

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"tweetbot/types"

	"github.com/mmcdole/gofeed"
)

// RSSSource reads the blog's public RSS/Atom feed. For Blogger blogs the
// feed lives at <blog>/feeds/posts/default.
type RSSSource struct {
	feedURL string
	parser  *gofeed.Parser
}

// NewRSSSource builds a source for the given blog URL. A URL that does not
// already point at a feed gets the Blogger feed path appended. timeout bounds
// each fetch; a stalled feed must not stall the caller.
func NewRSSSource(blogURL string, timeout time.Duration) *RSSSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &RSSSource{
		feedURL: resolveFeedURL(blogURL),
		parser:  parser,
	}
}

func resolveFeedURL(blogURL string) string {
	u := strings.TrimRight(strings.TrimSpace(blogURL), "/")
	if strings.Contains(u, "/feeds/") || strings.HasSuffix(u, ".xml") || strings.Contains(u, "alt=rss") {
		return u
	}
	return u + "/feeds/posts/default?alt=rss"
}

// FetchLatest parses the feed and returns posts within the lookback window,
// newest first. Entries without a link are skipped; entries without a usable
// timestamp are kept and stamped with the fetch time so a feed with sloppy
// dates still yields candidates.
func (s *RSSSource) FetchLatest(ctx context.Context, limit int, lookback time.Duration) ([]*types.Post, error) {
	parsed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	now := time.Now()
	cutoff := now.Add(-lookback)

	posts := make([]*types.Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		publishedAt := now
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}
		if lookback > 0 && publishedAt.Before(cutoff) {
			continue
		}

		id := item.GUID
		if id == "" {
			id = types.GenerateID(item.Link)
		}

		post := &types.Post{
			ID:          id,
			Title:       strings.TrimSpace(item.Title),
			URL:         item.Link,
			PublishedAt: publishedAt,
			FetchedAt:   now,
			Summary:     item.Description,
			Labels:      append([]string(nil), item.Categories...),
		}
		if item.Image != nil {
			post.ImageURL = item.Image.URL
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
