// Package feed retrieves candidate posts from the blog, either via its
// RSS/Atom feed or through the Blogger API.
package feed

import (
	"context"
	"time"

	"tweetbot/types"
)

// Source fetches the latest live posts, newest first. Implementations skip
// malformed entries instead of failing the batch, and only return posts
// published within the lookback window.
type Source interface {
	FetchLatest(ctx context.Context, limit int, lookback time.Duration) ([]*types.Post, error)
}

// Marker can tag a post at the source after it was published, so the blog
// itself carries a secondary dedup signal. Only the Blogger API source
// supports this.
type Marker interface {
	MarkPublished(ctx context.Context, itemID, label string) error
}
