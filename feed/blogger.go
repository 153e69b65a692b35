package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tweetbot/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"
)

// BloggerConfig holds OAuth2 refresh-token credentials for the Blogger API
type BloggerConfig struct {
	BlogURL      string
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Timeout bounds each API call, default 30s
	Timeout time.Duration
}

// BloggerSource reads live posts through the Blogger v3 API. Unlike the RSS
// source it also sees post labels, and can write one back after a publish.
type BloggerSource struct {
	blogURL string
	svc     *blogger.Service
	timeout time.Duration

	mu     sync.Mutex
	blogID string // resolved lazily from the blog URL
}

// NewBloggerSource authenticates with a stored refresh token and builds the
// API service
func NewBloggerSource(ctx context.Context, cfg BloggerConfig) (*BloggerSource, error) {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{blogger.BloggerScope},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := blogger.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create blogger service: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BloggerSource{blogURL: cfg.BlogURL, svc: svc, timeout: timeout}, nil
}

func (s *BloggerSource) resolveBlogID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blogID != "" {
		return s.blogID, nil
	}
	blog, err := s.svc.Blogs.GetByUrl(s.blogURL).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("resolve blog id for %s: %w", s.blogURL, err)
	}
	s.blogID = blog.Id
	return s.blogID, nil
}

// FetchLatest lists live posts ordered by publish date, newest first,
// dropping entries outside the lookback window or missing a URL
func (s *BloggerSource) FetchLatest(ctx context.Context, limit int, lookback time.Duration) ([]*types.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	blogID, err := s.resolveBlogID(ctx)
	if err != nil {
		return nil, err
	}

	maxResults := int64(50)
	if limit > 0 && int64(limit)*4 > maxResults {
		maxResults = int64(limit) * 4
	}

	resp, err := s.svc.Posts.List(blogID).
		FetchBodies(false).
		MaxResults(maxResults).
		OrderBy("PUBLISHED").
		Status("LIVE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	now := time.Now()
	cutoff := now.Add(-lookback)

	posts := make([]*types.Post, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || (item.Url == "" && item.SelfLink == "") {
			continue
		}
		url := item.Url
		if url == "" {
			url = item.SelfLink
		}

		publishedAt, err := time.Parse(time.RFC3339, item.Published)
		if err != nil {
			publishedAt = now
		}
		if lookback > 0 && publishedAt.Before(cutoff) {
			continue
		}

		post := &types.Post{
			ID:          item.Id,
			Title:       strings.TrimSpace(item.Title),
			URL:         url,
			PublishedAt: publishedAt,
			FetchedAt:   now,
			Labels:      append([]string(nil), item.Labels...),
		}
		if len(item.Images) > 0 {
			post.ImageURL = item.Images[0].Url
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

// MarkPublished appends a label to the post inside Blogger so already-tweeted
// posts are visible from the blog dashboard too. Best-effort for callers.
func (s *BloggerSource) MarkPublished(ctx context.Context, itemID, label string) error {
	if label == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	blogID, err := s.resolveBlogID(ctx)
	if err != nil {
		return err
	}

	cur, err := s.svc.Posts.Get(blogID, itemID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get post %s: %w", itemID, err)
	}

	for _, l := range cur.Labels {
		if l == label {
			return nil
		}
	}
	labels := append(append([]string(nil), cur.Labels...), label)

	_, err = s.svc.Posts.Patch(blogID, itemID, &blogger.Post{Labels: labels}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("patch post %s labels: %w", itemID, err)
	}
	return nil
}
