// Package media attaches an image to outgoing posts when one can be found.
// Everything here is best-effort: any failure means the post simply goes out
// without media.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tweetbot/publisher"
	"tweetbot/types"

	readability "github.com/go-shiori/go-readability"
)

// Download size cap, keeps a misbehaving image URL from stalling a cycle
const maxImageBytes = 5 << 20

// Resolver finds an image for an item (feed-provided URL first, article page
// scrape second) and uploads it to the platform, returning a media id
type Resolver struct {
	client  publisher.Client
	http    *http.Client
	timeout time.Duration
}

// NewResolver builds a resolver that uploads through the given platform client
func NewResolver(client publisher.Client, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{
		client:  client,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Resolve implements publisher.MediaResolver
func (r *Resolver) Resolve(ctx context.Context, item *types.Post) (string, error) {
	imageURL := item.ImageURL
	if imageURL == "" {
		found, err := r.leadImage(ctx, item.URL)
		if err != nil {
			return "", fmt.Errorf("no lead image: %w", err)
		}
		imageURL = found
	}

	data, contentType, err := r.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	mediaID, err := r.client.UploadMedia(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	return mediaID, nil
}

// leadImage fetches the article page and extracts its main image via
// readability
func (r *Resolver) leadImage(ctx context.Context, articleURL string) (string, error) {
	u, err := url.Parse(articleURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article page returned %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}
	if article.Image == "" {
		return "", fmt.Errorf("article has no image")
	}
	return article.Image, nil
}

func (r *Resolver) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	return data, contentType, nil
}
