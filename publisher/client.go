// Package publisher submits composed text to the social platform, retrying
// duplicate-content rejections with fresh text variants.
package publisher

import (
	"context"
	"errors"
)

// Platform rejection kinds, dispatched with errors.Is. Only duplicate-content
// rejections are retryable by text variation; the rest abort the item.
var (
	// ErrDuplicateContent means the platform judged the text too similar
	// to a recent submission
	ErrDuplicateContent = errors.New("duplicate content rejected")
	// ErrUnauthorized means credentials were rejected; publishing is
	// disabled for the rest of the cycle
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited means the platform's rate limit is exhausted
	ErrRateLimited = errors.New("rate limited")
)

// Client is the narrow platform surface the executor needs
type Client interface {
	// CreatePost submits text (plus an optional media id) and returns the
	// platform post id. Rejections wrap one of the sentinel kinds above.
	CreatePost(ctx context.Context, text string, mediaID string) (string, error)
	// UploadMedia uploads raw media bytes and returns a media id usable
	// with CreatePost
	UploadMedia(ctx context.Context, data []byte, contentType string) (string, error)
}
