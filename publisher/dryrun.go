package publisher

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
)

// DryRunClient satisfies Client without touching the network. Used when
// DRY_RUN=1 so the whole cycle can be exercised against a real feed with no
// credentials configured.
type DryRunClient struct {
	seq atomic.Int64
}

// NewDryRunClient creates a client that logs would-be posts
func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

// CreatePost logs the text and returns a synthetic post id
func (c *DryRunClient) CreatePost(ctx context.Context, text string, mediaID string) (string, error) {
	id := fmt.Sprintf("dryrun-%d", c.seq.Add(1))
	log.Printf("publish: [dry-run] would post (%d chars, media=%q):\n%s", len([]rune(text)), mediaID, text)
	return id, nil
}

// UploadMedia returns a synthetic media id
func (c *DryRunClient) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	return fmt.Sprintf("dryrun-media-%d", c.seq.Add(1)), nil
}
