package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Post represents a single blog post eligible for publication
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
	Summary     string    `json:"summary,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// PublishRecord is one line of the append-only publish log: a single
// successful publication of a post to the platform
type PublishRecord struct {
	ItemID         string    `json:"item_id"`
	PlatformPostID string    `json:"platform_post_id"`
	TextHash       string    `json:"text_hash"`
	PublishedAt    time.Time `json:"published_at"`
}

// ResurfaceState tracks when an old post was last re-promoted.
// Singleton, overwritten on every resurface check.
type ResurfaceState struct {
	LastFiredAt time.Time `json:"last_fired_at"`
}

// PublishOutcome is the result of one publish attempt sequence for an item
type PublishOutcome struct {
	Success        bool      `json:"success"`
	ItemID         string    `json:"item_id"`
	PlatformPostID string    `json:"platform_post_id,omitempty"`
	Attempts       int       `json:"attempts"`
	Error          string    `json:"error,omitempty"`
	At             time.Time `json:"at"`
}

// GenerateID creates a short, stable ID by hashing the post URL
func GenerateID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}

// HashText fingerprints composed post text for the publish log
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])[:16]
}
