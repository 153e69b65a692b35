// Package archive keeps a copy of every successfully published post payload
// in S3. Optional; a nil *S3Archive is a no-op.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tweetbot/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains minimal configuration for the archive bucket.
// Empty values fall back to the standard AWS config/credential chain.
type S3Config struct {
	Bucket string
	Region string
	// Profile selects a named shared config/credentials profile
	Profile string
	// Prefix is prepended to every object key, e.g. "tweetbot/"
	Prefix string
}

// S3Archive uploads published-post payloads to a bucket
type S3Archive struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archive creates an archive using the default AWS configuration chain
// with optional overrides
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// archivedPost is the stored JSON document per publish
type archivedPost struct {
	Item       *types.Post          `json:"item"`
	Outcome    types.PublishOutcome `json:"outcome"`
	ArchivedAt time.Time            `json:"archived_at"`
}

// Store uploads the item and its publish outcome under
// <prefix>posts/<platform post id>.json. Failures are logged and swallowed;
// archiving never blocks the cycle. Safe to call on a nil receiver.
func (a *S3Archive) Store(ctx context.Context, item *types.Post, outcome types.PublishOutcome) {
	if a == nil {
		return
	}

	doc := archivedPost{Item: item, Outcome: outcome, ArchivedAt: time.Now().UTC()}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Printf("archive: marshal post %s: %v", item.ID, err)
		return
	}

	key := a.prefix + "posts/" + outcome.PlatformPostID + ".json"
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("archive: upload %s: %v", key, err)
	}
}
