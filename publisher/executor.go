package publisher

import (
	"context"
	"errors"
	"log"
	"time"

	"tweetbot/composer"
	"tweetbot/store"
	"tweetbot/types"
)

// MediaResolver optionally supplies a platform media id for an item.
// Resolution failures never block posting.
type MediaResolver interface {
	Resolve(ctx context.Context, item *types.Post) (string, error)
}

// Executor drives the compose/submit/retry sequence for one item and records
// successful publishes in the dedup store
type Executor struct {
	client   Client
	composer *composer.Composer
	store    *store.Store
	media    MediaResolver // nil = never attach media
	clock    func() time.Time
}

// NewExecutor wires an executor. media may be nil.
func NewExecutor(client Client, comp *composer.Composer, st *store.Store, media MediaResolver) *Executor {
	return &Executor{
		client:   client,
		composer: comp,
		store:    st,
		media:    media,
		clock:    time.Now,
	}
}

// SetClock overrides the time source, used by tests
func (e *Executor) SetClock(clock func() time.Time) {
	e.clock = clock
}

// Publish attempts to post the item, composing a fresh text variant after
// each duplicate-content rejection, up to maxAttempts. Any other rejection
// aborts immediately. On success the dedup store is updated before the item
// counts as published; a store-write failure is logged but never triggers a
// resubmission (that would create a real duplicate post). The returned error
// is the final typed rejection (nil on success) so callers can dispatch on
// its kind with errors.Is.
func (e *Executor) Publish(ctx context.Context, item *types.Post, maxAttempts int) (types.PublishOutcome, error) {
	outcome := types.PublishOutcome{ItemID: item.ID, At: e.clock()}

	mediaID := ""
	if e.media != nil {
		id, err := e.media.Resolve(ctx, item)
		if err != nil {
			log.Printf("publish: media skipped for %s: %v", item.ID, err)
		} else {
			mediaID = id
		}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		outcome.Attempts = attempt + 1

		text, err := e.composer.Compose(item, attempt)
		if err != nil {
			outcome.Error = err.Error()
			return outcome, err
		}

		postID, err := e.client.CreatePost(ctx, text, mediaID)
		if err == nil {
			outcome.Success = true
			outcome.PlatformPostID = postID
			if recErr := e.store.RecordPublish(item.ID, postID, types.HashText(text), e.clock()); recErr != nil {
				// The post is live; losing the dedup line is the
				// lesser failure. Log it and move on.
				log.Printf("publish: WARNING: post %s live but record write failed: %v", postID, recErr)
			}
			return outcome, nil
		}

		if errors.Is(err, ErrDuplicateContent) {
			log.Printf("publish: duplicate rejection for %s (attempt %d/%d), varying text", item.ID, attempt+1, maxAttempts)
			continue
		}

		// Auth, rate-limit and malformed-request rejections are not
		// fixable by rewording; stop here.
		outcome.Error = err.Error()
		return outcome, err
	}

	outcome.Error = ErrDuplicateContent.Error()
	return outcome, ErrDuplicateContent
}

// IsFatalAuth reports whether an outcome failed on credentials, which
// disables further publish attempts for the rest of the cycle
func IsFatalAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsDuplicate reports whether an error is the duplicate-content kind
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateContent)
}
