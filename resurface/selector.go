// Package resurface re-promotes a previously published post after a long
// cooldown, quoting the original platform post.
package resurface

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"tweetbot/publisher"
	"tweetbot/store"
)

// Promo phrasings for resurfaced posts. %s is the original post's URL.
var promoPhrasings = []string{
	"هل فاتك هذا؟ 👀 %s",
	"من أرشيفنا، ما زال يستحق القراءة: %s",
	"لمن لم يقرأه بعد: %s",
}

// Selector periodically picks an older published item to re-promote
type Selector struct {
	store    *store.Store
	client   publisher.Client
	cooldown time.Duration
	lookback time.Duration // candidate pool window, 0 = unlimited
	intn     func(n int) int
}

// New wires a selector. cooldown gates how often a resurface fires; lookback
// bounds how far back the candidate pool reaches (0 = no bound).
func New(st *store.Store, client publisher.Client, cooldown, lookback time.Duration) *Selector {
	return &Selector{
		store:    st,
		client:   client,
		cooldown: cooldown,
		lookback: lookback,
		intn:     rand.Intn,
	}
}

// SetIntn overrides the random source, used by tests
func (s *Selector) SetIntn(intn func(n int) int) {
	s.intn = intn
}

// MaybeResurface fires at most once per cooldown. It needs at least two
// historical records and never picks the most recently published one. The
// state timestamp advances whether or not the post attempt succeeds, so a
// transient platform error cannot cause rapid re-fires; it also advances on
// a skipped-but-checked cycle with too little history, so the check is not
// repeated every poll. Returns the new platform post id when a promo was
// actually posted.
func (s *Selector) MaybeResurface(ctx context.Context, now time.Time) (string, bool) {
	st := s.store.ResurfaceState()
	if !st.LastFiredAt.IsZero() && now.Sub(st.LastFiredAt) < s.cooldown {
		return "", false
	}

	records := s.store.AllRecords()
	if len(records) < 2 {
		log.Printf("resurface: only %d published post(s), skipping until more history exists", len(records))
		s.advance(now)
		return "", false
	}

	// AllRecords is publishedAt ascending; the last entry is the freshest
	// and stays out of the pool. The pool is further bounded to the
	// lookback window so ancient posts stop circulating.
	pool := records[:len(records)-1]
	if s.lookback > 0 {
		cutoff := now.Add(-s.lookback)
		trimmed := pool[:0:0]
		for _, rec := range pool {
			if !rec.PublishedAt.Before(cutoff) {
				trimmed = append(trimmed, rec)
			}
		}
		pool = trimmed
	}
	if len(pool) == 0 {
		log.Printf("resurface: no candidates inside the lookback window, skipping")
		s.advance(now)
		return "", false
	}
	chosen := pool[s.intn(len(pool))]

	text := fmt.Sprintf(promoPhrasings[s.intn(len(promoPhrasings))], statusURL(chosen.PlatformPostID))

	postID, err := s.client.CreatePost(ctx, text, "")
	s.advance(now)
	if err != nil {
		log.Printf("resurface: post attempt for %s failed: %v", chosen.ItemID, err)
		return "", false
	}

	log.Printf("resurface: re-promoted %s as %s", chosen.ItemID, postID)
	return postID, true
}

func (s *Selector) advance(now time.Time) {
	if err := s.store.SetResurfaceState(now); err != nil {
		log.Printf("resurface: failed to persist state: %v", err)
	}
}

func statusURL(platformPostID string) string {
	return "https://x.com/i/web/status/" + platformPostID
}
