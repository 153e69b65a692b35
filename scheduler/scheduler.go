// Package scheduler runs the daemon loop: periodic feed polls, fixed daily
// publication slots and the resurface check, all evaluated from a single
// cooperative tick.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"tweetbot/config"
	"tweetbot/events"
	"tweetbot/feed"
	"tweetbot/publisher"
	"tweetbot/resurface"
	"tweetbot/store"
	"tweetbot/types"

	"github.com/google/uuid"
)

// Reporter receives cycle outcomes for status reporting. Implementations
// must be safe for concurrent use; nil disables reporting.
type Reporter interface {
	RecordOutcome(kind string, outcome types.PublishOutcome)
	AddLog(message string)
}

// Loop is the single-worker daemon. One goroutine evaluates both timers; no
// operation here runs in parallel with another, which keeps the cooldown
// check-then-append sequence racefree by construction.
type Loop struct {
	cfg      *config.Config
	source   feed.Source
	marker   feed.Marker // optional label write-back, nil = disabled
	executor *publisher.Executor
	selector *resurface.Selector
	store    *store.Store
	producer *events.Producer  // optional
	archiver Archiver          // optional
	reporter Reporter          // optional
	clock    func() time.Time
	sleep    func(time.Duration)

	nextPoll  time.Time
	nextSlots []time.Time
}

// Archiver stores successful publishes out-of-band. *archive.S3Archive
// satisfies this; nil disables archiving.
type Archiver interface {
	Store(ctx context.Context, item *types.Post, outcome types.PublishOutcome)
}

// New wires the loop. marker, producer, archiver and reporter may be nil.
func New(cfg *config.Config, source feed.Source, marker feed.Marker, exec *publisher.Executor,
	selector *resurface.Selector, st *store.Store, producer *events.Producer,
	archiver Archiver, reporter Reporter) *Loop {
	return &Loop{
		cfg:      cfg,
		source:   source,
		marker:   marker,
		executor: exec,
		selector: selector,
		store:    st,
		producer: producer,
		archiver: archiver,
		reporter: reporter,
		clock:    time.Now,
		sleep:    time.Sleep,
	}
}

// SetClock overrides the time source, used by tests
func (l *Loop) SetClock(clock func() time.Time) {
	l.clock = clock
}

// SetSleep overrides the inter-item sleep, used by tests
func (l *Loop) SetSleep(sleep func(time.Duration)) {
	l.sleep = sleep
}

// Run executes the daemon loop until ctx is cancelled. Poll cycles and slot
// firings are both checked on every tick; a slot whose instant passed while
// the loop was sleeping fires on the next tick rather than being skipped.
func (l *Loop) Run(ctx context.Context) error {
	now := l.clock()
	l.nextPoll = now // first poll runs immediately
	l.initSlots(now)

	for i, s := range l.cfg.Slots {
		log.Printf("scheduler: slot %s -> next firing %s", s, l.nextSlots[i].Format(time.RFC3339))
	}
	log.Printf("scheduler: started, poll=%s tick=%s tz=%s", l.cfg.PollInterval, l.cfg.TickInterval, l.cfg.Location)

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	// In-flight publish attempts run to completion (bounded by the HTTP
	// client timeouts) instead of being cut off mid-submission; shutdown
	// is only observed between ticks.
	opCtx := context.WithoutCancel(ctx)

	for {
		l.Tick(opCtx)

		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick evaluates both timers once. Exposed for tests and reused by Run.
func (l *Loop) Tick(ctx context.Context) {
	now := l.clock()

	if !now.Before(l.nextPoll) {
		l.RunCycle(ctx, "poll")
		l.nextPoll = l.clock().Add(l.cfg.PollInterval)
	}

	for i := range l.nextSlots {
		if now.Before(l.nextSlots[i]) {
			continue
		}
		log.Printf("scheduler: slot %s firing (scheduled %s)", l.cfg.Slots[i], l.nextSlots[i].Format(time.RFC3339))
		l.publishNew(ctx, "slot")
		// Same wall-clock time, next day. Catch-up fires once: however
		// late we observed the instant, the next one is computed from
		// the scheduled time, not from now.
		l.nextSlots[i] = nextSlotInstant(l.cfg.Slots[i], l.nextSlots[i], l.cfg.Location)
	}
}

// RunCycle performs one poll cycle: publish new items, then the resurface
// check. Used for both poll-timer firings and one-shot mode.
func (l *Loop) RunCycle(ctx context.Context, kind string) {
	l.publishNew(ctx, kind)
	l.checkResurface(ctx)
}

func (l *Loop) initSlots(now time.Time) {
	l.nextSlots = make([]time.Time, len(l.cfg.Slots))
	for i, s := range l.cfg.Slots {
		l.nextSlots[i] = nextSlotInstant(s, now, l.cfg.Location)
	}
}

// nextSlotInstant returns the first instant strictly after `after` at the
// slot's wall-clock time in loc. Built through time.Date so DST transitions
// normalize instead of drifting.
func nextSlotInstant(s config.Slot, after time.Time, loc *time.Location) time.Time {
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, loc)
	if !candidate.After(after) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, s.Hour, s.Minute, 0, 0, loc)
	}
	return candidate
}

// publishNew fetches candidates, filters those still in cooldown and
// publishes up to the per-cycle budget. A single item's failure never stops
// the cycle; a credential rejection disables further publish attempts until
// the next cycle.
func (l *Loop) publishNew(ctx context.Context, kind string) {
	cycleID := uuid.NewString()
	now := l.clock()

	fetchLimit := l.cfg.MaxNewPerCycle * 4
	if fetchLimit < 30 {
		fetchLimit = 30
	}

	items, err := l.source.FetchLatest(ctx, fetchLimit, l.cfg.Lookback)
	if err != nil {
		log.Printf("scheduler: feed fetch failed, skipping cycle: %v", err)
		l.logf("feed fetch failed: %v", err)
		return
	}
	log.Printf("scheduler: %s cycle %s: %d candidate(s)", kind, cycleID, len(items))

	published := 0
	for _, item := range items {
		if published >= l.cfg.MaxNewPerCycle {
			break
		}
		if l.store.IsWithinCooldown(item.ID, l.cfg.Cooldown, now) {
			continue
		}
		// The label is a dedup signal in its own right (it survives a
		// lost data dir), so it is honored even when no marker can
		// write one back.
		if l.cfg.MarkLabel != "" && hasLabel(item, l.cfg.MarkLabel) {
			continue
		}

		outcome, err := l.executor.Publish(ctx, item, l.cfg.MaxAttempts)
		l.producer.Emit("publish", cycleID, outcome)
		l.report(kind, outcome)

		if outcome.Success {
			log.Printf("scheduler: published %s -> %s (%s)", item.ID, outcome.PlatformPostID, item.URL)
			l.logf("published %q -> %s", item.Title, outcome.PlatformPostID)
			published++

			if l.archiver != nil {
				l.archiver.Store(ctx, item, outcome)
			}
			if l.marker != nil && l.cfg.MarkLabel != "" {
				if err := l.marker.MarkPublished(ctx, item.ID, l.cfg.MarkLabel); err != nil {
					log.Printf("scheduler: WARN: label write-back for %s failed: %v", item.ID, err)
				}
			}

			l.sleep(config.DefaultInterPostsSleep)
			continue
		}

		log.Printf("scheduler: publish failed for %s after %d attempt(s): %s", item.ID, outcome.Attempts, outcome.Error)
		if publisher.IsFatalAuth(err) {
			log.Printf("scheduler: credentials rejected, disabling publishes until next cycle")
			l.logf("credentials rejected, publishing paused for this cycle")
			return
		}
	}

	if published == 0 {
		log.Printf("scheduler: %s cycle %s: nothing new to publish", kind, cycleID)
	}
}

func (l *Loop) checkResurface(ctx context.Context) {
	now := l.clock()
	if postID, fired := l.selector.MaybeResurface(ctx, now); fired {
		outcome := types.PublishOutcome{Success: true, PlatformPostID: postID, Attempts: 1, At: now}
		l.producer.Emit("resurface", uuid.NewString(), outcome)
		l.report("resurface", outcome)
		l.logf("resurfaced old post as %s", postID)
	}
}

func (l *Loop) report(kind string, outcome types.PublishOutcome) {
	if l.reporter != nil {
		l.reporter.RecordOutcome(kind, outcome)
	}
}

func (l *Loop) logf(format string, args ...any) {
	if l.reporter != nil {
		l.reporter.AddLog(fmt.Sprintf(format, args...))
	}
}

func hasLabel(item *types.Post, label string) bool {
	for _, l := range item.Labels {
		if l == label {
			return true
		}
	}
	return false
}
