package api

import (
	"sync"
	"time"

	"tweetbot/types"
)

// LogEntry is a single status log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// RecordedOutcome pairs an outcome with its trigger kind ("poll", "slot",
// "resurface")
type RecordedOutcome struct {
	Kind    string               `json:"kind"`
	Outcome types.PublishOutcome `json:"outcome"`
}

// StatusResponse is the JSON served at /api/status
type StatusResponse struct {
	StartedAt      time.Time         `json:"started_at"`
	Uptime         string            `json:"uptime"`
	TotalPublished int               `json:"total_published"`
	Logs           []LogEntry        `json:"logs"`
	Recent         []RecordedOutcome `json:"recent_outcomes"`
}

// Tracker holds recent daemon activity for the status endpoint with
// thread-safe access. It implements scheduler.Reporter.
type Tracker struct {
	mu sync.RWMutex

	startedAt time.Time
	published int
	logs      []LogEntry
	recent    []RecordedOutcome
	maxKept   int
}

// NewTracker creates a tracker keeping the last 50 log lines and outcomes
func NewTracker() *Tracker {
	return &Tracker{
		startedAt: time.Now(),
		maxKept:   50,
	}
}

// AddLog appends a log entry (thread-safe)
func (t *Tracker) AddLog(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logs = append(t.logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(t.logs) > t.maxKept {
		t.logs = t.logs[len(t.logs)-t.maxKept:]
	}
}

// RecordOutcome appends an outcome (thread-safe)
func (t *Tracker) RecordOutcome(kind string, outcome types.PublishOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if outcome.Success {
		t.published++
	}
	t.recent = append(t.recent, RecordedOutcome{Kind: kind, Outcome: outcome})
	if len(t.recent) > t.maxKept {
		t.recent = t.recent[len(t.recent)-t.maxKept:]
	}
}

// Status returns a snapshot of the current state (thread-safe)
func (t *Tracker) Status() StatusResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return StatusResponse{
		StartedAt:      t.startedAt,
		Uptime:         time.Since(t.startedAt).Round(time.Second).String(),
		TotalPublished: t.published,
		Logs:           append([]LogEntry{}, t.logs...),
		Recent:         append([]RecordedOutcome{}, t.recent...),
	}
}
