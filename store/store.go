package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tweetbot/types"
)

// File names inside the data directory
const (
	publishLogFile     = "tweeted_posts.jsonl"
	resurfaceStateFile = "last_old_tweet.json"
)

// Store is the persisted dedup/state layer: an append-only JSONL publish log
// plus a single overwritten resurface-state record. All lookups go through an
// in-memory index rebuilt from the log at startup; the files stay the source
// of truth. Writes are serialized by a single mutex so a cooldown check and
// the following append form one critical section.
type Store struct {
	mu sync.Mutex

	logPath   string
	statePath string

	records []types.PublishRecord
	latest  map[string]time.Time // item id -> most recent publish time

	mirror *RedisMirror // optional fast-path, nil = disabled
}

// Open loads (or creates) the store files under dataDir and rebuilds the
// in-memory index. A corrupted trailing line in the log is skipped, matching
// the append-friendly on-disk contract.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		logPath:   filepath.Join(dataDir, publishLogFile),
		statePath: filepath.Join(dataDir, resurfaceStateFile),
		latest:    make(map[string]time.Time),
	}

	if err := s.loadLog(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetMirror attaches an optional Redis fast-path duplicate mirror
func (s *Store) SetMirror(m *RedisMirror) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = m
}

func (s *Store) loadLog() error {
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open publish log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.PublishRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Likely a line cut short by a crash mid-write; skip it
			continue
		}
		s.records = append(s.records, rec)
		if rec.PublishedAt.After(s.latest[rec.ItemID]) {
			s.latest[rec.ItemID] = rec.PublishedAt
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read publish log: %w", err)
	}

	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].PublishedAt.Before(s.records[j].PublishedAt)
	})
	return nil
}

// IsWithinCooldown reports whether itemID was successfully published within
// the cooldown window ending at now
func (s *Store) IsWithinCooldown(itemID string, cooldown time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror != nil {
		if hit, err := s.mirror.Seen(itemID); err == nil && hit {
			return true
		}
		// Mirror miss or error falls through to the authoritative index
	}

	last, ok := s.latest[itemID]
	if !ok {
		return false
	}
	return now.Sub(last) < cooldown
}

// RecordPublish appends a publish record and flushes it to disk before
// returning, so the dedup fact survives a crash right after the platform
// accepted the post
func (s *Store) RecordPublish(itemID, platformPostID, textHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := types.PublishRecord{
		ItemID:         itemID,
		PlatformPostID: platformPostID,
		TextHash:       textHash,
		PublishedAt:    now.UTC(),
	}

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open publish log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal publish record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append publish record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync publish log: %w", err)
	}

	s.records = append(s.records, rec)
	if rec.PublishedAt.After(s.latest[rec.ItemID]) {
		s.latest[rec.ItemID] = rec.PublishedAt
	}

	if s.mirror != nil {
		if err := s.mirror.Mark(itemID); err != nil {
			// Mirror is advisory only; the log line above is the record
			return nil
		}
	}
	return nil
}

// AllRecords returns a copy of all publish records, publishedAt ascending
func (s *Store) AllRecords() []types.PublishRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.PublishRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of publish records
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ResurfaceState loads the resurface-state record. A missing or unreadable
// file yields the zero state, which callers treat as "due now".
func (s *Store) ResurfaceState() types.ResurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st types.ResurfaceState
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return types.ResurfaceState{}
	}
	return st
}

// SetResurfaceState overwrites the resurface-state record durably
func (s *Store) SetResurfaceState(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.ResurfaceState{LastFiredAt: now.UTC()}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resurface state: %w", err)
	}

	tmp := s.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write resurface state: %w", err)
	}
	if err := os.Rename(tmp, s.statePath); err != nil {
		return fmt.Errorf("replace resurface state: %w", err)
	}
	return nil
}
