package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordPublishAndCooldown(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	cooldown := 72 * time.Hour

	if s.IsWithinCooldown("a1", cooldown, now) {
		t.Fatal("empty store reported a1 within cooldown")
	}

	if err := s.RecordPublish("a1", "tw-100", "hash-1", now); err != nil {
		t.Fatalf("RecordPublish failed: %v", err)
	}

	if !s.IsWithinCooldown("a1", cooldown, now.Add(time.Hour)) {
		t.Error("a1 should be within cooldown 1h after publish")
	}
	if !s.IsWithinCooldown("a1", cooldown, now.Add(71*time.Hour)) {
		t.Error("a1 should be within cooldown 71h after publish")
	}
	if s.IsWithinCooldown("a1", cooldown, now.Add(73*time.Hour)) {
		t.Error("a1 should be out of cooldown 73h after publish")
	}
	if s.IsWithinCooldown("b2", cooldown, now.Add(time.Hour)) {
		t.Error("b2 was never published")
	}
}

func TestReloadRebuildsIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	base := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "b2", "c3"} {
		if err := s.RecordPublish(id, "tw-"+id, "h-"+id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("RecordPublish(%s) failed: %v", id, err)
		}
	}

	// Fresh instance over the same files
	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	records := reloaded.AllRecords()
	if len(records) != 3 {
		t.Fatalf("expected 3 records after reload, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].PublishedAt.Before(records[i-1].PublishedAt) {
			t.Error("AllRecords is not publishedAt ascending")
		}
	}
	if !reloaded.IsWithinCooldown("b2", 72*time.Hour, base.Add(3*time.Hour)) {
		t.Error("reloaded index lost b2")
	}
}

func TestCorruptedTrailingLineIsSkipped(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	now := time.Now().UTC()
	if err := s.RecordPublish("a1", "tw-1", "h-1", now); err != nil {
		t.Fatalf("RecordPublish failed: %v", err)
	}

	// Simulate a crash mid-append: a half-written JSON line at the end
	logPath := filepath.Join(dir, publishLogFile)
	f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString(`{"item_id":"b2","platform_post`); err != nil {
		t.Fatalf("write partial line: %v", err)
	}
	f.Close()

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen over corrupted log failed: %v", err)
	}
	if got := reloaded.Count(); got != 1 {
		t.Errorf("expected 1 intact record, got %d", got)
	}
	if reloaded.IsWithinCooldown("b2", 72*time.Hour, now) {
		t.Error("corrupted record should not enter the index")
	}
}

func TestResurfaceState(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if st := s.ResurfaceState(); !st.LastFiredAt.IsZero() {
		t.Errorf("fresh store should have zero resurface state, got %v", st.LastFiredAt)
	}

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	if err := s.SetResurfaceState(now); err != nil {
		t.Fatalf("SetResurfaceState failed: %v", err)
	}

	// Survives a reopen
	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reloaded.ResurfaceState().LastFiredAt; !got.Equal(now) {
		t.Errorf("resurface state = %v, want %v", got, now)
	}
}
