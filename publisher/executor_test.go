package publisher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tweetbot/composer"
	"tweetbot/store"
	"tweetbot/types"
)

// scriptedClient returns one scripted result per CreatePost call
type scriptedClient struct {
	results []scriptedResult
	calls   int
	texts   []string
}

type scriptedResult struct {
	id  string
	err error
}

func (c *scriptedClient) CreatePost(ctx context.Context, text string, mediaID string) (string, error) {
	if c.calls >= len(c.results) {
		return "", fmt.Errorf("unexpected call %d", c.calls)
	}
	r := c.results[c.calls]
	c.calls++
	c.texts = append(c.texts, text)
	return r.id, r.err
}

func (c *scriptedClient) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	return "", fmt.Errorf("no media in tests")
}

func newTestExecutor(t *testing.T, client Client) (*Executor, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	exec := NewExecutor(client, composer.New("https://www.youtube.com/@example"), st, nil)
	return exec, st
}

func testItem() *types.Post {
	return &types.Post{
		ID:    "a1",
		Title: "نظام جديد",
		URL:   "https://x.test/a1",
	}
}

func TestPublishSucceedsAfterDuplicateRejections(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{
		{err: fmt.Errorf("%w: too similar", ErrDuplicateContent)},
		{err: fmt.Errorf("%w: too similar", ErrDuplicateContent)},
		{id: "tw-300"},
	}}
	exec, st := newTestExecutor(t, client)

	outcome, err := exec.Publish(context.Background(), testItem(), 3)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !outcome.Success || outcome.PlatformPostID != "tw-300" {
		t.Fatalf("outcome = %+v, want success with tw-300", outcome)
	}
	if outcome.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", outcome.Attempts)
	}

	// Each retry must have submitted different text
	if client.texts[0] == client.texts[1] || client.texts[1] == client.texts[2] || client.texts[0] == client.texts[2] {
		t.Error("retry attempts reused identical text")
	}

	records := st.AllRecords()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 publish record, got %d", len(records))
	}
	if records[0].PlatformPostID != "tw-300" {
		t.Errorf("record references %s, want the succeeding attempt's id tw-300", records[0].PlatformPostID)
	}
	if records[0].TextHash != types.HashText(client.texts[2]) {
		t.Error("record text hash does not match the accepted variant")
	}
}

func TestPublishAbortsOnAuthError(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{
		{err: fmt.Errorf("%w: bad token", ErrUnauthorized)},
	}}
	exec, st := newTestExecutor(t, client)

	outcome, err := exec.Publish(context.Background(), testItem(), 3)
	if outcome.Success {
		t.Fatal("outcome should not be success")
	}
	if client.calls != 1 {
		t.Errorf("made %d calls, want 1 (no retries on auth errors)", client.calls)
	}
	if !IsFatalAuth(err) {
		t.Errorf("error %v should be recognized as fatal auth", err)
	}
	if st.Count() != 0 {
		t.Error("no record should be written on failure")
	}
}

func TestPublishExhaustsDuplicateRetries(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{
		{err: fmt.Errorf("%w", ErrDuplicateContent)},
		{err: fmt.Errorf("%w", ErrDuplicateContent)},
		{err: fmt.Errorf("%w", ErrDuplicateContent)},
	}}
	exec, st := newTestExecutor(t, client)

	outcome, err := exec.Publish(context.Background(), testItem(), 3)
	if outcome.Success {
		t.Fatal("outcome should not be success")
	}
	if client.calls != 3 {
		t.Errorf("made %d calls, want all 3 attempts", client.calls)
	}
	if !IsDuplicate(err) {
		t.Errorf("final error %v should be the duplicate kind", err)
	}
	if st.Count() != 0 {
		t.Error("no record should be written on exhaustion")
	}
}

func TestPublishStampsClock(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{id: "tw-1"}}}
	exec, st := newTestExecutor(t, client)

	fixed := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	exec.SetClock(func() time.Time { return fixed })

	if _, err := exec.Publish(context.Background(), testItem(), 1); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	records := st.AllRecords()
	if len(records) != 1 || !records[0].PublishedAt.Equal(fixed) {
		t.Errorf("record timestamp = %v, want %v", records[0].PublishedAt, fixed)
	}
}
