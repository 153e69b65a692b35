package composer

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"tweetbot/types"
)

func testPost(title, link string) *types.Post {
	return &types.Post{
		ID:    types.GenerateID(link),
		Title: title,
		URL:   link,
	}
}

func TestAsQuestion(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title", "نظام جديد", "نظام جديد؟"},
		{"trailing period", "خبر مهم.", "خبر مهم؟"},
		{"trailing exclamations", "مفاجأة!!", "مفاجأة؟"},
		{"trailing ellipsis", "تفاصيل…", "تفاصيل؟"},
		{"already arabic question", "هل سمعت؟", "هل سمعت؟"},
		{"already latin question", "Did you hear?", "Did you hear?"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AsQuestion(tt.title); got != tt.want {
				t.Errorf("AsQuestion(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestComposeWithinLimit(t *testing.T) {
	c := New("https://www.youtube.com/@example")
	longTitle := strings.Repeat("عنوان طويل جدًا ", 30)

	for attempt := 0; attempt < 3; attempt++ {
		text, err := c.Compose(testPost(longTitle, "https://x.test/a1"), attempt)
		if err != nil {
			t.Fatalf("Compose attempt %d failed: %v", attempt, err)
		}
		if n := utf8.RuneCountInString(text); n > MaxLength {
			t.Errorf("attempt %d: composed %d chars, limit %d", attempt, n, MaxLength)
		}
	}
}

func TestComposeVariantsPairwiseDistinct(t *testing.T) {
	c := New("https://www.youtube.com/@example")
	post := testPost("نظام جديد", "https://x.test/a1")

	texts := make([]string, 3)
	for attempt := 0; attempt < 3; attempt++ {
		text, err := c.Compose(post, attempt)
		if err != nil {
			t.Fatalf("Compose attempt %d failed: %v", attempt, err)
		}
		texts[attempt] = text
	}

	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			if texts[i] == texts[j] {
				t.Errorf("attempts %d and %d produced identical text:\n%s", i, j, texts[i])
			}
		}
	}
}

func TestComposePreservesURLHostAndPath(t *testing.T) {
	c := New("https://www.youtube.com/@example")
	post := testPost("نظام جديد", "https://x.test/2025/11/post.html?utm_source=feed")

	orig, err := url.Parse(post.URL)
	if err != nil {
		t.Fatal(err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		text, err := c.Compose(post, attempt)
		if err != nil {
			t.Fatalf("Compose attempt %d failed: %v", attempt, err)
		}

		link := findLink(t, text)
		u, err := url.Parse(link)
		if err != nil {
			t.Fatalf("attempt %d produced unparseable link %q: %v", attempt, link, err)
		}
		if u.Host != orig.Host || u.Path != orig.Path {
			t.Errorf("attempt %d altered destination: got %s%s, want %s%s", attempt, u.Host, u.Path, orig.Host, orig.Path)
		}
		if attempt > 0 {
			q := u.Query()
			if q.Get("utm_source") != "feed" {
				t.Errorf("attempt %d dropped the original query string", attempt)
			}
			if q.Get("v") == "" {
				t.Errorf("attempt %d missing tracking parameter", attempt)
			}
		}
	}
}

func TestComposeDropsLowPriorityLinesFirst(t *testing.T) {
	c := New("https://www.youtube.com/@example")
	// A link long enough that hook+CTA+link+hashtag cannot fit even with a
	// minimal hook, but hook+link+hashtag can: the CTA must go first.
	longLink := "https://x.test/" + strings.Repeat("p", 235)
	post := testPost("عنوان المقال الجديد لهذا الأسبوع", longLink)

	text, err := c.Compose(post, 0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if !strings.Contains(text, longLink) {
		t.Fatal("URL line must never be dropped or truncated")
	}
	if strings.Contains(text, "يوتيوب") {
		t.Error("CTA should be the first line shed when space runs out")
	}
	if !strings.Contains(text, "#لودينغ") {
		t.Error("hashtag shed before the CTA; CTA is lower priority")
	}
	if n := utf8.RuneCountInString(text); n > MaxLength {
		t.Errorf("composed %d chars, limit %d", n, MaxLength)
	}
}

func TestComposeRejectsOversizedURL(t *testing.T) {
	c := New("https://www.youtube.com/@example")
	post := testPost("عنوان", "https://x.test/"+strings.Repeat("p", 400))

	if _, err := c.Compose(post, 0); err == nil {
		t.Error("expected an error for a URL that cannot fit, got none")
	}
}

// findLink extracts the line carrying the destination URL
func findLink(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "https://x.test/") {
			return line
		}
	}
	t.Fatalf("no destination link line in:\n%s", text)
	return ""
}
