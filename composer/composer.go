// Package composer assembles platform-safe post text from a blog post,
// producing a distinct variant per retry attempt so the platform's
// duplicate-content filter accepts resubmissions.
package composer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"tweetbot/types"
)

// MaxLength is the platform's hard character limit per post
const MaxLength = 280

// Minimum hook room before we give up truncating and drop lines instead
const minHookRoom = 10

// Zero-width space, an invisible variation marker the platform still counts
// as distinct content
const zeroWidthMark = "\u200b"

var trailingPunct = regexp.MustCompile(`[.!…]+$`)

// Call-to-action phrasings, rotated across retry attempts. %s is the
// YouTube channel URL.
var ctaPhrasings = []string{
	"قناتنا على يوتيوب: %s",
	"تابعنا على يوتيوب: %s",
	"المزيد على قناتنا: %s",
	"شاهد المزيد هنا: %s",
}

// Composer builds post text for candidate items. It holds only fixed
// presentation inputs; per-item state lives in the arguments.
type Composer struct {
	youtubeURL string
	hashtag    string
}

// New creates a Composer with the channel CTA target
func New(youtubeURL string) *Composer {
	return &Composer{
		youtubeURL: youtubeURL,
		hashtag:    "#لودينغ",
	}
}

// AsQuestion converts a title into question form: titles already ending in a
// question mark (Arabic or Latin) pass through, otherwise trailing
// punctuation is stripped and an Arabic question mark appended.
func AsQuestion(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return t
	}
	if strings.HasSuffix(t, "؟") || strings.HasSuffix(t, "?") {
		return t
	}
	return trailingPunct.ReplaceAllString(t, "") + "؟"
}

// Compose builds the post text for the given attempt. Attempt 0 is the
// canonical rendition; higher attempts rotate the CTA phrasing, append an
// attempt-unique tracking parameter to the URL and insert an invisible
// marker, so any two attempts for the same item differ. The destination
// URL's host and path are never modified.
func (c *Composer) Compose(item *types.Post, attempt int) (string, error) {
	hook := AsQuestion(item.Title)
	if hook == "" {
		hook = "تفاصيل أكثر في المقال:"
	}

	link := item.URL
	if attempt > 0 {
		withTracking, err := appendTracking(item.URL, variantToken(item.ID, attempt))
		if err != nil {
			return "", fmt.Errorf("bad item url %q: %w", item.URL, err)
		}
		link = withTracking
	}

	cta := fmt.Sprintf(ctaPhrasings[attempt%len(ctaPhrasings)], c.youtubeURL)

	if attempt > 0 {
		hook = insertMark(hook, attempt)
	}

	// Assemble at full priority, then shed lines lowest-priority first
	// (CTA, then hashtag) until the hook has room to be truncated into.
	for _, lines := range [][]string{
		{hook, cta, link, c.hashtag},
		{hook, link, c.hashtag},
		{hook, link},
	} {
		if text, ok := fitLines(lines); ok {
			return text, nil
		}
	}

	// Even "URL only" not fitting means the link itself is oversized;
	// refuse rather than truncate the URL.
	return "", fmt.Errorf("item url too long to compose within %d chars", MaxLength)
}

// fitLines joins lines, truncating only the hook (lines[0]) when the total
// exceeds the budget. Returns false when the hook cannot absorb the overflow.
func fitLines(lines []string) (string, bool) {
	text := strings.Join(lines, "\n")
	total := utf8.RuneCountInString(text)
	if total <= MaxLength {
		return text, true
	}

	hookLen := utf8.RuneCountInString(lines[0])
	room := MaxLength - (total - hookLen)
	if room < minHookRoom {
		return "", false
	}

	shortened := truncateRunes(lines[0], room-1) + "…"
	lines[0] = shortened
	return strings.Join(lines, "\n"), true
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

// appendTracking adds an attempt-unique query parameter, preserving any
// existing query string and leaving host and path untouched
func appendTracking(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("v", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// variantToken derives a short, reproducible tracking value from the item id
// and attempt index. Different attempts always yield different tokens, which
// is what keeps retry variants pairwise distinct even before CTA rotation.
func variantToken(itemID string, attempt int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", itemID, attempt)))
	return hex.EncodeToString(sum[:])[:6]
}

// insertMark places a zero-width marker between two words of the hook,
// position chosen by the attempt index so repeated attempts move it around
func insertMark(hook string, attempt int) string {
	words := strings.Fields(hook)
	if len(words) < 2 {
		return hook + zeroWidthMark
	}
	pos := 1 + (attempt-1)%(len(words)-1)
	return strings.Join(words[:pos], " ") + zeroWidthMark + " " + strings.Join(words[pos:], " ")
}
