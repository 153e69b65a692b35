package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	xTokenURL  = "https://api.x.com/2/oauth2/token"
	xTweetsURL = "https://api.x.com/2/tweets"
	xMediaURL  = "https://api.x.com/2/media/upload"
)

// XConfig holds OAuth2 user-context credentials for the X API v2
type XConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Timeout bounds each API call, default 30s
	Timeout time.Duration
}

// XClient posts to X (Twitter) through the v2 API with an auto-refreshing
// OAuth2 user token
type XClient struct {
	http *http.Client
}

// NewXClient builds a client whose token source refreshes from the stored
// refresh token on demand
func NewXClient(cfg XConfig) *XClient {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  xTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ts := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = timeout

	return &XClient{http: client}
}

type createTweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type createTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// CreatePost submits a tweet and maps platform rejections onto the sentinel
// error kinds
func (c *XClient) CreatePost(ctx context.Context, text string, mediaID string) (string, error) {
	reqBody := createTweetRequest{Text: text}
	if mediaID != "" {
		reqBody.Media = &tweetMedia{MediaIDs: []string{mediaID}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xTweetsURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create tweet: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var out createTweetResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode tweet response: %w", err)
		}
		if out.Data.ID == "" {
			return "", fmt.Errorf("tweet accepted but no id in response")
		}
		return out.Data.ID, nil
	}

	return "", classifyRejection(resp.StatusCode, body)
}

// classifyRejection maps an API error response to a sentinel kind. X reports
// duplicate content as a 403 whose detail mentions duplicate content.
func classifyRejection(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	detail := ae.Detail
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusForbidden && strings.Contains(strings.ToLower(detail), "duplicate"):
		return fmt.Errorf("%w: %s", ErrDuplicateContent, detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnauthorized, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, detail)
	default:
		return fmt.Errorf("create tweet: HTTP %d: %s", status, detail)
	}
}

type mediaUploadResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	// Legacy field name used by some deployments
	MediaIDString string `json:"media_id_string"`
}

// UploadMedia uploads image bytes and returns the media id. Failures here
// are best-effort for callers: a post without media is still a post.
func (c *XClient) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	form := url.Values{}
	form.Set("media_data", base64.StdEncoding.EncodeToString(data))
	form.Set("media_category", "tweet_image")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xMediaURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyRejection(resp.StatusCode, body)
	}

	var out mediaUploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	if out.Data.ID != "" {
		return out.Data.ID, nil
	}
	if out.MediaIDString != "" {
		return out.MediaIDString, nil
	}
	return "", fmt.Errorf("media accepted but no id in response")
}
