package tenor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mediaforge/internal/services"
)

// Format selects which rendition of a Tenor post to return.
type Format string

const (
	FormatMP4 Format = "mp4"
	FormatGIF Format = "gif"
)

var permalinkPattern = regexp.MustCompile(`^https?://tenor\.com/view/([^-/]+-)*(\d+)/?$`)

// PostID extracts the numeric post identifier from a tenor.com permalink.
func PostID(permalink string) (string, bool) {
	match := permalinkPattern.FindStringSubmatch(strings.TrimSpace(permalink))
	if match == nil {
		return "", false
	}
	return match[2], true
}

// IsPermalink reports whether raw is a tenor.com post permalink.
func IsPermalink(raw string) bool {
	_, ok := PostID(raw)
	return ok
}

// Resolver resolves a permalink into a direct media URL.
type Resolver interface {
	Resolve(ctx context.Context, permalink string, format Format) (string, error)
}

// Client talks to the Tenor v2 API, falling back to page scraping when no key
// is configured.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout on the client's HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a Tenor client. An empty apiKey selects the scraping fallback.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("tenor base url required")
	}
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// HasAPIKey reports whether lookups go through the API rather than scraping.
func (c *Client) HasAPIKey() bool {
	return c != nil && c.apiKey != ""
}

type mediaFormat struct {
	URL string `json:"url"`
}

type post struct {
	ID           string                 `json:"id"`
	MediaFormats map[string]mediaFormat `json:"media_formats"`
}

type postsResponse struct {
	Results []post          `json:"results"`
	Error   json.RawMessage `json:"error"`
}

// Resolve returns the direct URL of the requested rendition. Every failure
// wraps services.ErrResolutionFailure.
func (c *Client) Resolve(ctx context.Context, permalink string, format Format) (string, error) {
	id, ok := PostID(permalink)
	if !ok {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "resolve", fmt.Sprintf("not a tenor permalink: %q", permalink), nil)
	}
	if format == "" {
		format = FormatMP4
	}
	if c.apiKey == "" {
		return c.scrape(ctx, permalink, format)
	}
	return c.lookup(ctx, id, format)
}

func (c *Client) lookup(ctx context.Context, id string, format Format) (string, error) {
	endpoint, err := url.Parse(c.baseURL + "/posts")
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", "parse base url", err)
	}
	params := url.Values{}
	params.Set("ids", id)
	params.Set("key", c.apiKey)
	params.Set("limit", "1")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", "build request", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	var payload postsResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)
	if len(payload.Error) > 0 && string(payload.Error) != "null" {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", "api error: "+errorText(payload.Error), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", fmt.Sprintf("posts returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if decodeErr != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", "decode response", decodeErr)
	}
	if len(payload.Results) == 0 {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", "no post with id "+id, nil)
	}
	media, ok := payload.Results[0].MediaFormats[string(format)]
	if !ok || strings.TrimSpace(media.URL) == "" {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "lookup", fmt.Sprintf("post %s has no %s rendition", id, format), nil)
	}
	return media.URL, nil
}

func errorText(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asObject struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && asObject.Message != "" {
		return asObject.Message
	}
	return string(raw)
}

func (c *Client) scrape(ctx context.Context, permalink string, format Format) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, permalink, nil)
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "scrape", "build request", err)
	}
	req.Header.Set("User-Agent", "mediaforge")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "scrape", "fetch permalink", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "scrape", fmt.Sprintf("permalink returned %d", resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", services.Wrap(services.ErrResolutionFailure, "tenor", "scrape", "parse page", err)
	}

	selectors := []string{"meta[property='og:video:secure_url']", "meta[property='og:video']"}
	if format == FormatGIF {
		selectors = []string{"meta[property='og:image']", "meta[name='twitter:image']"}
	}
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content), nil
		}
	}
	return "", services.Wrap(services.ErrResolutionFailure, "tenor", "scrape", fmt.Sprintf("no %s meta tag on page", format), nil)
}
