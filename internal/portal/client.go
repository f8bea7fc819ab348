package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
)

// HeaderProfile is the browser identity presented to the portal.
// Origin and Referer are derived from each variant's endpoint host.
type HeaderProfile struct {
	UserAgent      string // Empty means a random agent per request
	Accept         string
	AcceptLanguage string
}

// DefaultHeaderProfile mimics a desktop browser. The portals occasionally
// serve stripped-down error pages to clients without realistic headers.
func DefaultHeaderProfile() HeaderProfile {
	return HeaderProfile{
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-IN,en;q=0.9,hi;q=0.8",
	}
}

// variant is one transport attempt shape: method, endpoint, and headers.
// The engine tries variants strictly in order, each exactly once per query.
type variant struct {
	method  string // http.MethodGet or http.MethodPost
	baseURL string
	profile HeaderProfile
}

// Client issues a single transport attempt and returns the raw HTML.
type Client struct {
	httpClient *http.Client
	userAgents []string
}

// NewClient creates a portal HTTP client. timeout is the per-attempt
// ceiling; cancellation of the request context aborts an in-flight call.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgents: browserUserAgents(),
	}
}

// fetch performs one attempt. Non-2xx statuses and network failures are
// returned as PortalError so the engine can advance to the next variant;
// nothing here retries.
func (c *Client) fetch(ctx context.Context, v variant, form url.Values) (string, error) {
	var req *http.Request
	var err error

	switch v.method {
	case http.MethodGet:
		target := v.baseURL + "?" + form.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, v)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewPortalError(v.baseURL, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewPortalError(v.baseURL, resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	reader := decodeCharset(resp.Body, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewPortalError(v.baseURL, resp.StatusCode,
			fmt.Errorf("failed to read body: %w", err))
	}

	return string(body), nil
}

func (c *Client) setHeaders(req *http.Request, v variant) {
	ua := v.profile.UserAgent
	if ua == "" {
		ua = c.randomUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", v.profile.Accept)
	req.Header.Set("Accept-Language", v.profile.AcceptLanguage)

	// Origin/Referer matching the target host; the grade-card portal has
	// been seen rejecting referer-less form posts with a blank page.
	if u, err := url.Parse(v.baseURL); err == nil {
		origin := u.Scheme + "://" + u.Host
		req.Header.Set("Origin", origin)
		req.Header.Set("Referer", origin + "/")
	}
}

// decodeCharset wraps the body reader with a windows-1252 decoder when the
// portal declares a latin charset. IGNOU pages are served as ISO-8859-1
// more often than UTF-8.
func decodeCharset(r io.Reader, contentType string) io.Reader {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "iso-8859-1") || strings.Contains(ct, "windows-1252") || strings.Contains(ct, "latin1") {
		return transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	return r
}

func (c *Client) randomUserAgent() string {
	if len(c.userAgents) == 0 {
		return uarand.GetRandom()
	}
	return c.userAgents[time.Now().UnixNano()%int64(len(c.userAgents))]
}

// browserUserAgents returns a list of common user agent strings
func browserUserAgents() []string {
	return []string{
		// Chrome on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

		// Chrome on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		// Firefox on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",

		// Safari on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",

		// Edge on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",

		// Chrome on Linux
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
