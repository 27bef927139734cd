package scraper

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
)

// ErrBlocked marks an anti-bot rejection (HTTP 403/503), distinct from
// ordinary transport failures so batch callers can apply the
// retry-after-backoff policy to it specifically.
var ErrBlocked = errors.New("blocked by anti-bot protection")

// Browser user agents rotated between requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Client fetches pages with browser-like headers and a rotated user
// agent. One scraper owns one client; it is not safe for concurrent use
// and does not need to be: fetches are strictly sequential.
type Client struct {
	http *http.Client
	rnd  *rand.Rand
}

// NewClient wraps an http.Client, typically one with the configured
// request timeout. rnd drives user-agent rotation and is injected so
// tests can seed it.
func NewClient(httpClient *http.Client, rnd *rand.Rand) *Client {
	return &Client{http: httpClient, rnd: rnd}
}

// userAgent picks a random agent from the pool.
func (c *Client) userAgent() string {
	return userAgents[c.rnd.Intn(len(userAgents))]
}

// Fetch retrieves a page body. A 403 or 503 status comes back wrapped
// in ErrBlocked; every other failure is a plain transport error.
func (c *Client) Fetch(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req, "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, ErrBlocked)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}
	return string(body), nil
}

// FetchJSON retrieves an API response body with a JSON accept header.
func (c *Client) FetchJSON(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req, "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) setHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
}
