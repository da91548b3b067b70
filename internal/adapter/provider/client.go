// Package provider holds what the itinerary fetchers share: per-proxy HTTP
// clients, user-agent rotation and the flight normalization rules.
package provider

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxBodyBytes caps the size of an itinerary response.
const MaxBodyBytes = 8 << 20

// MaxProxyClients bounds the proxied clients kept for reuse. Pool proxies are
// short-lived, so older clients are evicted and their idle connections closed.
const MaxProxyClients = 32

// Clients hands out the direct client and one HTTP client per recent proxy so
// connections are reused across fetches through the same proxy. It is safe for
// concurrent use.
type Clients struct {
	timeout time.Duration
	direct  *http.Client
	proxied *lru.Cache[string, *http.Client]
}

// NewClients creates a client cache whose clients time out after timeout.
func NewClients(timeout time.Duration) *Clients {
	proxied, _ := lru.NewWithEvict(MaxProxyClients, func(_ string, cl *http.Client) {
		cl.CloseIdleConnections()
	})
	return &Clients{
		timeout: timeout,
		direct:  &http.Client{Transport: newTransport(nil), Timeout: timeout},
		proxied: proxied,
	}
}

// For returns the client for proxy, or the direct client for an empty proxy.
func (c *Clients) For(proxy string) (*http.Client, error) {
	if proxy == "" {
		return c.direct, nil
	}
	if cl, ok := c.proxied.Get(proxy); ok {
		return cl, nil
	}

	u, err := url.Parse(proxy)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q", proxy)
	}
	cl := &http.Client{Transport: newTransport(u), Timeout: c.timeout}
	if prev, ok, _ := c.proxied.PeekOrAdd(proxy, cl); ok {
		return prev, nil
	}
	return cl, nil
}

// Len returns the number of proxied clients held.
func (c *Clients) Len() int {
	return c.proxied.Len()
}

func newTransport(proxy *url.URL) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return transport
}

// ReadBody reads a successful response body. Non-2xx statuses are errors.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
