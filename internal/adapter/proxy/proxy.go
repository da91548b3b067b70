// Package proxy implements the proxy sources handed to the fetch client:
// a local pool endpoint, a remote list fetched once, or none.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flight-fares/fare-harvester/internal/adapter/provider"
	"github.com/flight-fares/fare-harvester/internal/config"
	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/logger"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/retry"
)

// None never hands out a proxy.
type None struct{}

// Next always reports no proxy.
func (None) Next(context.Context) (string, bool) {
	return "", false
}

// Pool asks a local pool endpoint for one proxy per call.
type Pool struct {
	url     string
	client  *http.Client
	backoff time.Duration
	log     *logger.Logger
}

// NewPool creates a pool source. After a failed request it sleeps a uniform
// random duration in [0, backoff) before reporting no proxy.
func NewPool(url string, backoff time.Duration, log *logger.Logger) *Pool {
	return &Pool{
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		backoff: backoff,
		log:     log,
	}
}

// Next fetches one proxy from the pool.
func (p *Pool) Next(ctx context.Context) (string, bool) {
	proxy, err := p.get(ctx)
	if err == nil {
		return proxy, true
	}

	p.log.Debug().Err(err).Msg("Proxy pool miss")
	if p.backoff > 0 {
		_ = retry.Sleep(ctx, time.Duration(rand.Int64N(int64(p.backoff))))
	}
	return "", false
}

func (p *Pool) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	body, err := provider.ReadBody(resp)
	if err != nil {
		return "", err
	}
	return parsePoolBody(body)
}

// parsePoolBody accepts either a bare "host:port" line or a JSON object with
// a "proxy" field.
func parsePoolBody(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var obj struct {
			Proxy string `json:"proxy"`
		}
		if err := json.Unmarshal(body, &obj); err != nil {
			return "", fmt.Errorf("decode pool response: %w", err)
		}
		text = strings.TrimSpace(obj.Proxy)
	}
	if text == "" {
		return "", domain.ErrNoProxy
	}
	return normalize(text), nil
}

// List picks uniformly at random from a list fetched once at startup.
type List struct {
	mu      sync.Mutex
	proxies []string
}

// NewList fetches the remote list, retrying transient failures.
func NewList(ctx context.Context, url string) (*List, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	proxies, err := retry.DoWithResult(ctx, func() ([]string, error) {
		return fetchList(ctx, client, url)
	}, retry.StartupConfig.WithRetryIf(retry.SkipPermanent))
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	return &List{proxies: proxies}, nil
}

// NewStaticList builds a list source from known proxies.
func NewStaticList(proxies []string) *List {
	out := make([]string, 0, len(proxies))
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, normalize(p))
		}
	}
	return &List{proxies: out}
}

// Next picks a random proxy from the list.
func (l *List) Next(context.Context) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.proxies) == 0 {
		return "", false
	}
	return l.proxies[rand.IntN(len(l.proxies))], true
}

// Len returns the number of proxies in the list.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.proxies)
}

type listResponse struct {
	Data []struct {
		IP   string          `json:"ip"`
		Port json.RawMessage `json:"port"`
	} `json:"data"`
}

func fetchList(ctx context.Context, client *http.Client, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.NewPermanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := provider.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, retry.NewPermanent(fmt.Errorf("decode proxy list: %w", err))
	}

	proxies := make([]string, 0, len(parsed.Data))
	for _, e := range parsed.Data {
		port := strings.Trim(string(e.Port), `" `)
		if e.IP == "" {
			continue
		}
		if _, err := strconv.Atoi(port); err != nil {
			continue
		}
		proxies = append(proxies, normalize(e.IP+":"+port))
	}
	return proxies, nil
}

// normalize prefixes bare host:port proxies with the http scheme.
func normalize(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	return "http://" + p
}

// New builds the proxy source described by a "none", "pool=URL" or
// "list=URL" spec. A list that cannot be fetched degrades to direct
// connections with a warning.
func New(ctx context.Context, spec string, poolBackoff time.Duration, log *logger.Logger) (domain.ProxySource, error) {
	mode, url, err := config.ParseProxy(spec)
	if err != nil {
		return nil, err
	}

	switch mode {
	case config.ProxyPool:
		return NewPool(url, poolBackoff, log), nil
	case config.ProxyList:
		list, err := NewList(ctx, url)
		if err != nil {
			log.Warn().Err(err).Msg("Proxy list unavailable, fetching direct")
			return None{}, nil
		}
		log.Info().Int("proxies", list.Len()).Msg("Proxy list loaded")
		return list, nil
	default:
		return None{}, nil
	}
}

var (
	_ domain.ProxySource = None{}
	_ domain.ProxySource = (*Pool)(nil)
	_ domain.ProxySource = (*List)(nil)
)
