package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

var (
	ErrProfileNotCached = errors.New("store profile not cached")
	ErrInvalidStoreID   = errors.New("store id is empty")
)

const (
	defaultCacheKeyPrefix = "msa:profile:"
	defaultCacheTTL       = 10 * time.Minute
	maxResponseSizeBytes  = 1 << 20
)

// Cache holds store profiles between turns.
type Cache interface {
	Get(ctx context.Context, storeID string) (contractx.StoreProfile, error)
	Set(ctx context.Context, p contractx.StoreProfile) error
	Delete(ctx context.Context, storeID string) error
}

type CacheOption func(*UpstashRedisCache)

func WithKeyPrefix(prefix string) CacheOption {
	return func(c *UpstashRedisCache) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			c.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *UpstashRedisCache) {
		c.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *UpstashRedisCache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// UpstashRedisCache stores profiles in Upstash Redis via its REST API.
type UpstashRedisCache struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL       string        `envconfig:"URL" split_words:"true" required:"true"`
	Token     string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"2s"`
	TTL       time.Duration `envconfig:"TTL" default:"10m"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true"`
}

func NewUpstashRedisCache(cfg UpstashRedisConfig, opts ...CacheOption) (*UpstashRedisCache, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	cache := &UpstashRedisCache{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultCacheKeyPrefix,
		ttl:        ttl,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}

	if cache.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return cache, nil
}

func (c *UpstashRedisCache) Get(ctx context.Context, storeID string) (contractx.StoreProfile, error) {
	key, err := c.redisKey(storeID)
	if err != nil {
		return contractx.StoreProfile{}, err
	}

	resp, err := c.exec(ctx, []any{"GET", key})
	if err != nil {
		return contractx.StoreProfile{}, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return contractx.StoreProfile{}, ErrProfileNotCached
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return contractx.StoreProfile{}, fmt.Errorf("decode profile payload: %w", err)
	}

	var p contractx.StoreProfile
	if err := json.Unmarshal([]byte(encoded), &p); err != nil {
		return contractx.StoreProfile{}, fmt.Errorf("unmarshal store profile: %w", err)
	}
	if p.StoreID != storeID {
		return contractx.StoreProfile{}, fmt.Errorf("cached profile store_id=%q does not match %q", p.StoreID, storeID)
	}

	return p, nil
}

func (c *UpstashRedisCache) Set(ctx context.Context, p contractx.StoreProfile) error {
	key, err := c.redisKey(p.StoreID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal store profile: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if c.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(c.ttl))
	}

	_, err = c.exec(ctx, cmd)
	return err
}

func (c *UpstashRedisCache) Delete(ctx context.Context, storeID string) error {
	key, err := c.redisKey(storeID)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, []any{"DEL", key})
	return err
}

func (c *UpstashRedisCache) redisKey(storeID string) (string, error) {
	if strings.TrimSpace(storeID) == "" {
		return "", ErrInvalidStoreID
	}
	prefix := strings.TrimSpace(c.keyPrefix)
	if prefix == "" {
		prefix = defaultCacheKeyPrefix
	}
	return prefix + storeID, nil
}

func (c *UpstashRedisCache) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if c == nil {
		return nil, errors.New("nil cache")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
