package qstash

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SignatureHeader = "Upstash-Signature"
	issuer          = "Upstash"
	clockSkew       = 5 * time.Second
)

var (
	ErrMissingSignature = errors.New("qstash: missing signature")
	ErrInvalidSignature = errors.New("qstash: invalid signature")
)

type Config struct {
	URL               string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token             string        `split_words:"true" required:"true"`
	CurrentSigningKey string        `split_words:"true" required:"true"`
	NextSigningKey    string        `split_words:"true" required:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL           string
	token             string
	currentSigningKey string
	nextSigningKey    string
	httpClient        *http.Client
	now               func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		token:             strings.TrimSpace(cfg.Token),
		currentSigningKey: strings.TrimSpace(cfg.CurrentSigningKey),
		nextSigningKey:    strings.TrimSpace(cfg.NextSigningKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

// Publish enqueues body for delivery to destination and returns the QStash
// message id.
func (c *Client) Publish(ctx context.Context, destination string, body any) (string, error) {
	if c == nil {
		return "", errors.New("qstash: nil client")
	}
	destination = strings.TrimSpace(destination)
	if _, err := url.ParseRequestURI(destination); err != nil {
		return "", fmt.Errorf("qstash: invalid destination: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("qstash: marshal body: %w", err)
	}

	endpoint := c.baseURL + "/v2/publish/" + destination
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qstash: publish: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("qstash: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("qstash: publish status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out publishResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("qstash: decode response: %w", err)
	}
	return out.MessageID, nil
}

type claims struct {
	Body string `json:"body"`
	jwt.RegisteredClaims
}

// Verify checks an Upstash-Signature JWT against the current signing key and
// then the next one. When destination is non-empty it must match the token
// subject.
func (c *Client) Verify(signature string, body []byte, destination string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	var lastErr error
	for _, key := range []string{c.currentSigningKey, c.nextSigningKey} {
		if key == "" {
			continue
		}
		err := c.verifyWithKey(signature, key, body, destination)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no signing key configured", ErrInvalidSignature)
	}
	return lastErr
}

func (c *Client) verifyWithKey(token, key string, body []byte, destination string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(c.now),
	}
	if destination != "" {
		opts = append(opts, jwt.WithSubject(destination))
	}

	cl := &claims{}
	parsed, err := jwt.ParseWithClaims(token, cl, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !parsed.Valid {
		return fmt.Errorf("%w: token is invalid", ErrInvalidSignature)
	}

	sum := sha256.Sum256(body)
	if strings.TrimRight(cl.Body, "=") != base64.RawURLEncoding.EncodeToString(sum[:]) {
		return fmt.Errorf("%w: body hash mismatch", ErrInvalidSignature)
	}
	return nil
}
