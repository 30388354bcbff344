package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Backend is the set of backend operations the site depends on.
type Backend interface {
	ListPosts(ctx context.Context, position post.Position) ([]post.Post, error)
	GetPost(ctx context.Context, id string) (post.Post, error)
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	UpdatePost(ctx context.Context, p post.Post) (post.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListVideos(ctx context.Context) ([]post.Video, error)
	Generate(ctx context.Context, req GenerateRequest) (post.Post, error)
}

// GenerateRequest asks the backend to draft summary and body content.
type GenerateRequest struct {
	Title    string        `json:"title"`
	Position post.Position `json:"position,omitempty"`
	Keywords []string      `json:"keywords,omitempty"`
	Prompt   string        `json:"prompt,omitempty"`
}

// Observer receives one call per backend request.
type Observer func(op string, status int, elapsed time.Duration, err error)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "vitalpress"
	maxBodyBytes     = 8 << 20
)

// Client is the HTTP implementation of Backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     string
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
	observer  Observer
}

var _ Backend = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport. The client is copied.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client == nil {
			return
		}
		clone := *client
		if clone.Timeout == 0 {
			clone.Timeout = c.http.Timeout
		}
		c.http = &clone
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithGenerateLimit throttles Generate calls. A zero limit disables throttling.
func WithGenerateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a per-request hook, typically metrics.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// New constructs a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(trimmed, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", baseURL)
	}

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

func (c *Client) ListPosts(ctx context.Context, position post.Position) ([]post.Post, error) {
	query := url.Values{}
	if position != "" {
		query.Set("position", position.String())
	}
	var posts []post.Post
	if err := c.do(ctx, "list posts", http.MethodGet, []string{"posts"}, query, nil, &posts); err != nil {
		return nil, err
	}
	if position != "" {
		kept := posts[:0]
		for _, p := range posts {
			if p.Position == position {
				kept = append(kept, p)
			}
		}
		posts = kept
	}
	if posts == nil {
		posts = []post.Post{}
	}
	post.SortByDate(posts)
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (post.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return post.Post{}, fmt.Errorf("api: get post: id is required")
	}
	var out post.Post
	if err := c.do(ctx, "get post", http.MethodGet, []string{"posts", id}, nil, nil, &out); err != nil {
		return post.Post{}, err
	}
	return out, nil
}

func (c *Client) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	p = p.Clone()
	post.Normalize(&p)
	p.ID = ""
	var out post.Post
	if err := c.do(ctx, "create post", http.MethodPost, []string{"posts"}, nil, p, &out); err != nil {
		return post.Post{}, err
	}
	return out, nil
}

func (c *Client) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	if p.IsNew() {
		return post.Post{}, fmt.Errorf("api: update post: id is required")
	}
	p = p.Clone()
	post.Normalize(&p)
	var out post.Post
	if err := c.do(ctx, "update post", http.MethodPut, []string{"posts", p.ID}, nil, p, &out); err != nil {
		return post.Post{}, err
	}
	if out.ID == "" {
		out.ID = p.ID
	}
	return out, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: delete post: id is required")
	}
	return c.do(ctx, "delete post", http.MethodDelete, []string{"posts", id}, nil, nil, nil)
}

func (c *Client) ListVideos(ctx context.Context) ([]post.Video, error) {
	var videos []post.Video
	if err := c.do(ctx, "list videos", http.MethodGet, []string{"videos"}, nil, nil, &videos); err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []post.Video{}
	}
	return videos, nil
}

// Generate triggers backend content generation. When the configured limiter
// has no token the call fails fast with ErrRateLimited.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (post.Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return post.Post{}, fmt.Errorf("api: generate: title is required")
	}
	req.Keywords = post.NormalizeKeywords(req.Keywords)
	if c.limiter != nil && !c.limiter.Allow() {
		return post.Post{}, ErrRateLimited
	}
	var out post.Post
	if err := c.do(ctx, "generate", http.MethodPost, []string{"generate"}, nil, req, &out); err != nil {
		return post.Post{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method string, path []string, query url.Values, body any, out any) (err error) {
	target := c.base.JoinPath(path...)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("api: %s: encode request: %w", op, marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	status := 0
	defer func() {
		elapsed := time.Since(started)
		if c.observer != nil {
			c.observer(op, status, elapsed, err)
		}
		c.logger.Debug("backend request",
			"op", op, "method", method, "url", target.String(),
			"status", status, "elapsed", elapsed, "error", err)
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("api: %s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(op, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeData(data, out); err != nil {
		return fmt.Errorf("api: %s: decode response: %w", op, err)
	}
	return nil
}

// decodeData accepts either the bare document or a {"data": ...} envelope.
func decodeData(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if inner, ok := envelope["data"]; ok {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}
