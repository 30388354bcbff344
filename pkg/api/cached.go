package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/goliatone/go-vitalpress/pkg/cache"
	"github.com/goliatone/go-vitalpress/pkg/post"
)

const (
	keyVideos     = "videos"
	keyPostsAll   = "posts:all"
	keyPostPrefix = "post:"
)

func postsKey(position post.Position) string {
	if position == "" {
		return keyPostsAll
	}
	return "posts:" + position.String()
}

// CachedClient decorates a Backend with a read-through cache for list and
// detail reads. Writes invalidate every list key and the affected detail key.
type CachedClient struct {
	next   Backend
	store  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Backend = (*CachedClient)(nil)

// NewCachedClient wraps next. A nil store disables caching.
func NewCachedClient(next Backend, store cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedClient{next: next, store: store, ttl: ttl, logger: logger}
}

func (c *CachedClient) ListPosts(ctx context.Context, position post.Position) ([]post.Post, error) {
	var posts []post.Post
	if c.load(ctx, postsKey(position), &posts) {
		return posts, nil
	}
	return c.RefreshPosts(ctx, position)
}

// RefreshPosts bypasses the cache, fetches the list and stores it.
func (c *CachedClient) RefreshPosts(ctx context.Context, position post.Position) ([]post.Post, error) {
	posts, err := c.next.ListPosts(ctx, position)
	if err != nil {
		return nil, err
	}
	c.save(ctx, postsKey(position), posts)
	return posts, nil
}

func (c *CachedClient) GetPost(ctx context.Context, id string) (post.Post, error) {
	var p post.Post
	if c.load(ctx, keyPostPrefix+id, &p) {
		return p, nil
	}
	p, err := c.next.GetPost(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	c.save(ctx, keyPostPrefix+id, p)
	return p, nil
}

func (c *CachedClient) ListVideos(ctx context.Context) ([]post.Video, error) {
	var videos []post.Video
	if c.load(ctx, keyVideos, &videos) {
		return videos, nil
	}
	return c.RefreshVideos(ctx)
}

// RefreshVideos bypasses the cache, fetches the video list and stores it.
func (c *CachedClient) RefreshVideos(ctx context.Context) ([]post.Video, error) {
	videos, err := c.next.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, keyVideos, videos)
	return videos, nil
}

func (c *CachedClient) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	out, err := c.next.CreatePost(ctx, p)
	if err != nil {
		return post.Post{}, err
	}
	c.invalidate(ctx, out.ID)
	return out, nil
}

func (c *CachedClient) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	out, err := c.next.UpdatePost(ctx, p)
	if err != nil {
		return post.Post{}, err
	}
	c.invalidate(ctx, p.ID)
	return out, nil
}

func (c *CachedClient) DeletePost(ctx context.Context, id string) error {
	if err := c.next.DeletePost(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// Generate is never cached.
func (c *CachedClient) Generate(ctx context.Context, req GenerateRequest) (post.Post, error) {
	return c.next.Generate(ctx, req)
}

func (c *CachedClient) load(ctx context.Context, key string, out any) bool {
	if c.store == nil {
		return false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		_ = c.store.Delete(ctx, key)
		return false
	}
	return true
}

func (c *CachedClient) save(ctx context.Context, key string, value any) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *CachedClient) invalidate(ctx context.Context, id string) {
	if c.store == nil {
		return
	}
	keys := []string{keyPostsAll}
	for _, position := range post.Positions() {
		keys = append(keys, postsKey(position))
	}
	if id != "" {
		keys = append(keys, keyPostPrefix+id)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidation failed", "error", err)
	}
}
