package testsupport

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Backend is an in-memory api.Backend. Set Err to make every call fail.
type Backend struct {
	mu        sync.Mutex
	posts     []post.Post
	videos    []post.Video
	nextID    int
	Err       error
	Generated post.Post
	Calls     []string
}

var _ api.Backend = (*Backend)(nil)

// NewBackend seeds a backend with posts and videos.
func NewBackend(posts []post.Post, videos []post.Video) *Backend {
	b := &Backend{videos: slices.Clone(videos)}
	for _, p := range posts {
		b.posts = append(b.posts, p.Clone())
	}
	return b
}

func (b *Backend) record(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, op)
	return b.Err
}

func (b *Backend) ListPosts(_ context.Context, position post.Position) ([]post.Post, error) {
	if err := b.record("list posts"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]post.Post, 0, len(b.posts))
	for _, p := range b.posts {
		if position == "" || p.Position == position {
			out = append(out, p.Clone())
		}
	}
	post.SortByDate(out)
	return out, nil
}

func (b *Backend) GetPost(_ context.Context, id string) (post.Post, error) {
	if err := b.record("get post"); err != nil {
		return post.Post{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.posts {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return post.Post{}, notFound("get post")
}

func (b *Backend) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	if err := b.record("create post"); err != nil {
		return post.Post{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p = p.Clone()
	p.ID = "new-" + strconv.Itoa(b.nextID)
	b.posts = append(b.posts, p)
	return p.Clone(), nil
}

func (b *Backend) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	if err := b.record("update post"); err != nil {
		return post.Post{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.posts {
		if b.posts[i].ID == p.ID {
			b.posts[i] = p.Clone()
			return p.Clone(), nil
		}
	}
	return post.Post{}, notFound("update post")
}

func (b *Backend) DeletePost(_ context.Context, id string) error {
	if err := b.record("delete post"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.posts {
		if b.posts[i].ID == id {
			b.posts = slices.Delete(b.posts, i, i+1)
			return nil
		}
	}
	return notFound("delete post")
}

func (b *Backend) ListVideos(context.Context) ([]post.Video, error) {
	if err := b.record("list videos"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.videos), nil
}

func (b *Backend) Generate(_ context.Context, req api.GenerateRequest) (post.Post, error) {
	if err := b.record("generate"); err != nil {
		return post.Post{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.Generated.Clone()
	if out.Title == "" {
		out.Title = req.Title
	}
	return out, nil
}

// Posts returns a snapshot of the stored posts.
func (b *Backend) Posts() []post.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]post.Post, 0, len(b.posts))
	for _, p := range b.posts {
		out = append(out, p.Clone())
	}
	return out
}

func notFound(op string) error {
	return &api.StatusError{Code: http.StatusNotFound, Op: op, Message: "not found"}
}
