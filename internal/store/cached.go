package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell/internal/cache"
	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/util"
)

// Cached is a read-through snapshot of the PostStore for page rendering.
// It polls the upstream on an interval, detects changed posts by content
// hash, and notifies so open pages can reload. Writes always go to the
// upstream directly; callers invalidate the snapshot afterwards.
type Cached struct {
	upstream PostStore

	posts *cache.Cache[string, *model.Post]

	mu     sync.RWMutex
	sorted []model.Post

	reloadNotifier func(model.PostID)

	interval time.Duration
}

func NewCached(upstream PostStore, interval time.Duration) *Cached {
	return &Cached{
		upstream: upstream,
		posts:    cache.NewCache[string, *model.Post](),
		interval: interval,
	}
}

// SetReloadNotifier sets a function that will be called for each post whose
// content changed upstream.
func (c *Cached) SetReloadNotifier(notifier func(model.PostID)) {
	c.reloadNotifier = notifier
}

func (c *Cached) notifyPostReload(postID model.PostID) {
	if c.reloadNotifier != nil {
		c.reloadNotifier(postID)
	}
}

// Init performs the first snapshot load. Unlike the periodic reload, a
// failure here is surfaced so startup can decide what to do about it.
func (c *Cached) Init(ctx context.Context) error {
	return c.Reload(ctx)
}

// Run polls the upstream until the context is cancelled.
func (c *Cached) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Reload(ctx); err != nil {
				storeLogger.Error().Err(err).Msg("Error reloading posts")
			}
		}
	}
}

// Reload fetches a fresh snapshot, swaps it in, and notifies about posts
// whose content hash changed since the previous snapshot.
func (c *Cached) Reload(ctx context.Context) error {
	posts, err := c.upstream.List(ctx)
	if err != nil {
		return err
	}

	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return -a.CreatedAt.Compare(b.CreatedAt)
	})

	postMap := make(map[string]*model.Post, len(posts))
	for i := range posts {
		postMap[string(posts[i].ID)] = &posts[i]
	}

	c.mu.Lock()
	previous := c.sorted
	c.sorted = posts
	c.mu.Unlock()

	for _, old := range previous {
		if fresh, ok := postMap[string(old.ID)]; ok {
			if snapshotHash(fresh) != snapshotHash(&old) {
				storeLogger.Info().
					Str("post_id", string(old.ID)).
					Str("title", fresh.Title).
					Msg("Post content changed upstream")
				go c.notifyPostReload(old.ID)
			}
		}
	}

	c.posts.SetTo(postMap)
	return nil
}

// PostList returns the current snapshot, newest first.
func (c *Cached) PostList() []model.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sorted
}

// ReadPost serves a post from the snapshot, falling back to the upstream
// on a miss so a freshly created post is readable before the next poll.
func (c *Cached) ReadPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	if post, ok := c.posts.Get(string(id)); ok {
		return post, nil
	}

	post, err := c.upstream.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.posts.Set(string(id), post)
	return post, nil
}

// Upstream exposes the write side. The snapshot never intercepts writes.
func (c *Cached) Upstream() PostStore {
	return c.upstream
}

func snapshotHash(p *model.Post) string {
	return util.ContentHash([]byte(p.Title + "\x00" + p.Content + "\x00" + p.CoverImage + "\x00" + p.Status))
}
