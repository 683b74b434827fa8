package book

import (
	"context"
	"errors"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"library/internal/catalog/models"
	id "library/pkg/domain"
)

const (
	keyPrefixBookID   = "catalog:book:id:"
	keyPrefixBookISBN = "catalog:book:isbn:"

	defaultCacheTTL = 5 * time.Minute
)

var cacheJSON = jsoniter.ConfigFastest

// cachedBook is the cache wire form; kept separate from models.Book so the
// model carries no serialization tags.
type cachedBook struct {
	ID     int64  `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// CachedStore is a read-through cache for single-book lookups. Writes go to
// the backing store first and then invalidate the affected keys. Redis
// failures are logged and the call falls through to the backing store.
// Find and ExistsByISBN always hit the backing store.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

type CacheOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCached(next Store, client *redis.Client, opts ...CacheOption) *CachedStore {
	c := &CachedStore{next: next, client: client, ttl: defaultCacheTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) Create(ctx context.Context, book *models.Book) error {
	return c.next.Create(ctx, book)
}

func (c *CachedStore) FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error) {
	return c.readThrough(ctx, keyPrefixBookID+bookID.String(), func() (*models.Book, error) {
		return c.next.FindByID(ctx, bookID)
	})
}

func (c *CachedStore) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return c.readThrough(ctx, keyPrefixBookISBN+isbn, func() (*models.Book, error) {
		return c.next.FindByISBN(ctx, isbn)
	})
}

func (c *CachedStore) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	return c.next.ExistsByISBN(ctx, isbn)
}

func (c *CachedStore) Update(ctx context.Context, book *models.Book) error {
	previous, err := c.next.FindByID(ctx, book.ID)
	if err != nil {
		return err
	}
	if err := c.next.Update(ctx, book); err != nil {
		return err
	}
	c.invalidate(ctx, book.ID, previous.ISBN, book.ISBN)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, bookID id.BookID) error {
	previous, err := c.next.FindByID(ctx, bookID)
	if err != nil {
		return err
	}
	if err := c.next.Delete(ctx, bookID); err != nil {
		return err
	}
	c.invalidate(ctx, bookID, previous.ISBN)
	return nil
}

func (c *CachedStore) Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error) {
	return c.next.Find(ctx, filter, page)
}

func (c *CachedStore) readThrough(ctx context.Context, key string, load func() (*models.Book, error)) (*models.Book, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cb cachedBook
		if decodeErr := cacheJSON.Unmarshal(raw, &cb); decodeErr == nil {
			return &models.Book{ID: id.BookID(cb.ID), ISBN: cb.ISBN, Title: cb.Title, Author: cb.Author}, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "book cache read failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		b, err := load()
		if err != nil {
			return nil, err
		}
		c.store(ctx, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	b := *v.(*models.Book)
	return &b, nil
}

// store caches b under both its id and isbn keys.
func (c *CachedStore) store(ctx context.Context, b *models.Book) {
	payload, err := cacheJSON.Marshal(cachedBook{ID: int64(b.ID), ISBN: b.ISBN, Title: b.Title, Author: b.Author})
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, keyPrefixBookID+b.ID.String(), payload, c.ttl)
	pipe.Set(ctx, keyPrefixBookISBN+b.ISBN, payload, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "book cache write failed", "book_id", b.ID, "error", err)
	}
}

func (c *CachedStore) invalidate(ctx context.Context, bookID id.BookID, isbns ...string) {
	keys := []string{keyPrefixBookID + bookID.String()}
	for _, isbn := range isbns {
		keys = append(keys, keyPrefixBookISBN+isbn)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "book cache invalidation failed", "book_id", bookID, "error", err)
	}
}
