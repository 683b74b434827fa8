//go:build integration

package book_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"library/internal/catalog/models"
	"library/internal/catalog/store/book"
	"library/pkg/platform/sentinel"
	"library/pkg/testutil/containers"
)

type CachedBookStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *book.InMemory
	store   *book.CachedStore
	ctx     context.Context
}

func TestCachedBookStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedBookStoreSuite))
}

func (s *CachedBookStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *CachedBookStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.backing = book.NewInMemory()
	s.store = book.NewCached(s.backing, s.redis.Client, book.WithCacheTTL(time.Minute))
}

func (s *CachedBookStoreSuite) TestReadThroughPopulatesBothKeys() {
	b := &models.Book{ISBN: "123", Title: "T", Author: "A"}
	s.Require().NoError(s.store.Create(s.ctx, b))

	found, err := s.store.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(*b, *found)

	keys, err := s.redis.Client.Keys(s.ctx, "catalog:book:*").Result()
	s.Require().NoError(err)
	s.ElementsMatch([]string{"catalog:book:id:" + b.ID.String(), "catalog:book:isbn:123"}, keys)

	ttl, err := s.redis.Client.TTL(s.ctx, "catalog:book:isbn:123").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *CachedBookStoreSuite) TestServesFromCache() {
	b := &models.Book{ISBN: "c", Title: "Cached", Author: "A"}
	s.Require().NoError(s.store.Create(s.ctx, b))
	_, err := s.store.FindByISBN(s.ctx, "c")
	s.Require().NoError(err)

	// bypass the cache so only Redis still knows the old title
	changed := *b
	changed.Title = "Changed"
	s.Require().NoError(s.backing.Update(s.ctx, &changed))

	found, err := s.store.FindByISBN(s.ctx, "c")
	s.Require().NoError(err)
	s.Equal("Cached", found.Title)
}

func (s *CachedBookStoreSuite) TestWritesInvalidate() {
	b := &models.Book{ISBN: "old", Title: "T", Author: "A"}
	s.Require().NoError(s.store.Create(s.ctx, b))
	_, err := s.store.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)

	b.ISBN = "new"
	b.Title = "Updated"
	s.Require().NoError(s.store.Update(s.ctx, b))

	found, err := s.store.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("Updated", found.Title)

	_, err = s.store.FindByISBN(s.ctx, "old")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(s.ctx, b.ID))
	_, err = s.store.FindByID(s.ctx, b.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedBookStoreSuite) TestNegativeLookupsAreNotCached() {
	_, err := s.store.FindByISBN(s.ctx, "later")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(s.ctx, &models.Book{ISBN: "later", Title: "T", Author: "A"}))
	found, err := s.store.FindByISBN(s.ctx, "later")
	s.Require().NoError(err)
	s.Equal("later", found.ISBN)
}
