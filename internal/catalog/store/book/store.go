// Package book holds the catalog's book stores: in-memory, Postgres, and a
// Redis read-through cache that wraps either.
package book

import (
	"context"

	"library/internal/catalog/models"
	id "library/pkg/domain"
)

// Store is the contract every book store satisfies. Lookups of unknown
// records return sentinel.ErrNotFound; isbn collisions return
// sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, bookID id.BookID) error
	Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error)
}

var (
	_ Store = (*InMemory)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*CachedStore)(nil)
)
