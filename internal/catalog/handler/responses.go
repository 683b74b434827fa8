package handler

import "library/internal/catalog/models"

// BookResponse is the wire shape of a book.
type BookResponse struct {
	ID     int64  `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func toBookResponse(b models.Book) BookResponse {
	return BookResponse{
		ID:     int64(b.ID),
		ISBN:   b.ISBN,
		Title:  b.Title,
		Author: b.Author,
	}
}
