package handler

import (
	"time"

	"library/internal/lending/models"
)

// CreateLoanResponse carries the id of a new loan.
type CreateLoanResponse struct {
	ID int64 `json:"id"`
}

// LoanBookResponse is the book a loan refers to.
type LoanBookResponse struct {
	ID     int64  `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// LoanResponse is the wire shape of a loan. Returned mirrors Status.
type LoanResponse struct {
	ID       int64            `json:"id"`
	ISBN     string           `json:"isbn"`
	Customer string           `json:"customer"`
	Email    string           `json:"email,omitempty"`
	LoanDate string           `json:"loan_date"`
	Returned bool             `json:"returned"`
	Book     LoanBookResponse `json:"book"`
}

func toLoanResponse(l models.Loan) LoanResponse {
	return LoanResponse{
		ID:       int64(l.ID),
		ISBN:     l.Book.ISBN,
		Customer: l.Customer,
		Email:    l.CustomerEmail,
		LoanDate: l.LoanDate.Format(time.DateOnly),
		Returned: l.Returned(),
		Book: LoanBookResponse{
			ID:     int64(l.Book.ID),
			ISBN:   l.Book.ISBN,
			Title:  l.Book.Title,
			Author: l.Book.Author,
		},
	}
}
