package models

import (
	"strings"
	"time"

	catalog "library/internal/catalog/models"
	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
	"library/pkg/email"
)

// LoanStatus is the lifecycle state of a loan. A loan starts outstanding and
// can only move to returned.
type LoanStatus string

const (
	StatusOutstanding LoanStatus = "outstanding"
	StatusReturned    LoanStatus = "returned"
)

// StatusFromReturned maps the wire boolean onto a status.
func StatusFromReturned(returned bool) LoanStatus {
	if returned {
		return StatusReturned
	}
	return StatusOutstanding
}

// Loan records one book lent to one customer.
//
// Invariants:
//   - Book.ID is set and never changes
//   - at most one outstanding loan exists per book (enforced by the store)
//   - LoanDate is a UTC calendar date with no time component
type Loan struct {
	ID            id.LoanID
	Book          catalog.Book
	Customer      string
	CustomerEmail string
	LoanDate      time.Time
	Status        LoanStatus
}

// NewLoan builds an outstanding loan of book dated loanDate.
func NewLoan(book catalog.Book, customer, customerEmail string, loanDate time.Time) (*Loan, error) {
	l := &Loan{
		Book:          book,
		Customer:      strings.TrimSpace(customer),
		CustomerEmail: email.Normalize(customerEmail),
		LoanDate:      DateOf(loanDate),
		Status:        StatusOutstanding,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loan) Validate() error {
	switch {
	case l.Book.ID.IsZero():
		return dErrors.New(dErrors.CodeValidation, "book is required")
	case l.Customer == "":
		return dErrors.New(dErrors.CodeValidation, "customer is required")
	case l.CustomerEmail != "" && !email.Valid(l.CustomerEmail):
		return dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	return nil
}

// Outstanding reports whether the book has not been returned yet.
func (l *Loan) Outstanding() bool {
	return l.Status != StatusReturned
}

// Returned reports whether the loan has been closed.
func (l *Loan) Returned() bool {
	return l.Status == StatusReturned
}

// MarkReturned closes the loan.
func (l *Loan) MarkReturned() {
	l.Status = StatusReturned
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OverdueCutoff is the latest loan date still considered overdue on today
// when loans are due after days.
func OverdueCutoff(today time.Time, days int) time.Time {
	return DateOf(today).AddDate(0, 0, -days)
}

// LoanFilter selects loans whose book isbn equals ISBN or whose customer
// equals Customer. An empty field never matches.
type LoanFilter struct {
	ISBN     string
	Customer string
}

// IsEmpty reports whether no loan can match the filter.
func (f LoanFilter) IsEmpty() bool {
	return f.ISBN == "" && f.Customer == ""
}

// Matches reports whether l satisfies either criterion.
func (f LoanFilter) Matches(l Loan) bool {
	return (f.ISBN != "" && l.Book.ISBN == f.ISBN) ||
		(f.Customer != "" && l.Customer == f.Customer)
}
