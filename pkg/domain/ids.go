// Package domain holds identifier and paging types shared across modules.
package domain

import (
	"strconv"
	"strings"

	dErrors "library/pkg/domain-errors"
)

// BookID identifies a catalog entry. The zero value means "not yet assigned".
type BookID int64

// LoanID identifies a loan. The zero value means "not yet assigned".
type LoanID int64

func (id BookID) IsZero() bool   { return id == 0 }
func (id BookID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id LoanID) IsZero() bool   { return id == 0 }
func (id LoanID) String() string { return strconv.FormatInt(int64(id), 10) }

// maxIDLength bounds input before parsing; int64 has at most 19 digits.
const maxIDLength = 19

// ParseBookID parses a positive decimal book id from untrusted input.
func ParseBookID(s string) (BookID, error) {
	v, err := parsePositiveID(s, "book id")
	if err != nil {
		return 0, err
	}
	return BookID(v), nil
}

// ParseLoanID parses a positive decimal loan id from untrusted input.
func ParseLoanID(s string) (LoanID, error) {
	v, err := parsePositiveID(s, "loan id")
	if err != nil {
		return 0, err
	}
	return LoanID(v), nil
}

func parsePositiveID(s, name string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" is required")
	}
	if len(s) > maxIDLength || strings.TrimLeft(s, "0123456789") != "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
	}
	return v, nil
}
