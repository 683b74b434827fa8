package handler

import (
	"strings"

	dErrors "library/pkg/domain-errors"
	"library/pkg/email"
)

// CreateLoanRequest is the body of POST /api/loans.
type CreateLoanRequest struct {
	ISBN     string `json:"isbn"`
	Customer string `json:"customer"`
	Email    string `json:"email"`
}

func (r *CreateLoanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Customer = strings.TrimSpace(r.Customer)
	r.Email = email.Normalize(r.Email)
	switch {
	case r.ISBN == "":
		return dErrors.New(dErrors.CodeValidation, "isbn is required")
	case r.Customer == "":
		return dErrors.New(dErrors.CodeValidation, "customer is required")
	case r.Email != "" && !email.Valid(r.Email):
		return dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	return nil
}

// ReturnLoanRequest is the body of PATCH /api/loans/{id}.
type ReturnLoanRequest struct {
	Returned *bool `json:"returned"`
}

func (r *ReturnLoanRequest) Validate() error {
	if r == nil || r.Returned == nil {
		return dErrors.New(dErrors.CodeValidation, "returned is required")
	}
	return nil
}
