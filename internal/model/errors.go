package model

import "errors"

var (
	// Session related errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoToken          = errors.New("no token received from the server")

	// Catalog related errors
	ErrOfferNotFound    = errors.New("offer not found")
	ErrOfferUnavailable = errors.New("offer unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
