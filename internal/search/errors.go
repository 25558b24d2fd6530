package search

import "errors"

var (
	// ErrBookNotFound means the metadata provider does not know the
	// requested book, so no query can be built.
	ErrBookNotFound = errors.New("book not found")

	// ErrUnknownProvider means the request named a provider code this
	// deployment is not configured for.
	ErrUnknownProvider = errors.New("unknown metadata provider")
)
