package domain

import "errors"

var (
	// ErrEmptyQuery signals a search call with an empty query string.
	ErrEmptyQuery = errors.New("empty query")
	// ErrEmptyID signals a fetch call with an empty document id.
	ErrEmptyID = errors.New("empty document id")
	// ErrDocumentNotFound signals that the backend has no document for the id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrBackend signals a backend failure: network error, vendor error
	// response, or a malformed vendor payload.
	ErrBackend = errors.New("backend error")
)
