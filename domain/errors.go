package domain

import "errors"

var (
	// ErrMalformedUpdate marks an incremental update that failed structural
	// validation. Such records are rejected per-record and never mutate the
	// book.
	ErrMalformedUpdate = errors.New("depth update failed validation")

	// ErrMalformedSnapshot marks a snapshot that failed structural
	// validation. The book keeps its previous state.
	ErrMalformedSnapshot = errors.New("depth snapshot failed validation")
)
