package domain

import "errors"

var (
	// ErrNotFound is reported by a record source when no transcript exists
	// for the requested day. It drives the miss budget and is never returned
	// to callers of the archive use case.
	ErrNotFound = errors.New("transcript not found")

	// ErrFetchFailed covers every transport failure other than not found.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrPersistenceCorrupt means an existing archive file could not be read.
	// It must never be treated as an empty archive.
	ErrPersistenceCorrupt = errors.New("archive corrupt")

	// ErrPersistenceLocked means another process holds the archive file.
	ErrPersistenceLocked = errors.New("archive locked by another process")

	ErrEmptyQuery = errors.New("empty query")

	// ErrIndexInconsistent means the word index references a message that the
	// message store does not hold.
	ErrIndexInconsistent = errors.New("word index references missing message")

	ErrInvalidChannel = errors.New("invalid channel name")
)
