package domain

import "errors"

var (
	// ErrDocumentNotFound is returned by stores when a document has never
	// been written (or was cleared).
	ErrDocumentNotFound = errors.New("document not found")
	// ErrProfileNotFound is returned when a user has not completed onboarding.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNegativeXP rejects test-completion events carrying a negative award.
	ErrNegativeXP = errors.New("xp award must be non-negative")
	// ErrRemoteUnavailable indicates the authoritative gamification endpoint
	// could not produce a summary; callers fall back to local documents.
	ErrRemoteUnavailable = errors.New("remote summary unavailable")
)
