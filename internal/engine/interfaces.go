package engine

import (
	"context"

	"quizfeed/internal/core"
)

// ProfileStore persists user profiles. Load is called at most once per
// session, at startup; after that the store is write-only and in-memory
// state is authoritative.
type ProfileStore interface {
	// LoadProfile returns the persisted profile for a user, or
	// core.ErrProfileNotFound.
	LoadProfile(ctx context.Context, userID string) (*core.Profile, error)

	// SaveProfile upserts a user's profile.
	SaveProfile(ctx context.Context, profile *core.Profile) error
}

// ContentRepository persists generated questions and answers fingerprint
// membership queries.
type ContentRepository interface {
	// ExistsFingerprint reports whether a question with this fingerprint is
	// already persisted.
	ExistsFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// Insert persists one surviving candidate.
	Insert(ctx context.Context, item core.CandidateItem) error

	// RecentQuestionTexts returns the texts of the most recently stored
	// questions, newest first.
	RecentQuestionTexts(ctx context.Context, limit int) ([]string, error)
}
