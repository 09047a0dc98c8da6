package repository

import (
	"context"

	"turn-notify/internal/domain/entity"
)

// ProfileFilter selects profiles. Unset fields do not restrict the result;
// an empty filter matches every profile.
type ProfileFilter struct {
	ID     *int64
	UserID string
}

// ByID returns a filter selecting profiles bound to webhook id.
func ByID(id int64) ProfileFilter {
	return ProfileFilter{ID: &id}
}

// ByUser returns a filter selecting profiles owned by userID.
func ByUser(userID string) ProfileFilter {
	return ProfileFilter{UserID: userID}
}

// UpsertResult reports how many rows an upsert created and how many existing
// rows it overwrote.
type UpsertResult struct {
	Inserted int
	Matched  int
}

// RemoveResult reports how many rows matched a remove filter and how many
// were deleted.
type RemoveResult struct {
	Matched int
	Removed int
}

type ProfileRepository interface {
	Get(ctx context.Context, filter ProfileFilter) ([]*entity.Profile, error)
	Upsert(ctx context.Context, profiles []*entity.Profile) (UpsertResult, error)
	Remove(ctx context.Context, filter ProfileFilter) (RemoveResult, error)
}
