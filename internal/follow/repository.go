package follow

import "context"

// Repository persists directed follow edges. At most one edge exists per
// ordered (who, whom) pair; Create of an existing pair is a silent no-op
// and DeleteByPair reports whether an edge was actually removed.
type Repository interface {
	Create(ctx context.Context, whoID, whomID string) error
	DeleteByPair(ctx context.Context, whoID, whomID string) (bool, error)
	CountFollowers(ctx context.Context, username string) (int, error)
	CountFollowings(ctx context.Context, username string) (int, error)
	ListFollowers(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error)
	ListFollowings(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error)
}
