package follow

import (
	"context"
	"strconv"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/user"

	"github.com/redis/go-redis/v9"
)

const countCacheTTL = time.Minute

// Directory resolves users for edge endpoints. Satisfied by user.Repository.
type Directory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type Service struct {
	repo  Repository
	users Directory
	redis *redis.Client
}

func NewService(repo Repository, users Directory, redisClient *redis.Client) *Service {
	return &Service{repo: repo, users: users, redis: redisClient}
}

// Follow creates the directed edge. Self-follow is rejected; following an
// already-followed user is a silent no-op.
func (s *Service) Follow(ctx context.Context, whoID, targetUsername string) error {
	who, err := s.users.GetByID(ctx, whoID)
	if err != nil {
		return err
	}
	if who.Username == targetUsername {
		return apperr.Validation("cannot follow yourself")
	}
	target, err := s.users.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	if err := s.repo.Create(ctx, who.ID, target.ID); err != nil {
		return err
	}
	s.invalidateCounts(ctx, who.Username, target.Username)
	return nil
}

// Unfollow removes the edge; a missing edge reports false without error.
func (s *Service) Unfollow(ctx context.Context, whoID, targetUsername string) (bool, error) {
	who, err := s.users.GetByID(ctx, whoID)
	if err != nil {
		return false, err
	}
	target, err := s.users.GetByUsername(ctx, targetUsername)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	removed, err := s.repo.DeleteByPair(ctx, who.ID, target.ID)
	if err != nil {
		return false, err
	}
	if removed {
		s.invalidateCounts(ctx, who.Username, target.Username)
	}
	return removed, nil
}

func (s *Service) CountFollowers(ctx context.Context, username string) (int, error) {
	return s.cachedCount(ctx, followersCountKey(username), func() (int, error) {
		return s.repo.CountFollowers(ctx, username)
	})
}

func (s *Service) CountFollowings(ctx context.Context, username string) (int, error) {
	return s.cachedCount(ctx, followingsCountKey(username), func() (int, error) {
		return s.repo.CountFollowings(ctx, username)
	})
}

func (s *Service) ListFollowers(ctx context.Context, username string, page, pageSize int) (Page, error) {
	items, total, err := s.repo.ListFollowers(ctx, username, page, pageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) ListFollowings(ctx context.Context, username string, page, pageSize int) (Page, error) {
	items, total, err := s.repo.ListFollowings(ctx, username, page, pageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) cachedCount(ctx context.Context, key string, load func() (int, error)) (int, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			if n, err := strconv.Atoi(cached); err == nil {
				return n, nil
			}
		}
	}

	n, err := load()
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		_ = s.redis.Set(ctx, key, strconv.Itoa(n), countCacheTTL).Err()
	}
	return n, nil
}

func (s *Service) invalidateCounts(ctx context.Context, whoUsername, whomUsername string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, followingsCountKey(whoUsername), followersCountKey(whomUsername)).Err()
}

func followersCountKey(username string) string { return "follow:count:followers:" + username }

func followingsCountKey(username string) string { return "follow:count:followings:" + username }
