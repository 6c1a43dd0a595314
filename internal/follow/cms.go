package follow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/cms"
)

type CMSRepository struct {
	client *cms.Client
}

func NewCMSRepository(client *cms.Client) *CMSRepository {
	return &CMSRepository{client: client}
}

type followAttrs struct {
	WhoFollow  followUserRelation `json:"whoFollow"`
	WhomFollow followUserRelation `json:"whomFollow"`
}

type followUserRelation struct {
	Data *followUserEntry `json:"data"`
}

type followUserEntry struct {
	ID         int `json:"id"`
	Attributes struct {
		Username string `json:"username"`
	} `json:"attributes"`
}

func (r *CMSRepository) Create(ctx context.Context, whoID, whomID string) error {
	existing, err := r.findPair(ctx, whoID, whomID)
	if err != nil {
		return err
	}
	if existing != 0 {
		return nil
	}

	who, whom, err := numericPair(whoID, whomID)
	if err != nil {
		return err
	}
	body := cms.Payload[map[string]int]{Data: map[string]int{"whoFollow": who, "whomFollow": whom}}
	if err := r.client.Post(ctx, "/api/follows", body, nil); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

func (r *CMSRepository) DeleteByPair(ctx context.Context, whoID, whomID string) (bool, error) {
	id, err := r.findPair(ctx, whoID, whomID)
	if err != nil {
		return false, err
	}
	if id == 0 {
		return false, nil
	}
	if err := r.client.Delete(ctx, "/api/follows/"+strconv.Itoa(id)); err != nil {
		return false, apperr.Upstream(err)
	}
	return true, nil
}

func (r *CMSRepository) findPair(ctx context.Context, whoID, whomID string) (int, error) {
	params := url.Values{}
	params.Set("filters[whoFollow][id][$eq]", whoID)
	params.Set("filters[whomFollow][id][$eq]", whomID)

	var out cms.List[followAttrs]
	if err := r.client.Get(ctx, "/api/follows", params, &out); err != nil {
		return 0, apperr.Upstream(err)
	}
	if len(out.Data) == 0 {
		return 0, nil
	}
	return out.Data[0].ID, nil
}

func (r *CMSRepository) CountFollowers(ctx context.Context, username string) (int, error) {
	return r.count(ctx, "/api/follows/count/followers", username)
}

func (r *CMSRepository) CountFollowings(ctx context.Context, username string) (int, error) {
	return r.count(ctx, "/api/follows/count/followings", username)
}

func (r *CMSRepository) count(ctx context.Context, path, username string) (int, error) {
	params := url.Values{}
	params.Set("username", username)

	var n int
	if err := r.client.Get(ctx, path, params, &n); err != nil {
		return 0, apperr.Upstream(err)
	}
	return n, nil
}

func (r *CMSRepository) ListFollowers(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error) {
	return r.list(ctx, "filters[whomFollow][username][$eq]", username, page, pageSize, func(attrs followAttrs) *followUserEntry {
		return attrs.WhoFollow.Data
	})
}

func (r *CMSRepository) ListFollowings(ctx context.Context, username string, page, pageSize int) ([]UserRef, int, error) {
	return r.list(ctx, "filters[whoFollow][username][$eq]", username, page, pageSize, func(attrs followAttrs) *followUserEntry {
		return attrs.WhomFollow.Data
	})
}

func (r *CMSRepository) list(ctx context.Context, filter, username string, page, pageSize int, side func(followAttrs) *followUserEntry) ([]UserRef, int, error) {
	params := url.Values{}
	params.Set(filter, username)
	params.Set("populate", "whoFollow,whomFollow")
	params.Set("pagination[page]", strconv.Itoa(page))
	params.Set("pagination[pageSize]", strconv.Itoa(pageSize))

	var out cms.List[followAttrs]
	if err := r.client.Get(ctx, "/api/follows", params, &out); err != nil {
		return nil, 0, apperr.Upstream(err)
	}

	var refs []UserRef
	for _, entry := range out.Data {
		related := side(entry.Attributes)
		if related == nil {
			continue
		}
		refs = append(refs, UserRef{
			ID:       fmt.Sprint(related.ID),
			Username: related.Attributes.Username,
		})
	}
	return refs, out.Meta.Pagination.Total, nil
}

func numericPair(whoID, whomID string) (int, int, error) {
	who, err := strconv.Atoi(whoID)
	if err != nil {
		return 0, 0, apperr.Validation("invalid user id")
	}
	whom, err := strconv.Atoi(whomID)
	if err != nil {
		return 0, 0, apperr.Validation("invalid user id")
	}
	return who, whom, nil
}
