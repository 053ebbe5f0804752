package persona

import (
	"context"
	"net/url"
)

const (
	getMembers = "/v1/members"
)

// Member is a directory entry. Avatar may be empty for members who never
// uploaded a photo.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// GetMembers fetches up to 25 directory entries by id.
func (c *Client) GetMembers(ctx context.Context, ids ...string) ([]*Member, error) {
	type members struct {
		Members []*Member `json:"members"`
	}

	res, err := c.r(ctx).
		SetQueryParamsFromValues(url.Values{
			"ids": ids,
		}).
		SetResult(&members{}).
		Get(getMembers)
	if err != nil {
		return nil, err
	}

	return res.Result().(*members).Members, nil
}
