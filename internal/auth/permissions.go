// Package auth computes capability sets from member roles. Capabilities are
// typed constants so a misspelled permission is a compile error, not a
// silently-open gate.
package auth

// Role of a viewer, as asserted by the identity provider upstream.
type Role string

const (
	RoleMember       Role = "member"
	RoleStaff        Role = "staff"
	RoleBrandManager Role = "brand_manager"
	RoleAdmin        Role = "admin"
)

// Capability is a single permitted action.
type Capability string

const (
	CapViewFeeds         Capability = "view_feeds"
	CapViewProFeed       Capability = "view_pro_feed"
	CapLikePosts         Capability = "like_posts"
	CapCommentPosts      Capability = "comment_posts"
	CapManageCommunities Capability = "manage_communities"
	CapModerate          Capability = "moderate"
)

type CapabilitySet map[Capability]struct{}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func newSet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

var permissions = map[Role]CapabilitySet{
	RoleMember: newSet(CapViewFeeds, CapLikePosts, CapCommentPosts),
	RoleStaff:  newSet(CapViewFeeds, CapViewProFeed, CapLikePosts, CapCommentPosts),
	RoleBrandManager: newSet(
		CapViewFeeds, CapViewProFeed, CapLikePosts, CapCommentPosts,
		CapManageCommunities,
	),
	RoleAdmin: newSet(
		CapViewFeeds, CapViewProFeed, CapLikePosts, CapCommentPosts,
		CapManageCommunities, CapModerate,
	),
}

// PermissionsFor returns the capability set for a role. Unknown roles get an
// empty set.
func PermissionsFor(role Role) CapabilitySet {
	return permissions[role]
}

// Viewer is the authenticated caller, as attached to the request by the
// identity layer upstream of this service.
type Viewer struct {
	ID       string
	Role     Role
	Verified bool
}

// CanViewProFeed requires verification on top of the role capability. An
// unverified admin is still gated.
func (v Viewer) CanViewProFeed() bool {
	return v.Verified && PermissionsFor(v.Role).Has(CapViewProFeed)
}

func (v Viewer) Can(c Capability) bool {
	return PermissionsFor(v.Role).Has(c)
}
