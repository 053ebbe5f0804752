package feed

import (
	"context"

	"github.com/samber/lo"

	"whatsgood/internal/auth"
	"whatsgood/internal/core"
)

// Variant selects which concrete feed a request gets.
type Variant string

const (
	VariantBrand     Variant = "brand"
	VariantWhatsGood Variant = "whatsgood"
	VariantPro       Variant = "pro"
)

// CardVariant selects how posts are rendered client-side.
type CardVariant string

const (
	CardMobile        CardVariant = "mobile"
	CardDesktop       CardVariant = "desktop"
	CardDesktopLinked CardVariant = "desktop_linked"
)

// mobileMaxWidth is the viewport breakpoint below which the mobile card is
// used.
const mobileMaxWidth = 768

// spotlightSize caps the highlight bucket at the top of an unfiltered feed.
const spotlightSize = 4

// proGateMessage is shown instead of content to viewers who don't clear the
// pro gate. It deliberately carries no post data.
const proGateMessage = "The Pro Feed is for verified members of the crew."
const proGateCallToAction = "Get verified to join the conversation."

// Gate replaces feed content for viewers who may not see it.
type Gate struct {
	Message      string `json:"message"`
	CallToAction string `json:"callToAction"`
}

// ViewRequest is everything the composition layer needs to shape a feed for
// one viewer: which variant, who is asking, what filter they applied, and
// how wide their screen is.
type ViewRequest struct {
	Variant Variant
	Viewer  auth.Viewer

	BrandID     string
	CommunityID string

	Filter FilterState

	ViewportWidth int
	LinkedLayout  bool
}

// View is a fully composed feed response.
type View struct {
	Variant Variant     `json:"variant"`
	Card    CardVariant `json:"card"`

	Gate *Gate `json:"gate,omitempty"`

	Banner string `json:"banner,omitempty"`
	Notice string `json:"notice,omitempty"`

	Spotlight []core.Post `json:"spotlight,omitempty"`
	Posts     []core.Post `json:"posts"`

	Options FilterOptions `json:"options"`
	Rev     int64         `json:"rev"`
}

// ScopeFor maps a feed variant to the store scope it subscribes to.
func ScopeFor(req ViewRequest) core.Scope {
	switch req.Variant {
	case VariantPro:
		return core.Scope{Collection: core.CollectionProPosts}
	case VariantWhatsGood:
		return core.Scope{Collection: core.CollectionPosts, CommunityID: core.OpenCommunityID}
	default:
		return core.Scope{
			Collection:  core.CollectionPosts,
			BrandID:     req.BrandID,
			CommunityID: req.CommunityID,
		}
	}
}

// SelectCard picks the card rendering variant from viewport width and the
// alternate-desktop-layout flag. Pure; re-evaluated per request.
func SelectCard(viewportWidth int, linkedLayout bool) CardVariant {
	if viewportWidth > 0 && viewportWidth < mobileMaxWidth {
		return CardMobile
	}
	if linkedLayout {
		return CardDesktopLinked
	}
	return CardDesktop
}

// Compose shapes one published update into a view for one viewer: gate
// checks, client-side filtering, spotlight bucketing with id-dedup.
func Compose(update Update, req ViewRequest) View {
	view := View{
		Variant: req.Variant,
		Card:    SelectCard(req.ViewportWidth, req.LinkedLayout),
		Banner:  update.Banner,
		Notice:  update.Notice,
		Rev:     update.Rev,
		Posts:   []core.Post{},
	}

	if req.Variant == VariantPro && !req.Viewer.CanViewProFeed() {
		view.Gate = &Gate{Message: proGateMessage, CallToAction: proGateCallToAction}
		return view
	}

	view.Options = update.Options
	view.Posts = ApplyFilter(update.Posts, req.Filter)

	// The spotlight only decorates the unfiltered view; a filtered feed is
	// a search result and shows one flat list.
	if req.Filter.Empty() {
		view.Spotlight = spotlight(update.Posts)
		view.Posts = dedupeByID(view.Spotlight, view.Posts)
	}

	return view
}

// spotlight picks the most recent post per brand, up to spotlightSize.
// Posts are assumed already sorted newest first.
func spotlight(posts []core.Post) []core.Post {
	seen := map[string]bool{}
	picked := make([]core.Post, 0, spotlightSize)

	for _, post := range posts {
		if post.Brand == "" || seen[post.Brand] {
			continue
		}
		seen[post.Brand] = true
		picked = append(picked, post)
		if len(picked) == spotlightSize {
			break
		}
	}

	return picked
}

// dedupeByID drops posts from the secondary bucket that already appear in
// the primary one, so nothing renders twice.
func dedupeByID(primary, secondary []core.Post) []core.Post {
	ids := lo.Associate(primary, func(post core.Post) (string, bool) {
		return post.ID, true
	})

	return lo.Reject(secondary, func(post core.Post, _ int) bool {
		return ids[post.ID]
	})
}

// LoadOnce serves the non-streaming read path: one fetch, same pipeline as
// a snapshot, with the same fallback-and-sort behavior when the ordered
// query cannot be served.
func LoadOnce(ctx context.Context, store core.LiveStore, enricher *Enricher, scope core.Scope) (Update, error) {
	query := core.Query{Scope: scope, Visibility: core.VisibilityPublic, Ordered: true}

	raws, err := store.Fetch(ctx, query)
	ordered := true
	if err != nil {
		fallbackActivations.WithLabelValues(scope.Collection).Inc()

		query.Ordered = false
		ordered = false

		raws, err = store.Fetch(ctx, query)
		if err != nil {
			return Update{
				ScopeKey: scope.Key(),
				Posts:    []core.Post{},
				Options:  DeriveOptions(nil),
				Banner:   bannerMessage,
			}, err
		}
	}

	posts := NormalizeAll(raws)
	if !ordered {
		sortByCreatedAtDesc(posts)
	}
	posts = enricher.EnrichAll(ctx, posts)

	path := "primary"
	if !ordered {
		path = "fallback"
	}
	snapshotsDelivered.WithLabelValues(scope.Collection, path).Inc()

	return Update{
		ScopeKey: scope.Key(),
		Posts:    posts,
		Options:  DeriveOptions(posts),
	}, nil
}
