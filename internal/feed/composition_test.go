package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"whatsgood/internal/auth"
	"whatsgood/internal/core"
	"whatsgood/internal/feed"
)

func TestSelectCard(t *testing.T) {
	t.Parallel()

	require.Equal(t, feed.CardMobile, feed.SelectCard(375, false))
	require.Equal(t, feed.CardMobile, feed.SelectCard(375, true))
	require.Equal(t, feed.CardDesktop, feed.SelectCard(1280, false))
	require.Equal(t, feed.CardDesktopLinked, feed.SelectCard(1280, true))
	// unknown viewport defaults to desktop
	require.Equal(t, feed.CardDesktop, feed.SelectCard(0, false))
}

func TestScopeFor(t *testing.T) {
	t.Parallel()

	pro := feed.ScopeFor(feed.ViewRequest{Variant: feed.VariantPro, BrandID: "ignored"})
	require.Equal(t, core.CollectionProPosts, pro.Collection)
	require.Empty(t, pro.BrandID)

	open := feed.ScopeFor(feed.ViewRequest{Variant: feed.VariantWhatsGood})
	require.Equal(t, core.OpenCommunityID, open.CommunityID)

	brand := feed.ScopeFor(feed.ViewRequest{Variant: feed.VariantBrand, BrandID: "b1", CommunityID: "c1"})
	require.Equal(t, core.Scope{Collection: core.CollectionPosts, BrandID: "b1", CommunityID: "c1"}, brand)
}

func TestCompose(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	update := feed.Update{
		ScopeKey: "posts||",
		Posts: []core.Post{
			{ID: "1", Brand: "A", Content: "hello world", Tags: []string{"x"}, CreatedAt: now.Add(3 * time.Hour)},
			{ID: "2", Brand: "B", Content: "goodbye", Tags: []string{"y"}, CreatedAt: now.Add(2 * time.Hour)},
			{ID: "3", Brand: "A", Content: "hello again", Tags: []string{"x", "y"}, CreatedAt: now.Add(time.Hour)},
			{ID: "4", Content: "brandless", CreatedAt: now},
		},
		Options: feed.FilterOptions{Brands: []string{"A", "B"}, Tags: []string{"x", "y"}},
	}

	t.Run("unfiltered view gets a spotlight without duplicates", func(t *testing.T) {
		t.Parallel()

		view := feed.Compose(update, feed.ViewRequest{Variant: feed.VariantWhatsGood, ViewportWidth: 1280})

		require.Equal(t, []string{"1", "2"}, postIDs(view.Spotlight))
		require.Equal(t, []string{"3", "4"}, postIDs(view.Posts))
	})

	t.Run("filtered view is one flat list", func(t *testing.T) {
		t.Parallel()

		view := feed.Compose(update, feed.ViewRequest{
			Variant:       feed.VariantWhatsGood,
			Filter:        feed.FilterState{Query: "hello"},
			ViewportWidth: 1280,
		})

		require.Empty(t, view.Spotlight)
		require.Equal(t, []string{"1", "3"}, postIDs(view.Posts))
	})

	t.Run("options always reflect the data, not the selection", func(t *testing.T) {
		t.Parallel()

		view := feed.Compose(update, feed.ViewRequest{
			Variant: feed.VariantWhatsGood,
			Filter:  feed.FilterState{SelectedBrands: []string{"A"}},
		})

		require.Equal(t, []string{"A", "B"}, view.Options.Brands)
	})

	t.Run("pro feed gates unverified viewers without leaking posts", func(t *testing.T) {
		t.Parallel()

		view := feed.Compose(update, feed.ViewRequest{
			Variant: feed.VariantPro,
			Viewer:  auth.Viewer{ID: "v", Role: auth.RoleStaff, Verified: false},
		})

		require.NotNil(t, view.Gate)
		require.Empty(t, view.Posts)
		require.Empty(t, view.Spotlight)
		require.Empty(t, view.Options.Brands)
	})

	t.Run("pro feed opens for verified staff", func(t *testing.T) {
		t.Parallel()

		view := feed.Compose(update, feed.ViewRequest{
			Variant: feed.VariantPro,
			Viewer:  auth.Viewer{ID: "v", Role: auth.RoleStaff, Verified: true},
		})

		require.Nil(t, view.Gate)
		require.NotEmpty(t, view.Posts)
	})
}

func TestLoadOnce(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("serves the one-shot read path", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(
			publicPost("old", "A", base),
			publicPost("new", "B", base.Add(time.Hour)),
		)

		update, err := feed.LoadOnce(t.Context(), store, testEnricher(store), openScope())
		require.NoError(t, err)
		require.Equal(t, []string{"new", "old"}, postIDs(update.Posts))
	})

	t.Run("falls back to the unordered fetch and sorts", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(
			publicPost("mid", "A", base.Add(time.Hour)),
			publicPost("new", "B", base.Add(2*time.Hour)),
			publicPost("old", "A", base),
		)
		store.failOrderedSubscribe = true

		update, err := feed.LoadOnce(t.Context(), store, testEnricher(store), openScope())
		require.NoError(t, err)
		require.Equal(t, []string{"new", "mid", "old"}, postIDs(update.Posts))
	})

	t.Run("total failure returns a banner update", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.failAll = true

		update, err := feed.LoadOnce(t.Context(), store, testEnricher(store), openScope())
		require.Error(t, err)
		require.NotEmpty(t, update.Banner)
		require.Empty(t, update.Posts)
	})
}
