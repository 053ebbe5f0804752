package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"whatsgood/internal/core"
	"whatsgood/internal/feed"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("imageUrls beats legacy images", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.RawPost{
			ID:        "p1",
			ImageURLs: []string{"http://x/1.png"},
			Images:    []string{"http://x/2.png"},
		})

		require.Equal(t, []string{"http://x/1.png"}, post.ImageURLs)
	})

	t.Run("legacy images used when imageUrls absent", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.RawPost{ID: "p1", Images: []string{"http://x/2.png"}})
		require.Equal(t, []string{"http://x/2.png"}, post.ImageURLs)
	})

	t.Run("author photo fallback chain", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			raw  core.RawPost
			want string
		}{
			{"explicit field wins", core.RawPost{AuthorPhotoURL: "a", Author: &core.RawAuthor{PhotoURL: "b"}}, "a"},
			{"nested photoURL", core.RawPost{Author: &core.RawAuthor{PhotoURL: "b", ProfileImage: "c"}}, "b"},
			{"profileImage", core.RawPost{Author: &core.RawAuthor{ProfileImage: "c", Avatar: "d"}}, "c"},
			{"avatar", core.RawPost{Author: &core.RawAuthor{Avatar: "d", AvatarURL: "e"}}, "d"},
			{"avatarUrl", core.RawPost{Author: &core.RawAuthor{AvatarURL: "e", Image: "f"}}, "e"},
			{"image last", core.RawPost{Author: &core.RawAuthor{Image: "f"}}, "f"},
			{"nothing resolves to empty", core.RawPost{}, ""},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				require.Equal(t, tc.want, feed.Normalize(tc.raw).AuthorPhotoURL)
			})
		}
	})

	t.Run("brand name fallback chain", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "N", feed.Normalize(core.RawPost{BrandName: "N", Company: "C", Brand: "B"}).Brand)
		require.Equal(t, "C", feed.Normalize(core.RawPost{Company: "C", Brand: "B"}).Brand)
		require.Equal(t, "B", feed.Normalize(core.RawPost{Brand: "B"}).Brand)
	})

	t.Run("content falls back to body", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "c", feed.Normalize(core.RawPost{Content: "c", Body: "b"}).Content)
		require.Equal(t, "b", feed.Normalize(core.RawPost{Body: "b"}).Content)
	})

	t.Run("negative counters clamp to zero", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.RawPost{LikeCount: -2, CommentCount: -1})
		require.Equal(t, 0, post.LikeCount)
		require.Equal(t, 0, post.CommentCount)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		raw := core.RawPost{
			ID:          "p1",
			BrandID:     "b1",
			CommunityID: "c1",
			Visibility:  string(core.VisibilityPublic),
			Title:       "t",
			Body:        "body text",
			Images:      []string{"http://x/2.png"},
			AuthorID:    "u1",
			Author:      &core.RawAuthor{Name: "Sam", Avatar: "http://x/a.png"},
			Company:     "Acme",
			LikeCount:   3,
			Tags:        []string{"x", "y"},
			CreatedAt:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		}

		once := feed.Normalize(raw)
		twice := feed.Normalize(once.Raw())

		require.Equal(t, once, twice)
	})
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()

	posts := feed.NormalizeAll([]core.RawPost{
		{ID: "ok", Visibility: string(core.VisibilityPublic)},
		{ID: "blocked", Visibility: string(core.VisibilityPublic), IsBlocked: true},
		{ID: "review", Visibility: string(core.VisibilityPublic), NeedsReview: true},
		{ID: "draft", Visibility: "draft"},
	})

	require.Equal(t, []string{"ok"}, postIDs(posts))
}
