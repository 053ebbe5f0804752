package feed_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"whatsgood/internal/config"
	"whatsgood/internal/core"
	"whatsgood/internal/feed"
)

func TestEnricher(t *testing.T) {
	t.Parallel()

	t.Run("backfills author photo from the directory", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.profiles["u1"] = core.Profile{ID: "u1", PhotoURL: "http://x/u1.png"}

		posts := testEnricher(store).EnrichAll(t.Context(), []core.Post{
			{ID: "p1", AuthorID: "u1"},
		})

		require.Equal(t, "http://x/u1.png", posts[0].AuthorPhotoURL)
	})

	t.Run("no lookup when the post already has a photo", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.profileErr = errors.New("directory down")

		posts := testEnricher(store).EnrichAll(t.Context(), []core.Post{
			{ID: "p1", AuthorID: "u1", AuthorPhotoURL: "http://x/own.png", CommentCount: 1},
		})

		require.Equal(t, "http://x/own.png", posts[0].AuthorPhotoURL)
	})

	t.Run("lookup failure leaves the post unchanged", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.profileErr = errors.New("directory down")

		in := core.Post{ID: "p1", AuthorID: "u1", Content: "hello", CommentCount: 2}
		posts := testEnricher(store).EnrichAll(t.Context(), []core.Post{in})

		require.Equal(t, in, posts[0])
	})

	t.Run("comment count backfilled only when missing", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.comments["legacy"] = 4
		store.comments["fresh"] = 9

		posts := testEnricher(store).EnrichAll(t.Context(), []core.Post{
			{ID: "legacy", CommentCount: 0},
			{ID: "fresh", CommentCount: 2},
		})

		require.Equal(t, 4, posts[0].CommentCount)
		require.Equal(t, 2, posts[1].CommentCount)
	})

	t.Run("remote directory lookups resolve the photo and are measured", func(t *testing.T) {
		t.Parallel()

		directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"members":[{"id":"u1","avatar":"http://x/remote.png"}]}`)
		}))
		t.Cleanup(directory.Close)

		store := newFakeStore()
		store.profileErr = errors.New("directory down")

		enricher := &feed.Enricher{
			Logger: testLogger(),
			Config: &config.Config{PeopleAPIURL: directory.URL},
			Store:  store,
		}
		require.NoError(t, enricher.Init(t.Context()))
		t.Cleanup(func() { _ = enricher.Shutdown(context.Background()) })

		posts := enricher.EnrichAll(t.Context(), []core.Post{
			{ID: "p1", AuthorID: "u1", CommentCount: 1},
		})
		require.Equal(t, "http://x/remote.png", posts[0].AuthorPhotoURL)

		count, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
			"whatsgood_people_api_request_duration_seconds")
		require.NoError(t, err)
		require.NotZero(t, count)
	})

	t.Run("whole batch settles", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		for i := 0; i < 30; i++ {
			store.profiles["u"] = core.Profile{ID: "u", PhotoURL: "http://x/u.png"}
		}

		in := make([]core.Post, 30)
		for i := range in {
			in[i] = core.Post{ID: string(rune('a' + i)), AuthorID: "u"}
		}

		posts := testEnricher(store).EnrichAll(t.Context(), in)

		require.Len(t, posts, 30)
		for _, post := range posts {
			require.Equal(t, "http://x/u.png", post.AuthorPhotoURL)
		}
	})
}
