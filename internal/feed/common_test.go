package feed_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"whatsgood/internal/core"
	"whatsgood/internal/feed"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEnricher(store core.LiveStore) *feed.Enricher {
	return &feed.Enricher{Logger: testLogger(), Store: store}
}

type fakeSub struct {
	snaps chan core.Snapshot
	errs  chan error

	mu        sync.Mutex
	cancelled int
}

func newFakeSub() *fakeSub {
	return &fakeSub{
		snaps: make(chan core.Snapshot, 8),
		errs:  make(chan error, 8),
	}
}

func (s *fakeSub) Snapshots() <-chan core.Snapshot { return s.snaps }
func (s *fakeSub) Errors() <-chan error            { return s.errs }

func (s *fakeSub) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled++
}

func (s *fakeSub) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// fakeStore implements core.LiveStore in memory.
type fakeStore struct {
	mu sync.Mutex

	posts    []core.RawPost
	likes    map[string]map[string]bool
	comments map[string]int
	profiles map[string]core.Profile

	subs []*fakeSub

	// failOrderedSubscribe makes ordered Subscribe/Fetch calls fail
	// immediately; failOrderedAsync delivers the error through the
	// subscription's error channel instead, like a rejected listener.
	failOrderedSubscribe bool
	failOrderedAsync     bool
	failAll              bool

	likeErr    error
	profileErr error
}

func newFakeStore(posts ...core.RawPost) *fakeStore {
	return &fakeStore{
		posts:    posts,
		likes:    map[string]map[string]bool{},
		comments: map[string]int{},
		profiles: map[string]core.Profile{},
	}
}

func (s *fakeStore) scoped(q core.Query) []core.RawPost {
	matched := lo.Filter(s.posts, func(p core.RawPost, _ int) bool {
		if q.Scope.Collection != "" && lo.CoalesceOrEmpty(p.Collection, core.CollectionPosts) != q.Scope.Collection {
			return false
		}
		if q.Scope.BrandID != "" && p.BrandID != q.Scope.BrandID {
			return false
		}
		if q.Scope.CommunityID != "" && p.CommunityID != q.Scope.CommunityID {
			return false
		}
		if q.Visibility != "" && p.Visibility != string(q.Visibility) {
			return false
		}
		return true
	})

	if q.Ordered {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	return matched
}

func (s *fakeStore) Fetch(_ context.Context, q core.Query) ([]core.RawPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll || (q.Ordered && s.failOrderedSubscribe) {
		return nil, core.ErrNotFound
	}
	return s.scoped(q), nil
}

func (s *fakeStore) Subscribe(_ context.Context, q core.Query) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll || (q.Ordered && s.failOrderedSubscribe) {
		return nil, core.ErrNotFound
	}

	sub := newFakeSub()
	s.subs = append(s.subs, sub)

	if q.Ordered && s.failOrderedAsync {
		sub.errs <- core.ErrNotFound
		return sub, nil
	}

	sub.snaps <- core.Snapshot{Posts: s.scoped(q), Ordered: q.Ordered}
	return sub, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (core.RawPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return core.RawPost{}, core.ErrNotFound
}

func (s *fakeStore) Profile(_ context.Context, memberID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profileErr != nil {
		return core.Profile{}, s.profileErr
	}
	profile, ok := s.profiles[memberID]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return profile, nil
}

func (s *fakeStore) LikeCount(_ context.Context, postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, liked := range s.likes[postID] {
		if liked {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) CommentCount(_ context.Context, postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments[postID], nil
}

func (s *fakeStore) Liked(_ context.Context, postID, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[postID][memberID], nil
}

func (s *fakeStore) SetLike(_ context.Context, postID, memberID string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.likeErr != nil {
		return s.likeErr
	}
	if s.likes[postID] == nil {
		s.likes[postID] = map[string]bool{}
	}
	s.likes[postID][memberID] = liked
	return nil
}

func (s *fakeStore) lastSub(t *testing.T) *fakeSub {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	require.NotEmpty(t, s.subs)
	return s.subs[len(s.subs)-1]
}

func awaitUpdate(t *testing.T, c *feed.Controller) feed.Update {
	t.Helper()

	select {
	case update := <-c.Updates():
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a feed update")
		return feed.Update{}
	}
}

func requireNoUpdate(t *testing.T, c *feed.Controller) {
	t.Helper()

	select {
	case update := <-c.Updates():
		t.Fatalf("unexpected feed update: %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}

func postIDs(posts []core.Post) []string {
	return lo.Map(posts, func(p core.Post, _ int) string {
		return p.ID
	})
}
