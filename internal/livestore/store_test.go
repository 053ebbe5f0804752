package livestore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/zhulik/pips"

	"whatsgood/internal/core"
	"whatsgood/internal/nats"
)

type fakeMsg struct {
	jetstream.Msg

	data []byte
}

func (m fakeMsg) Data() []byte { return m.data }

type fakeEntry struct {
	jetstream.KeyValueEntry

	value []byte
}

func (e fakeEntry) Value() []byte { return e.value }

type fakeKV struct {
	jetstream.KeyValue

	mu   sync.Mutex
	vals map[string][]byte
}

func (k *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	val, ok := k.vals[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{value: val}, nil
}

func (k *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.vals == nil {
		k.vals = map[string][]byte{}
	}
	k.vals[key] = value
	return uint64(len(k.vals)), nil
}

func (k *fakeKV) get(key string) []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vals[key]
}

type fakePosts struct {
	mu    sync.Mutex
	posts []core.RawPost
}

func (p *fakePosts) Fetch(context.Context, core.Query) ([]core.RawPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.RawPost(nil), p.posts...), nil
}

func (p *fakePosts) Get(_ context.Context, id string) (core.RawPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, post := range p.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return core.RawPost{}, core.ErrNotFound
}

func (p *fakePosts) AdjustLikeCount(context.Context, string, int) error { return nil }
func (p *fakePosts) SetCommentCount(context.Context, string, int) error { return nil }

func testStore(kv *fakeKV, posts ...core.RawPost) *Store {
	return &Store{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		NATS:   &nats.NATS{KV: kv},
		Posts:  &fakePosts{posts: posts},
	}
}

func changeMsg(t *testing.T, change core.PostChange) pips.D[jetstream.Msg] {
	t.Helper()

	payload, err := json.Marshal(change)
	require.NoError(t, err)

	var msg jetstream.Msg = fakeMsg{data: payload}
	return pips.NewD(msg)
}

func awaitSnapshot(t *testing.T, sub *subscription) core.Snapshot {
	t.Helper()

	select {
	case snap := <-sub.Snapshots():
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return core.Snapshot{}
	}
}

func requireNoSnapshot(t *testing.T, sub *subscription) {
	t.Helper()

	select {
	case snap := <-sub.Snapshots():
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStorePipeline(t *testing.T) {
	t.Parallel()

	query := core.Query{
		Scope:   core.Scope{Collection: core.CollectionPosts, BrandID: "b1"},
		Ordered: true,
	}

	runPipeline := func(t *testing.T, store *Store, sub *subscription) (chan<- pips.D[jetstream.Msg], <-chan error) {
		t.Helper()

		msgs := make(chan pips.D[jetstream.Msg])
		done := make(chan error, 1)

		go func() {
			done <- store.pipeline(query, sub).Run(t.Context(), msgs).Wait(t.Context())
		}()

		return msgs, done
	}

	t.Run("matching change re-queries and delivers a snapshot", func(t *testing.T) {
		t.Parallel()

		kv := &fakeKV{}
		store := testStore(kv, core.RawPost{ID: "p1", BrandID: "b1"})
		sub := newSubscription(func() {})

		msgs, done := runPipeline(t, store, sub)

		msgs <- changeMsg(t, core.PostChange{
			PostID:     "p1",
			Collection: core.CollectionPosts,
			BrandID:    "b1",
			Op:         core.ChangeOpLike,
			TimeUS:     10,
		})

		snap := awaitSnapshot(t, sub)
		require.Equal(t, int64(10), snap.Rev)
		require.True(t, snap.Ordered)
		require.Len(t, snap.Posts, 1)
		require.Equal(t, "p1", snap.Posts[0].ID)

		close(msgs)
		require.NoError(t, <-done)

		require.Equal(t, []byte("10"), kv.get("rev.posts.b1.all"))
	})

	t.Run("change outside the scope is dropped", func(t *testing.T) {
		t.Parallel()

		store := testStore(&fakeKV{}, core.RawPost{ID: "p1", BrandID: "b1"})
		sub := newSubscription(func() {})

		msgs, done := runPipeline(t, store, sub)

		msgs <- changeMsg(t, core.PostChange{
			PostID:     "p2",
			Collection: core.CollectionPosts,
			BrandID:    "other",
			Op:         core.ChangeOpCreate,
			TimeUS:     10,
		})

		requireNoSnapshot(t, sub)

		close(msgs)
		require.NoError(t, <-done)
	})

	t.Run("change at or below the stored revision is dropped", func(t *testing.T) {
		t.Parallel()

		kv := &fakeKV{vals: map[string][]byte{"rev.posts.b1.all": []byte("10")}}
		store := testStore(kv, core.RawPost{ID: "p1", BrandID: "b1"})
		sub := newSubscription(func() {})

		msgs, done := runPipeline(t, store, sub)

		msgs <- changeMsg(t, core.PostChange{
			PostID:     "p1",
			Collection: core.CollectionPosts,
			BrandID:    "b1",
			Op:         core.ChangeOpComment,
			TimeUS:     10,
		})
		requireNoSnapshot(t, sub)

		msgs <- changeMsg(t, core.PostChange{
			PostID:     "p1",
			Collection: core.CollectionPosts,
			BrandID:    "b1",
			Op:         core.ChangeOpComment,
			TimeUS:     20,
		})
		require.Equal(t, int64(20), awaitSnapshot(t, sub).Rev)

		close(msgs)
		require.NoError(t, <-done)
	})
}
