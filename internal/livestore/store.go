package livestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/samber/lo"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"

	"whatsgood/internal/core"
	"whatsgood/internal/nats"
)

// Store serves the feed pipeline's document-store surface from Postgres,
// with NATS JetStream change events driving live re-queries. A subscription
// delivers a full snapshot on every relevant change, never a diff.
type Store struct {
	Logger *slog.Logger
	NATS   *nats.NATS

	Posts     core.PostRepository
	Likes     core.LikeRepository
	Comments  core.CommentRepository
	Profiles  core.ProfileRepository
	Publisher core.ChangePublisher
}

func (s *Store) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "livestore.Store")
	return nil
}

func (s *Store) Fetch(ctx context.Context, q core.Query) ([]core.RawPost, error) {
	return s.Posts.Fetch(ctx, q)
}

func (s *Store) Get(ctx context.Context, id string) (core.RawPost, error) {
	return s.Posts.Get(ctx, id)
}

func (s *Store) Profile(ctx context.Context, memberID string) (core.Profile, error) {
	return s.Profiles.Get(ctx, memberID)
}

func (s *Store) LikeCount(ctx context.Context, postID string) (int, error) {
	return s.Likes.Count(ctx, postID)
}

func (s *Store) CommentCount(ctx context.Context, postID string) (int, error) {
	return s.Comments.Count(ctx, postID)
}

func (s *Store) Liked(ctx context.Context, postID, memberID string) (bool, error) {
	return s.Likes.Exists(ctx, postID, memberID)
}

// SetLike writes the like row, keeps the denormalized counter in step and
// announces the mutation on the change stream. A repeated write in the same
// state changes nothing and publishes nothing.
func (s *Store) SetLike(ctx context.Context, postID, memberID string, liked bool) error {
	raw, err := s.Posts.Get(ctx, postID)
	if err != nil {
		return err
	}

	changed, err := s.Likes.Set(ctx, postID, memberID, liked)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	delta := 1
	op := core.ChangeOpLike
	if !liked {
		delta = -1
		op = core.ChangeOpUnlike
	}

	if err := s.Posts.AdjustLikeCount(ctx, postID, delta); err != nil {
		return err
	}

	err = s.Publisher.PublishChange(ctx, core.PostChange{
		PostID:      postID,
		Collection:  raw.Collection,
		BrandID:     raw.BrandID,
		CommunityID: raw.CommunityID,
		Op:          op,
		TimeUS:      time.Now().UnixMicro(),
	})
	if err != nil {
		// The row is written; subscribers catch up on the next change.
		s.Logger.Warn("like stored but change event not published", "post", postID, "error", err)
	}

	return nil
}

// Subscribe registers a live query: an initial snapshot immediately, then a
// fresh one whenever a change event matching the scope arrives.
func (s *Store) Subscribe(ctx context.Context, q core.Query) (core.Subscription, error) {
	cons, err := s.NATS.JS.OrderedConsumer(ctx, nats.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{nats.ChangesFilterSubject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, err
	}

	raws, err := s.Posts.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	it, err := cons.Messages()
	if err != nil {
		return nil, err
	}

	// The subscription outlives the request that opened it.
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	sub := newSubscription(func() {
		it.Stop()
		cancel()
	})

	lastRev := s.lastRev(subCtx, q.Scope)
	sub.deliver(core.Snapshot{Posts: raws, Ordered: q.Ordered, Rev: lastRev})

	msgs := make(chan pips.D[jetstream.Msg])

	go func() {
		defer close(msgs)

		for {
			msg, err := it.Next()
			if err != nil {
				if subCtx.Err() == nil && !errors.Is(err, jetstream.ErrMsgIteratorClosed) {
					sub.fail(err)
				}
				return
			}

			select {
			case msgs <- pips.NewD(msg):
			case <-subCtx.Done():
				return
			}
		}
	}()

	go func() {
		err := s.pipeline(q, sub).Run(subCtx, msgs).Wait(subCtx)
		if err != nil && subCtx.Err() == nil {
			sub.fail(err)
		}
	}()

	return sub, nil
}

// pipeline turns the raw change-event stream into snapshot deliveries:
// decode, drop events outside the scope or already seen, re-query, deliver.
func (s *Store) pipeline(q core.Query, sub *subscription) *pips.Pipeline[jetstream.Msg, any] {
	lastRev := s.lastRev(context.Background(), q.Scope)

	return pips.New[jetstream.Msg, any]().
		Then(apply.Map(func(_ context.Context, msg jetstream.Msg) (core.PostChange, error) {
			var change core.PostChange
			err := json.Unmarshal(msg.Data(), &change)
			return change, err
		})).
		Then(apply.Filter(func(_ context.Context, change core.PostChange) (bool, error) {
			if !change.Matches(q.Scope) {
				return false, nil
			}
			if change.TimeUS <= lastRev {
				return false, nil
			}
			return true, nil
		})).
		Then(apply.Map(func(ctx context.Context, change core.PostChange) (any, error) {
			raws, err := s.Posts.Fetch(ctx, q)
			if err != nil {
				return nil, err
			}

			sub.deliver(core.Snapshot{Posts: raws, Ordered: q.Ordered, Rev: change.TimeUS})

			lastRev = change.TimeUS
			s.rememberRev(ctx, q.Scope, change.TimeUS)

			s.Logger.Debug("snapshot delivered", "scope", q.Scope.Key(), "rev", change.TimeUS)
			return nil, nil
		}))
}

// lastRev reads the last acknowledged change revision for a scope from the
// KV bucket, 0 when none is recorded.
func (s *Store) lastRev(ctx context.Context, scope core.Scope) int64 {
	entry, err := s.NATS.KV.Get(ctx, revKey(scope))
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			s.Logger.Debug("no stored revision", "scope", scope.Key(), "error", err)
		}
		return 0
	}

	rev, err := strconv.ParseInt(string(entry.Value()), 10, 64)
	if err != nil {
		return 0
	}
	return rev
}

func (s *Store) rememberRev(ctx context.Context, scope core.Scope, rev int64) {
	_, err := s.NATS.KV.Put(ctx, revKey(scope), []byte(strconv.FormatInt(rev, 10)))
	if err != nil {
		s.Logger.Warn("revision not stored", "scope", scope.Key(), "error", err)
	}
}

// revKey builds a valid KV key for a scope. Empty scope segments become
// "all", NATS keys may not contain empty tokens.
func revKey(scope core.Scope) string {
	return "rev." + scope.Collection +
		"." + lo.CoalesceOrEmpty(scope.BrandID, "all") +
		"." + lo.CoalesceOrEmpty(scope.CommunityID, "all")
}
