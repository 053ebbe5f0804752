package feed

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"whatsgood/internal/auth"
	"whatsgood/internal/core"
	"whatsgood/pkg/async"
)

// State of a feed instance's live subscription.
type State string

const (
	StateIdle        State = "idle"
	StateSubscribing State = "subscribing"
	StateStreaming   State = "streaming"
	StateRecovering  State = "recovering"
	StateClosed      State = "closed"
)

// bannerMessage is the generic user-visible text for hard subscription
// failures. The feed renders its empty state beneath it.
const bannerMessage = "Something went wrong loading the feed. Please try again."

// likeNotice is the transient notification for a failed like mutation.
const likeNotice = "Couldn't save your like. Please try again."

// Update is one published feed state: the full post list (snapshots replace,
// never patch), the derived filter option space, and any user-visible
// banner or transient notice.
type Update struct {
	ScopeKey string        `json:"scopeKey"`
	Posts    []core.Post   `json:"posts"`
	Options  FilterOptions `json:"options"`
	Banner   string        `json:"banner,omitempty"`
	Notice   string        `json:"notice,omitempty"`
	Rev      int64         `json:"rev"`
}

// Controller manages the live-query lifecycle for one feed instance:
// subscribe on scope change, recover onto the unordered fallback query when
// the ordered one fails, and discard anything delivered after cancellation.
//
// Filter changes are deliberately invisible to it; filtering happens on the
// already-streamed set.
type Controller struct {
	logger   *slog.Logger
	store    core.LiveStore
	enricher *Enricher

	updates chan Update

	mu       sync.Mutex
	state    State
	gen      int
	scope    core.Scope
	scopeSet bool
	job      *async.JobHandle[any]
	current  Update
	closed   bool
}

func NewController(store core.LiveStore, enricher *Enricher, logger *slog.Logger) *Controller {
	return &Controller{
		logger:   logger.With("component", "feed.Controller"),
		store:    store,
		enricher: enricher,
		updates:  make(chan Update, 1),
		state:    StateIdle,
	}
}

// Updates delivers published feed states, latest wins: an undelivered
// snapshot is dropped when a newer one arrives.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the last published update.
func (c *Controller) Current() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetScope re-runs the whole subscribe sequence for a new scope. The prior
// listener is cancelled before the new one is established, so a stale
// subscription can never write into current state. Setting the same scope
// again is a no-op.
func (c *Controller) SetScope(scope core.Scope) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.scopeSet && scope.Key() == c.scope.Key() {
		c.mu.Unlock()
		return
	}

	c.gen++
	gen := c.gen
	c.scope = scope
	c.scopeSet = true
	c.state = StateSubscribing
	prior := c.job
	c.job = nil
	c.mu.Unlock()

	if prior != nil {
		prior.Stop()
		prior.Wait() //nolint:errcheck
	}

	job := async.Job(func(ctx context.Context) (any, error) {
		return nil, c.run(ctx, gen, scope)
	})

	c.mu.Lock()
	if gen == c.gen && !c.closed {
		c.job = job
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// scope changed again or closed while we were starting
	job.Stop()
	job.Wait() //nolint:errcheck
}

// Close cancels the live subscription. Idempotent; no update is observable
// after it returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosed
	c.gen++
	job := c.job
	c.job = nil
	c.mu.Unlock()

	if job != nil {
		job.Stop()
		job.Wait() //nolint:errcheck
	}
}

func (c *Controller) run(ctx context.Context, gen int, scope core.Scope) error {
	primary := core.Query{Scope: scope, Visibility: core.VisibilityPublic, Ordered: true}

	sub, err := c.store.Subscribe(ctx, primary)
	if err != nil {
		c.logger.Error("feed subscription failed", "scope", scope.Key(), "error", err)
		c.setState(gen, StateIdle)
		c.publish(gen, Update{ScopeKey: scope.Key(), Posts: []core.Post{}, Options: DeriveOptions(nil), Banner: bannerMessage})
		return nil
	}
	defer func() { sub.Cancel() }()

	snaps := sub.Snapshots()
	errs := sub.Errors()
	recovering := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			c.setState(gen, StateStreaming)
			c.publish(gen, c.process(ctx, scope, snap))

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}

			if recovering {
				c.logger.Error("fallback feed query failed", "scope", scope.Key(), "error", err)
				c.publish(gen, Update{ScopeKey: scope.Key(), Posts: []core.Post{}, Options: DeriveOptions(nil), Banner: bannerMessage})
				return nil
			}

			// Most commonly a missing composite index for the ordered
			// query. Re-subscribe without the ordering clause and sort
			// client-side instead.
			c.logger.Warn("primary feed query failed, using fallback", "scope", scope.Key(), "error", err)
			fallbackActivations.WithLabelValues(scope.Collection).Inc()
			c.setState(gen, StateRecovering)

			sub.Cancel()

			fallback := primary
			fallback.Ordered = false

			next, err := c.store.Subscribe(ctx, fallback)
			if err != nil {
				c.logger.Error("fallback feed subscription failed", "scope", scope.Key(), "error", err)
				c.publish(gen, Update{ScopeKey: scope.Key(), Posts: []core.Post{}, Options: DeriveOptions(nil), Banner: bannerMessage})
				return nil
			}

			sub = next
			snaps = sub.Snapshots()
			errs = sub.Errors()
			recovering = true
		}
	}
}

// process turns a raw snapshot into a publishable update: normalize, drop
// moderated posts, sort when the store could not, enrich, derive options.
func (c *Controller) process(ctx context.Context, scope core.Scope, snap core.Snapshot) Update {
	posts := NormalizeAll(snap.Posts)

	if !snap.Ordered {
		sortByCreatedAtDesc(posts)
	}

	posts = c.enricher.EnrichAll(ctx, posts)

	path := "primary"
	if !snap.Ordered {
		path = "fallback"
	}
	snapshotsDelivered.WithLabelValues(scope.Collection, path).Inc()

	return Update{
		ScopeKey: scope.Key(),
		Posts:    posts,
		Options:  DeriveOptions(posts),
		Rev:      snap.Rev,
	}
}

func (c *Controller) setState(gen int, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.state = state
}

// publish records and delivers an update unless the owning generation has
// been cancelled. Latest wins on the updates channel.
func (c *Controller) publish(gen int, update Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return
	}

	c.current = update
	c.deliverLocked(update)
}

// deliverLocked sends without blocking, dropping the undelivered previous
// update if the buffer is full. Callers hold c.mu, which serializes senders.
func (c *Controller) deliverLocked(update Update) {
	for {
		select {
		case c.updates <- update:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}

func sortByCreatedAtDesc(posts []core.Post) {
	slices.SortStableFunc(posts, func(a, b core.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// ToggleLike flips the viewer's like on a post: the local count changes
// immediately, the mutation is persisted, and the displayed count is then
// replaced with the authoritative one. On persistence failure the optimistic
// change is reverted and a transient notice published.
func (c *Controller) ToggleLike(ctx context.Context, viewer auth.Viewer, postID string) (int, error) {
	c.mu.Lock()
	gen := c.gen
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return 0, core.ErrSubscriptionClosed
	}

	liked, err := c.store.Liked(ctx, postID, viewer.ID)
	if err != nil {
		return 0, err
	}

	delta := 1
	if liked {
		delta = -1
	}

	optimistic, ok := c.patchPost(gen, postID, "", func(post *core.Post) {
		post.LikeCount = max(post.LikeCount+delta, 0)
	})
	if !ok {
		return 0, core.ErrNotFound
	}

	if err := c.store.SetLike(ctx, postID, viewer.ID, !liked); err != nil {
		c.patchPost(gen, postID, likeNotice, func(post *core.Post) {
			post.LikeCount = max(post.LikeCount-delta, 0)
		})
		return 0, err
	}

	authoritative, err := c.store.LikeCount(ctx, postID)
	if err != nil {
		// reconciles on the next snapshot instead
		c.logger.Debug("like count re-read failed", "post", postID, "error", err)
		return optimistic.LikeCount, nil
	}

	likeReconciliations.Inc()
	c.patchPost(gen, postID, "", func(post *core.Post) {
		post.LikeCount = authoritative
	})

	return authoritative, nil
}

// Refresh re-reads one post's authoritative like and comment counts and
// patches the published state. Detail views call this after a new comment
// instead of poking feed internals.
func (c *Controller) Refresh(ctx context.Context, postID string) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	likes, err := c.store.LikeCount(ctx, postID)
	if err != nil {
		return err
	}
	comments, err := c.store.CommentCount(ctx, postID)
	if err != nil {
		return err
	}

	c.patchPost(gen, postID, "", func(post *core.Post) {
		post.LikeCount = likes
		post.CommentCount = comments
	})
	return nil
}

// patchPost applies mutate to one post of the current update and republishes
// it. Reports the patched post and whether it was found and still current.
func (c *Controller) patchPost(gen int, postID, notice string, mutate func(*core.Post)) (core.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return core.Post{}, false
	}

	idx := slices.IndexFunc(c.current.Posts, func(post core.Post) bool {
		return post.ID == postID
	})
	if idx < 0 {
		return core.Post{}, false
	}

	posts := slices.Clone(c.current.Posts)
	mutate(&posts[idx])

	update := c.current
	update.Posts = posts
	update.Notice = notice

	c.current = update
	c.deliverLocked(update)

	return posts[idx], true
}
