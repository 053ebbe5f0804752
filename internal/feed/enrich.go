package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"resty.dev/v3"

	"whatsgood/internal/config"
	"whatsgood/internal/core"
	"whatsgood/pkg/async"
	"whatsgood/pkg/persona"
)

const (
	// enrichConcurrency caps the secondary-lookup fan-out so one large
	// snapshot cannot stampede the store.
	enrichConcurrency = 8

	// lookupTimeout bounds each individual lookup; one stalled fetch must
	// not delay the whole batch becoming ready.
	lookupTimeout = 2 * time.Second
)

// Enricher resolves derived post fields that need secondary lookups: author
// photos missing from the record, and comment counts for records written
// before the denormalized counter existed.
//
// Counter sources of truth: likeCount is always the denormalized column,
// reconciled after mutations. commentCount is the denormalized column when
// present, with a live count query backfilling legacy records that have none.
type Enricher struct {
	Logger *slog.Logger
	Config *config.Config
	Store  core.LiveStore

	// Directory is the remote people directory, tried when the local
	// profile has no photo either. Optional.
	Directory *persona.Client
}

func (e *Enricher) Init(context.Context) error {
	e.Logger = e.Logger.With("component", "feed.Enricher")

	if e.Directory == nil && e.Config != nil && e.Config.PeopleAPIURL != "" {
		e.Directory = persona.NewClient(e.Config.PeopleAPIURL, &persona.ClientConfig{
			TransportSettings: persona.DefaultConfig.TransportSettings,

			ResponseMiddlewares: []resty.ResponseMiddleware{directoryMetricMiddleware},
		})
	}

	return nil
}

func directoryMetricMiddleware(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	peopleAPILatency.WithLabelValues(
		response.Request.Method,
		reqURL.Path,
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}

func (e *Enricher) Shutdown(context.Context) error {
	if e.Directory == nil {
		return nil
	}
	return e.Directory.Close()
}

// EnrichAll runs the per-post lookups concurrently and returns once every
// item has settled. A failed lookup leaves that post unchanged and never
// fails the batch.
func (e *Enricher) EnrichAll(ctx context.Context, posts []core.Post) []core.Post {
	enriched := make([]core.Post, len(posts))

	async.ForEach(ctx, enrichConcurrency, posts, func(ctx context.Context, i int, post core.Post) {
		enriched[i] = e.enrich(ctx, post)
	})

	return enriched
}

func (e *Enricher) enrich(ctx context.Context, post core.Post) core.Post {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	if post.AuthorPhotoURL == "" && post.AuthorID != "" {
		post.AuthorPhotoURL = e.resolvePhoto(ctx, post.AuthorID)
	}

	if post.CommentCount == 0 {
		if count, err := e.Store.CommentCount(ctx, post.ID); err != nil {
			enrichmentFailures.WithLabelValues("comment_count").Inc()
			e.Logger.Debug("comment count lookup failed", "post", post.ID, "error", err)
		} else {
			post.CommentCount = count
		}
	}

	return post
}

// resolvePhoto tries the local directory first and the remote people API
// second. At most one lookup per source; failures fall through to the
// default avatar (empty string).
func (e *Enricher) resolvePhoto(ctx context.Context, authorID string) string {
	profile, err := e.Store.Profile(ctx, authorID)
	if err == nil && profile.PhotoURL != "" {
		return profile.PhotoURL
	}
	if err != nil {
		enrichmentFailures.WithLabelValues("profile").Inc()
		e.Logger.Debug("profile lookup failed", "author", authorID, "error", err)
	}

	if e.Directory == nil {
		return ""
	}

	members, err := e.Directory.GetMembers(ctx, authorID)
	if err != nil || len(members) == 0 {
		enrichmentFailures.WithLabelValues("directory").Inc()
		e.Logger.Debug("directory lookup failed", "author", authorID, "error", err)
		return ""
	}

	return members[0].Avatar
}
