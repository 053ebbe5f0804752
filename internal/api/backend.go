package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"whatsgood/internal/auth"
	"whatsgood/internal/core"
	"whatsgood/internal/feed"
)

// Backend implements the HTTP handlers. Identity is asserted by the gateway
// upstream and passed down in headers; this service trusts them.
type Backend struct {
	Logger   *slog.Logger
	Store    core.LiveStore
	Enricher *feed.Enricher
}

func (b *Backend) Init(ctx context.Context) error {
	b.Logger = b.Logger.With("component", "api.Backend")
	return nil
}

func viewerFromRequest(r *http.Request) auth.Viewer {
	verified, _ := strconv.ParseBool(r.Header.Get("X-Member-Verified"))
	return auth.Viewer{
		ID:       r.Header.Get("X-Member-Id"),
		Role:     auth.Role(r.Header.Get("X-Member-Role")),
		Verified: verified,
	}
}

func viewRequestFromRequest(r *http.Request, variant feed.Variant) feed.ViewRequest {
	q := r.URL.Query()

	viewportWidth, _ := strconv.Atoi(q.Get("viewport"))
	linked, _ := strconv.ParseBool(q.Get("linked"))

	return feed.ViewRequest{
		Variant:     variant,
		Viewer:      viewerFromRequest(r),
		BrandID:     q.Get("brand"),
		CommunityID: q.Get("community"),
		Filter: feed.FilterState{
			Query:          q.Get("q"),
			SelectedBrands: splitParam(q.Get("brands")),
			SelectedTags:   splitParam(q.Get("tags")),
			LegacyBrand:    q.Get("legacyBrand"),
		},
		ViewportWidth: viewportWidth,
		LinkedLayout:  linked,
	}
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// GetFeed serves one composed feed view: the non-streaming read path.
func (b *Backend) GetFeed(w http.ResponseWriter, r *http.Request) {
	req := viewRequestFromRequest(r, feed.Variant(chi.URLParam(r, "variant")))

	update, err := feed.LoadOnce(r.Context(), b.Store, b.Enricher, feed.ScopeFor(req))
	if err != nil {
		b.Logger.Error("feed load failed", "variant", req.Variant, "error", err)
	}

	writeJSON(w, http.StatusOK, feed.Compose(update, req))
}

func (b *Backend) GetPost(w http.ResponseWriter, r *http.Request) {
	raw, err := b.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	post := feed.Normalize(raw)
	if !post.Visible() {
		writeError(w, core.ErrNotFound)
		return
	}

	posts := b.Enricher.EnrichAll(r.Context(), []core.Post{post})
	writeJSON(w, http.StatusOK, posts[0])
}

// ToggleLike flips the caller's like on a post and returns the authoritative
// count.
func (b *Backend) ToggleLike(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFromRequest(r)
	if viewer.ID == "" || !viewer.Can(auth.CapLikePosts) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
		return
	}

	postID := chi.URLParam(r, "id")

	liked, err := b.Store.Liked(r.Context(), postID, viewer.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := b.Store.SetLike(r.Context(), postID, viewer.ID, !liked); err != nil {
		writeError(w, err)
		return
	}

	count, err := b.Store.LikeCount(r.Context(), postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"postId":    postID,
		"liked":     !liked,
		"likeCount": count,
	})
}

// RefreshPost re-reads a post's authoritative counters. Called by detail
// views after posting a comment.
func (b *Backend) RefreshPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	if _, err := b.Store.Get(r.Context(), postID); err != nil {
		writeError(w, err)
		return
	}

	likes, err := b.Store.LikeCount(r.Context(), postID)
	if err != nil {
		writeError(w, err)
		return
	}
	comments, err := b.Store.CommentCount(r.Context(), postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"postId":       postID,
		"likeCount":    likes,
		"commentCount": comments,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
}
