package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"whatsgood/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin checks happen at the gateway.
	CheckOrigin: func(*http.Request) bool { return true },
}

const writeTimeout = 5 * time.Second

// streamCommand is a client message on the feed socket.
type streamCommand struct {
	Action string `json:"action"`

	// scope
	Variant     string `json:"variant,omitempty"`
	BrandID     string `json:"brandId,omitempty"`
	CommunityID string `json:"communityId,omitempty"`

	// filter
	Query       string   `json:"q,omitempty"`
	Brands      []string `json:"brands,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	LegacyBrand string   `json:"legacyBrand,omitempty"`

	// like, refresh
	PostID string `json:"postId,omitempty"`
}

// Stream upgrades the connection and runs one feed controller for its
// lifetime. The initial scope comes from the query string; the client can
// re-scope, filter, like and refresh over the socket. Every published update
// is composed and pushed.
func (b *Backend) Stream(w http.ResponseWriter, r *http.Request) {
	req := viewRequestFromRequest(r, feed.Variant(r.URL.Query().Get("variant")))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := &streamSession{
		backend: b,
		conn:    conn,
		req:     req,
		controller: feed.NewController(
			b.Store,
			b.Enricher,
			b.Logger,
		),
	}
	session.run(r.Context())
}

type streamSession struct {
	backend    *Backend
	conn       *websocket.Conn
	controller *feed.Controller

	mu  sync.Mutex
	req feed.ViewRequest

	// writeMu serializes socket writes: push is called from both the
	// reader loop and the update pump, and the connection allows a
	// single concurrent writer.
	writeMu sync.Mutex
}

func (s *streamSession) run(ctx context.Context) {
	defer s.controller.Close()
	defer s.conn.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.pushUpdates(ctx)

	s.controller.SetScope(feed.ScopeFor(s.request()))

	for {
		var cmd streamCommand
		if err := s.conn.ReadJSON(&cmd); err != nil {
			return
		}
		s.handle(ctx, cmd)
	}
}

func (s *streamSession) pushUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-s.controller.Updates():
			s.push(update)
		}
	}
}

func (s *streamSession) push(update feed.Update) {
	view := feed.Compose(update, s.request())

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
	if err := s.conn.WriteJSON(view); err != nil {
		s.backend.Logger.Debug("feed push failed", "error", err)
	}
}

func (s *streamSession) handle(ctx context.Context, cmd streamCommand) {
	switch cmd.Action {
	case "scope":
		s.mu.Lock()
		s.req.Variant = feed.Variant(cmd.Variant)
		s.req.BrandID = cmd.BrandID
		s.req.CommunityID = cmd.CommunityID
		s.mu.Unlock()

		s.controller.SetScope(feed.ScopeFor(s.request()))

	case "filter":
		// No store round-trip: the already-streamed set is re-filtered and
		// the current state re-pushed.
		s.mu.Lock()
		s.req.Filter = feed.FilterState{
			Query:          cmd.Query,
			SelectedBrands: cmd.Brands,
			SelectedTags:   cmd.Tags,
			LegacyBrand:    cmd.LegacyBrand,
		}
		s.mu.Unlock()

		s.push(s.controller.Current())

	case "like":
		viewer := s.request().Viewer
		if _, err := s.controller.ToggleLike(ctx, viewer, cmd.PostID); err != nil {
			s.backend.Logger.Debug("like over socket failed", "post", cmd.PostID, "error", err)
		}

	case "refresh":
		if err := s.controller.Refresh(ctx, cmd.PostID); err != nil {
			s.backend.Logger.Debug("refresh over socket failed", "post", cmd.PostID, "error", err)
		}
	}
}

func (s *streamSession) request() feed.ViewRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}
