package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	libnats "github.com/nats-io/nats.go"

	"whatsgood/internal/core"
)

// Publisher pushes post change events onto the JetStream change stream.
// Message IDs deduplicate replays of the same mutation.
type Publisher struct {
	Logger *slog.Logger
	NATS   *NATS
}

func (p *Publisher) Init(_ context.Context) error {
	p.Logger = p.Logger.With("component", "nats.Publisher")
	return nil
}

func (p *Publisher) PublishChange(ctx context.Context, change core.PostChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	msg := &libnats.Msg{
		Subject: ChangesSubjectPrefix + change.Collection,
		Data:    payload,
		Header: libnats.Header{
			libnats.MsgIdHdr: []string{messageID(change)},
		},
	}

	_, err = p.NATS.JS.PublishMsg(ctx, msg)
	if err != nil {
		return err
	}

	p.Logger.Debug("published change", "post", change.PostID, "op", change.Op)
	return nil
}

func messageID(change core.PostChange) string {
	return fmt.Sprintf("%s-%s-%d", change.PostID, change.Op, change.TimeUS)
}
