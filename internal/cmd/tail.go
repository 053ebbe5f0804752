package cmd

import (
	"context"
	"encoding/json"
	"log/slog"

	"whatsgood/internal/cmd/flags"
	"whatsgood/internal/core"
	inats "whatsgood/internal/nats"

	"github.com/k0kubun/pp"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var tailCmd = &cli.Command{
	Name:  "tail",
	Usage: "Pretty-print post change events as they arrive, for debugging",
	Flags: []cli.Flag{
		flags.NATSURL,
		flags.InitNATS,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			inats.Provide(),
			pal.Provide(&tailer{}),
		)
	},
}

type tailer struct {
	Logger *slog.Logger
	NATS   *inats.NATS
}

func (t *tailer) Run(ctx context.Context) error {
	t.Logger.Info("tailing change events")

	cons, err := t.NATS.JS.OrderedConsumer(ctx, inats.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{inats.ChangesFilterSubject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return err
	}

	it, err := cons.Messages()
	if err != nil {
		return err
	}
	defer it.Stop()

	go func() {
		<-ctx.Done()
		it.Stop()
	}()

	for {
		msg, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var change core.PostChange
		if err := json.Unmarshal(msg.Data(), &change); err != nil {
			t.Logger.Warn("undecodable change event", "error", err)
			continue
		}

		pp.Println(change)
	}
}
