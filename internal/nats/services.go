package nats

import (
	"github.com/zhulik/pal"

	"whatsgood/internal/core"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide(&NATS{}),
		pal.Provide[core.ChangePublisher](&Publisher{}),
	)
}
