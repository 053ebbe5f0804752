package livestore

import (
	"github.com/zhulik/pal"

	"whatsgood/internal/core"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide[core.LiveStore](&Store{}),
	)
}
