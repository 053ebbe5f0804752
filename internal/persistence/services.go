package persistence

import (
	"github.com/zhulik/pal"

	"whatsgood/internal/core"
	"whatsgood/internal/persistence/comments"
	"whatsgood/internal/persistence/likes"
	"whatsgood/internal/persistence/posts"
	"whatsgood/internal/persistence/profiles"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide[core.DB](&DB{}),
		pal.Provide[core.Migrator](&Migrator{}),
		pal.Provide[core.PostRepository](&posts.Repository{}),
		pal.Provide[core.LikeRepository](&likes.Repository{}),
		pal.Provide[core.CommentRepository](&comments.Repository{}),
		pal.Provide[core.ProfileRepository](&profiles.Repository{}),
	)
}
