package feed

import (
	"github.com/samber/lo"

	"whatsgood/internal/core"
)

// Normalize collapses a stored record's legacy field spellings into the
// canonical display shape. It is the single adapter at the storage boundary:
// nothing downstream ever looks at a raw field again. Idempotent, and never
// panics on absent fields.
func Normalize(raw core.RawPost) core.Post {
	author := raw.Author
	if author == nil {
		author = &core.RawAuthor{}
	}

	return core.Post{
		ID:          raw.ID,
		Collection:  lo.CoalesceOrEmpty(raw.Collection, core.CollectionPosts),
		BrandID:     raw.BrandID,
		CommunityID: raw.CommunityID,
		Visibility:  core.Visibility(raw.Visibility),

		Title:     raw.Title,
		Content:   lo.CoalesceOrEmpty(raw.Content, raw.Body),
		ImageURLs: firstNonEmptySlice(raw.ImageURLs, raw.Images),

		AuthorID:   raw.AuthorID,
		AuthorName: lo.CoalesceOrEmpty(raw.AuthorName, author.Name),
		AuthorPhotoURL: lo.CoalesceOrEmpty(
			raw.AuthorPhotoURL,
			author.PhotoURL,
			author.ProfileImage,
			author.Avatar,
			author.AvatarURL,
			author.Image,
		),

		Brand: lo.CoalesceOrEmpty(raw.BrandName, raw.Company, raw.Brand),

		LikeCount:    max(raw.LikeCount, 0),
		CommentCount: max(raw.CommentCount, 0),

		IsBlocked:   raw.IsBlocked,
		NeedsReview: raw.NeedsReview,

		Tags: raw.Tags,

		CreatedAt: raw.CreatedAt,
	}
}

// NormalizeAll maps a snapshot's records and drops everything moderation or
// visibility rules exclude, before any enrichment lookups are spent on them.
func NormalizeAll(raws []core.RawPost) []core.Post {
	posts := lo.Map(raws, func(raw core.RawPost, _ int) core.Post {
		return Normalize(raw)
	})

	return lo.Filter(posts, func(post core.Post, _ int) bool {
		return post.Visible()
	})
}

func firstNonEmptySlice(slices ...[]string) []string {
	for _, s := range slices {
		if len(s) > 0 {
			return s
		}
	}
	return nil
}
