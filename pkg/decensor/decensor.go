package decensor

import (
	"context"

	"decensor/pkg/errors"
	"decensor/pkg/logger"
	"decensor/pkg/mirror"
)

// Finder resolves a post ID to its identity. *mirror.Mirror implements it.
type Finder interface {
	Find(ctx context.Context, postID int) (mirror.Identity, error)
}

// Decensorer fills in missing media fields on censored posts
type Decensorer struct {
	finder      Finder
	siteBaseURL string
	logger      logger.Logger
}

// New creates a Decensorer. siteBaseURL is the current image server's
// base URL, e.g. "https://danbooru.donmai.us".
func New(finder Finder, siteBaseURL string, log logger.Logger) *Decensorer {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Decensorer{
		finder:      finder,
		siteBaseURL: siteBaseURL,
		logger:      log,
	}
}

// Resolve decensors a single post if needed. Posts already carrying an
// md5 are not censored and pass through as-is. A lookup miss, a sync
// failure or a malformed post also return the input unchanged; resolution
// is best-effort and never returns an error. On a hit the returned copy
// gains file_ext, md5, file_url, large_file_url and preview_file_url.
func (d *Decensorer) Resolve(ctx context.Context, post Post) Post {
	if post.Has("md5") {
		return post
	}

	id, ok := post.Int("id")
	if !ok {
		d.logger.Warn("post has no usable id field, returning unchanged")
		return post
	}

	identity, err := d.finder.Find(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			d.logger.DebugWithFields("post not in dataset", map[string]interface{}{
				"post_id": id,
			})
		} else {
			d.logger.WarnWithFields("lookup failed, returning post unchanged", map[string]interface{}{
				"post_id": id,
				"error":   err.Error(),
			})
		}
		return post
	}

	// The legacy URL schemes shard by md5 prefix; an identity too short
	// for that is corrupt data.
	if len(identity.MD5) < 4 {
		d.logger.WarnWithFields("resolved md5 too short, returning post unchanged", map[string]interface{}{
			"post_id": id,
			"md5":     identity.MD5,
		})
		return post
	}

	fileURL := FileURL(d.siteBaseURL, id, identity.MD5, identity.Ext)
	sampleURL := SampleURL(d.siteBaseURL, id, identity.MD5, identity.Ext)

	// No downscaled sample exists for narrow images
	if width, ok := post.Int("image_width"); ok && width < NarrowImageWidth {
		sampleURL = fileURL
	}

	out := post.clone()
	out["file_ext"] = identity.Ext
	out["md5"] = identity.MD5
	out["file_url"] = fileURL
	out["large_file_url"] = sampleURL
	out["preview_file_url"] = PreviewURL(identity.MD5)

	return out
}

// ResolveAll decensors a slice of posts, best-effort per post. One
// unresolvable post never aborts the rest.
func (d *Decensorer) ResolveAll(ctx context.Context, posts []Post) []Post {
	out := make([]Post, len(posts))
	for i, post := range posts {
		out[i] = d.Resolve(ctx, post)
	}
	return out
}
