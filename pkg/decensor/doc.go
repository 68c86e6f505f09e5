// Package decensor fills in the media fields Danbooru withholds from
// censored posts.
//
// A censored post comes back from the API without its md5, file extension
// or any download URLs. Given such a post, the package looks the ID up in
// the locally mirrored community dataset and, on a hit, returns a copy of
// the post with file_ext, md5, file_url, large_file_url and
// preview_file_url filled in. Posts that already carry an md5, and posts
// the dataset does not know, pass through unchanged.
//
// Resolution is best-effort by design: Resolve never returns an error,
// and ResolveAll never lets one bad post abort the rest.
package decensor
