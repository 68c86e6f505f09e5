package decensor

import "fmt"

const (
	// CurrentSchemeMinID is the first post ID served from the current
	// site's /data/ path scheme. Older posts live on the legacy mirrors.
	CurrentSchemeMinID = 2_800_000

	// SecondLegacyHostMinID splits the legacy ID range across the two
	// legacy file hosts.
	SecondLegacyHostMinID = 850_000

	// NarrowImageWidth is the width below which no downscaled sample
	// exists; the sample URL collapses to the full file URL.
	NarrowImageWidth = 850

	// LegacyHost1 serves legacy posts up to SecondLegacyHostMinID
	LegacyHost1 = "https://raikou1.donmai.us"

	// LegacyHost2 serves legacy posts above SecondLegacyHostMinID
	LegacyHost2 = "https://raikou2.donmai.us"

	// PreviewHost serves every thumbnail regardless of post age
	PreviewHost = "https://raikou4.donmai.us"
)

// SampleExt returns the extension of a post's sample file. Animated zip
// posts get a webm sample; everything else keeps its own extension.
func SampleExt(ext string) string {
	if ext == "zip" {
		return "webm"
	}
	return ext
}

// md5Prefix returns the two-level directory prefix the legacy hosts shard
// files by: the first two and next two hex characters of the MD5.
func md5Prefix(md5 string) (string, string) {
	return md5[0:2], md5[2:4]
}

// legacyHost picks the legacy file host for a post ID
func legacyHost(id int) string {
	if id > SecondLegacyHostMinID {
		return LegacyHost2
	}
	return LegacyHost1
}

// FileURL constructs the full-file download URL for a post
func FileURL(siteBaseURL string, id int, md5, ext string) string {
	if id > CurrentSchemeMinID {
		return fmt.Sprintf("%s/data/%s.%s", siteBaseURL, md5, ext)
	}

	p1, p2 := md5Prefix(md5)
	return fmt.Sprintf("%s/%s/%s/%s.%s", legacyHost(id), p1, p2, md5, ext)
}

// SampleURL constructs the downscaled-sample URL for a post
func SampleURL(siteBaseURL string, id int, md5, ext string) string {
	sext := SampleExt(ext)

	if id > CurrentSchemeMinID {
		return fmt.Sprintf("%s/data/sample/sample-%s.%s", siteBaseURL, md5, sext)
	}

	p1, p2 := md5Prefix(md5)
	return fmt.Sprintf("%s/sample/%s/%s/sample-%s.%s", legacyHost(id), p1, p2, md5, sext)
}

// PreviewURL constructs the thumbnail URL for a post. Thumbnails are
// always jpg whatever the real extension.
func PreviewURL(md5 string) string {
	p1, p2 := md5Prefix(md5)
	return fmt.Sprintf("%s/preview/%s/%s/%s.jpg", PreviewHost, p1, p2, md5)
}
