package videolink

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeIDRe   = regexp.MustCompile(`^[\w-]{11}$`)
	vimeoPathRe   = regexp.MustCompile(`^/(?:channels/[^/]+/|groups/[^/]+/videos/|video/)?(\d+)$`)
	vimeoHostRe   = regexp.MustCompile(`^(?:www\.|player\.)?vimeo\.com$`)
	youtubeHostRe = regexp.MustCompile(`^(?:www\.|m\.)?(?:youtube\.com|youtube-nocookie\.com)$`)
)

// IsYouTube reports whether link points at a single YouTube video page.
func IsYouTube(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" {
		return youtubeIDRe.MatchString(strings.TrimPrefix(u.Path, "/"))
	}
	if !youtubeHostRe.MatchString(host) {
		return false
	}

	switch {
	case u.Path == "/watch":
		return youtubeIDRe.MatchString(u.Query().Get("v"))
	case strings.HasPrefix(u.Path, "/v/"):
		return youtubeIDRe.MatchString(strings.TrimPrefix(u.Path, "/v/"))
	case strings.HasPrefix(u.Path, "/shorts/"):
		return youtubeIDRe.MatchString(strings.TrimPrefix(u.Path, "/shorts/"))
	case strings.HasPrefix(u.Path, "/embed/"):
		return youtubeIDRe.MatchString(strings.TrimPrefix(u.Path, "/embed/"))
	}

	return false
}

// IsVimeo reports whether link points at a single Vimeo video page.
func IsVimeo(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	if !vimeoHostRe.MatchString(strings.ToLower(u.Hostname())) {
		return false
	}

	return vimeoPathRe.MatchString(u.Path)
}
