package player

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// EmbedOptions controls the YouTube embed URL query parameters.
type EmbedOptions struct {
	StartTime      float64
	Autoplay       bool
	Controls       bool
	ModestBranding bool
	Rel            bool
	Fullscreen     bool
}

// DefaultEmbedOptions matches the player vars used for mounted slots:
// no autoplay, native controls, modest branding, no related videos,
// fullscreen allowed.
func DefaultEmbedOptions() EmbedOptions {
	return EmbedOptions{
		Controls:       true,
		ModestBranding: true,
		Fullscreen:     true,
	}
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// YouTubeEmbedURL builds the iframe embed URL for a video id.
func YouTubeEmbedURL(videoId string, opts EmbedOptions) string {
	if videoId == "" {
		return ""
	}

	params := url.Values{}
	if opts.StartTime > 0 {
		params.Set("start", fmt.Sprintf("%d", int(math.Floor(opts.StartTime))))
	}
	params.Set("autoplay", boolParam(opts.Autoplay))
	params.Set("controls", boolParam(opts.Controls))
	params.Set("modestbranding", boolParam(opts.ModestBranding))
	params.Set("rel", boolParam(opts.Rel))
	params.Set("fs", boolParam(opts.Fullscreen))

	return "https://www.youtube.com/embed/" + videoId + "?" + params.Encode()
}

// YouTubeWatchURL builds a direct watch link, with the timestamp appended when
// positive.
func YouTubeWatchURL(videoId string, startTime float64) string {
	if videoId == "" {
		return ""
	}

	u := "https://www.youtube.com/watch?v=" + videoId
	if startTime > 0 {
		u += fmt.Sprintf("&t=%ds", int(math.Floor(startTime)))
	}

	return u
}

var thumbnailQualities = map[string]string{
	"default":  "default",
	"medium":   "mqdefault",
	"high":     "hqdefault",
	"standard": "sddefault",
	"maxres":   "maxresdefault",
}

// YouTubeThumbnailURL returns the static thumbnail for a video id. Unknown
// quality names fall back to medium.
func YouTubeThumbnailURL(videoId string, quality string) string {
	if videoId == "" {
		return ""
	}

	suffix, ok := thumbnailQualities[quality]
	if !ok {
		suffix = "mqdefault"
	}

	return "https://img.youtube.com/vi/" + videoId + "/" + suffix + ".jpg"
}

// DrivePreviewURL builds the preview iframe URL for a Drive file. The preview
// embed has no seek API; re-targeting a time means rebuilding this URL with a
// start parameter and reloading the frame.
func DrivePreviewURL(fileId string, startTime float64) string {
	if fileId == "" {
		return ""
	}

	u := "https://drive.google.com/file/d/" + fileId + "/preview"
	if startTime > 0 {
		u += fmt.Sprintf("?start=%d", int(math.Floor(startTime)))
	}

	return u
}

// DriveThumbnailURL returns the lh3 thumbnail for a Drive file.
func DriveThumbnailURL(fileId string) string {
	if fileId == "" {
		return ""
	}

	return "https://lh3.googleusercontent.com/d/" + fileId + "=w300-h200-p-k-nu"
}

// IsDriveOrigin reports whether a cross-frame message origin belongs to the
// Drive preview domain. Inbound Drive events from any other origin are
// dropped.
func IsDriveOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := u.Hostname()
	return host == "drive.google.com" || strings.HasSuffix(host, ".drive.google.com")
}

// IsYouTubeOrigin reports whether a cross-frame message origin belongs to the
// YouTube embed domains.
func IsYouTubeOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := u.Hostname()
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com")
}
