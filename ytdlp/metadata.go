// Package ytdlp shells out to the yt-dlp binary for metadata probes and
// media downloads. The binary stays a black box: this package only builds
// argument lists, parses its JSON and progress output, and translates
// failures into domain errors.
package ytdlp

import (
	"encoding/json"

	"github.com/teranos/clipd/errors"
)

// Format is one downloadable representation reported by the extractor
type Format struct {
	ID         string `json:"format_id"`
	Ext        string `json:"ext,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Note       string `json:"format_note,omitempty"`
	Filesize   int64  `json:"filesize,omitempty"`
	VCodec     string `json:"vcodec,omitempty"`
	ACodec     string `json:"acodec,omitempty"`
}

// Metadata is the probe result for a single media URL
type Metadata struct {
	Title           string   `json:"title"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	DurationSeconds float64  `json:"duration,omitempty"`
	WebpageURL      string   `json:"webpage_url,omitempty"`
	Formats         []Format `json:"formats"`
}

// ParseMetadata decodes yt-dlp -J output. Extractors for some sites return
// no format list at all; those degrade to a single synthetic "best" entry so
// callers always have something to request.
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(errors.ErrExtraction, "unparseable extractor output")
	}

	if len(meta.Formats) == 0 {
		meta.Formats = []Format{{ID: "best", Note: "default"}}
	}

	return &meta, nil
}
