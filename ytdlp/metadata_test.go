package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/clipd/errors"
)

const probeFixture = `{
	"title": "Never Gonna Give You Up",
	"thumbnail": "https://i.example.com/thumb.jpg",
	"duration": 212.0,
	"webpage_url": "https://example.com/watch?v=abc",
	"formats": [
		{"format_id": "18", "ext": "mp4", "resolution": "640x360", "vcodec": "avc1", "acodec": "mp4a"},
		{"format_id": "22", "ext": "mp4", "resolution": "1280x720", "format_note": "720p", "filesize": 52428800}
	]
}`

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata([]byte(probeFixture))
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", meta.Title)
	assert.Equal(t, 212.0, meta.DurationSeconds)
	assert.Equal(t, "https://example.com/watch?v=abc", meta.WebpageURL)
	require.Len(t, meta.Formats, 2)
	assert.Equal(t, "22", meta.Formats[1].ID)
	assert.Equal(t, int64(52428800), meta.Formats[1].Filesize)
}

func TestParseMetadataSyntheticBestFormat(t *testing.T) {
	meta, err := ParseMetadata([]byte(`{"title": "Bare Extractor Result"}`))
	require.NoError(t, err)

	require.Len(t, meta.Formats, 1)
	assert.Equal(t, "best", meta.Formats[0].ID)
}

func TestParseMetadataInvalidJSON(t *testing.T) {
	_, err := ParseMetadata([]byte("WARNING: not json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtraction))
}
