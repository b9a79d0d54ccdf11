package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain title", "My Video", "My_Video"},
		{"emoji stripped", "Test 🔥 Video", "Test_Video"},
		{"extension kept", "clip of the day.mp4", "clip_of_the_day.mp4"},
		{"extension lowered", "Recording.MKV", "Recording.mkv"},
		{"punctuation stripped", "what?! (official)", "what_official"},
		{"whitespace run collapses", "a \t  b", "a_b"},
		{"leading trailing junk", "  ..name..  ", "name"},
		{"unicode letters survive", "Fête de la musique", "Fête_de_la_musique"},
		{"interior dot run collapses", "Part 1.. the beginning", "Part_1._the_beginning"},
		{"longer dot run collapses", "a...b", "a.b"},
		{"dot run around stripped rune", "a.🔥.b", "a.b"},
		{"all invalid", "???!!!", PlaceholderName},
		{"empty", "", PlaceholderName},
		{"only dots", "....", PlaceholderName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Test 🔥 Video",
		"clip of the day.mp4",
		"a . b",
		"  spaced   out  ",
		"???",
		strings.Repeat("long title ", 30),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSanitizeTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := Sanitize(long)
	assert.Len(t, got, MaxBaseLength)

	withExt := Sanitize(long + ".mp4")
	assert.True(t, strings.HasSuffix(withExt, ".mp4"))
	assert.Len(t, withExt, MaxBaseLength+len(".mp4"))
}

func TestSanitizeLongExtensionIsText(t *testing.T) {
	// A five-character tail is not treated as an extension.
	got := Sanitize("archive.backup")
	assert.Equal(t, "archive.backup", got)
}
