package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases scheme and host", "HTTPS://WWW.Example.COM/Watch", "https://www.example.com/Watch"},
		{"strips fragment", "https://example.com/v/abc#t=30", "https://example.com/v/abc"},
		{"strips default https port", "https://example.com:443/v", "https://example.com/v"},
		{"strips default http port", "http://example.com:80/v", "http://example.com/v"},
		{"keeps explicit port", "https://example.com:8443/v", "https://example.com:8443/v"},
		{"trims trailing slash", "https://example.com/v/abc/", "https://example.com/v/abc"},
		{"keeps query", "https://example.com/watch?v=abc&t=5", "https://example.com/watch?v=abc&t=5"},
		{"non-url passthrough", "   not a url   ", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("https://example.com/v/abc")
	b := Fingerprint("HTTPS://EXAMPLE.COM/v/abc/")
	c := Fingerprint("https://example.com/v/other")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// Query strings are significant; different video ids must not collide.
	assert.NotEqual(t,
		Fingerprint("https://example.com/watch?v=abc"),
		Fingerprint("https://example.com/watch?v=def"))
}
