package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name string
		line string
		pct  float64
		ok   bool
	}{
		{"mid download", "[download]  42.3% of 10.52MiB at 1.21MiB/s ETA 00:05", 42.3, true},
		{"integer percent", "[download] 100% of 10.52MiB in 00:09", 100, true},
		{"leading whitespace", "   [download]   5.0% of ~3.2MiB", 5.0, true},
		{"destination line", "[download] Destination: clip.mp4", 0, false},
		{"extractor line", "[youtube] abc: Downloading webpage", 0, false},
		{"merger line", "[Merger] Merging formats into clip.mp4", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, ok := ParseProgress(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.pct, pct)
			}
		})
	}
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "no output", stderrTail("", 5))
	assert.Equal(t, "one line", stderrTail("one line\n", 5))

	long := "a\nb\nc\nd\ne\nf\ng"
	assert.Equal(t, "e\nf\ng", stderrTail(long, 3))
}
