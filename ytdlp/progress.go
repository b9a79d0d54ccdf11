package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
)

// yt-dlp --newline emits lines like:
//
//	[download]  42.3% of 10.52MiB at 1.21MiB/s ETA 00:05
var progressRe = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)

// ParseProgress extracts the percentage from a yt-dlp progress line.
// Returns false for every other line the tool prints.
func ParseProgress(line string) (float64, bool) {
	m := progressRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}

	return pct, true
}

// stderrTail returns the last few lines of tool stderr for error messages,
// keeping huge extractor dumps out of the ledger.
func stderrTail(output string, lines int) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return "no output"
	}

	parts := strings.Split(output, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
