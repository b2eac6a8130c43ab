package pun

import (
	"regexp"
	"strings"

	"pun_archiver/internal/domain"
)

// Setup is greedy, so the punchline is whatever follows the last blank line.
var punPattern = regexp.MustCompile(`(?s)^(.+)\n\n(.+)$`)

// Match splits text into setup and punchline. It returns false when the
// text has no blank line or either side of the last one is empty.
func Match(text string) (domain.ParsedPun, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	m := punPattern.FindStringSubmatch(text)
	if m == nil {
		return domain.ParsedPun{}, false
	}

	setup := strings.TrimSpace(m[1])
	punchline := strings.TrimSpace(m[2])
	if setup == "" || punchline == "" {
		return domain.ParsedPun{}, false
	}

	return domain.ParsedPun{Setup: setup, Punchline: punchline}, true
}
