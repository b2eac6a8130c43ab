package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// IsNewer reports whether post id is strictly after the watermark id.
// Any id is newer than an empty watermark. Snowflake ids compare
// numerically; anything else falls back to length-then-lexical order,
// which matches numeric order for unsigned decimal strings.
func IsNewer(id, watermark string) bool {
	id = strings.TrimSpace(id)
	watermark = strings.TrimSpace(watermark)
	if watermark == "" {
		return id != ""
	}

	a, errA := snowflake.ParseString(id)
	b, errB := snowflake.ParseString(watermark)
	if errA == nil && errB == nil {
		return a > b
	}

	if len(id) != len(watermark) {
		return len(id) > len(watermark)
	}
	return id > watermark
}
