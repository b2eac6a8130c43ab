// Package watermark persists the id of the newest archived post and the
// date of the last run.
package watermark

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pun_archiver/internal/domain"
)

func validateID(id string) error {
	if id == "" {
		return nil
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("post id %q is not numeric", id)
	}
	return nil
}

func parseDate(value, layout string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(layout, value, time.UTC)
}

func unquote(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"'`)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrConfig, fmt.Sprintf(format, args...))
}
