package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		watermark string
		want      bool
	}{
		{"empty watermark", "1600000000000000000", "", true},
		{"empty id", "", "", false},
		{"equal", "1600000000000000000", "1600000000000000000", false},
		{"newer", "1600000000000000001", "1600000000000000000", true},
		{"older", "1599999999999999999", "1600000000000000000", false},
		{"shorter is older", "999", "1000", false},
		{"longer is newer", "1000", "999", true},
		{"non numeric fallback", "b", "a", true},
		{"whitespace trimmed", " 20 ", "10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNewer(tt.id, tt.watermark))
		})
	}
}
