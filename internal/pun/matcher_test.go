package pun

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pun_archiver/internal/domain"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.ParsedPun
		ok   bool
	}{
		{
			name: "setup and punchline",
			text: "Why did the scarecrow win an award?\n\nBecause he was outstanding in his field.",
			want: domain.ParsedPun{
				Setup:     "Why did the scarecrow win an award?",
				Punchline: "Because he was outstanding in his field.",
			},
			ok: true,
		},
		{
			name: "multi-line setup",
			text: "I told my wife\nshe draws her eyebrows too high.\n\nShe looked surprised.",
			want: domain.ParsedPun{
				Setup:     "I told my wife\nshe draws her eyebrows too high.",
				Punchline: "She looked surprised.",
			},
			ok: true,
		},
		{
			name: "last block wins",
			text: "one\n\ntwo\n\nthree",
			want: domain.ParsedPun{Setup: "one\n\ntwo", Punchline: "three"},
			ok:   true,
		},
		{
			name: "crlf line endings",
			text: "setup\r\n\r\npunchline",
			want: domain.ParsedPun{Setup: "setup", Punchline: "punchline"},
			ok:   true,
		},
		{
			name: "extra blank lines collapse into setup",
			text: "setup\n\n\n\npunchline",
			want: domain.ParsedPun{Setup: "setup", Punchline: "punchline"},
			ok:   true,
		},
		{
			name: "surrounding whitespace",
			text: "\n  setup\n\npunchline  \n",
			want: domain.ParsedPun{Setup: "setup", Punchline: "punchline"},
			ok:   true,
		},
		{name: "no blank line", text: "just a regular post\nwith two lines"},
		{name: "single line", text: "gm"},
		{name: "empty", text: ""},
		{name: "empty punchline", text: "setup\n\n"},
		{name: "empty setup", text: "\n\npunchline"},
		{name: "whitespace-only separator line", text: "setup\n \npunchline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
