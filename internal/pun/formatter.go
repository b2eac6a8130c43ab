package pun

import (
	"strings"
	"time"
	"unicode/utf16"

	"pun_archiver/internal/domain"
)

// DateLayout is the entry date format, MM/DD/YYYY.
const DateLayout = "01/02/2006"

// Entry is a rendered pun together with the ranges of its parts.
// Ranges are relative to the start of Text until Shift is applied.
type Entry struct {
	Text      string
	Date      domain.Range
	Setup     domain.Range
	Punchline domain.Range
}

// Format renders "{date}\n{setup}\n\t{punchline}\n\n".
func Format(date, setup, punchline string) Entry {
	var (
		b   strings.Builder
		e   Entry
		pos int64
	)

	write := func(s string) domain.Range {
		b.WriteString(s)
		r := domain.Range{Start: pos, End: pos + utf16Len(s)}
		pos = r.End
		return r
	}

	e.Date = write(date)
	write("\n")
	e.Setup = write(setup)
	write("\n\t")
	e.Punchline = write(punchline)
	write("\n\n")

	e.Text = b.String()
	return e
}

// FormatPost renders a matched post, dating it in loc.
func FormatPost(post domain.Post, p domain.ParsedPun, loc *time.Location) Entry {
	if loc == nil {
		loc = time.UTC
	}
	return Format(post.CreatedAt.In(loc).Format(DateLayout), p.Setup, p.Punchline)
}

// Shift returns e with every range moved to start at index at.
func (e Entry) Shift(at int64) Entry {
	e.Date = e.Date.Shift(at)
	e.Setup = e.Setup.Shift(at)
	e.Punchline = e.Punchline.Shift(at)
	return e
}

// Body spans from the start of the date to the end of the punchline.
func (e Entry) Body() domain.Range {
	return domain.Range{Start: e.Date.Start, End: e.Punchline.End}
}

// Len is the length of Text in document indexes.
func (e Entry) Len() int64 {
	return utf16Len(e.Text)
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(utf16.RuneLen(r))
	}
	return n
}
