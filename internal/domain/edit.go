package domain

// Range is a half-open span of document indexes.
// Indexes count UTF-16 code units, the unit Google Docs uses.
type Range struct {
	Start int64
	End   int64
}

// Shift returns r moved by offset.
func (r Range) Shift(offset int64) Range {
	return Range{Start: r.Start + offset, End: r.End + offset}
}

// Len returns the number of indexes in r.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// DocumentEdit is one structured change to the destination document.
// It is implemented by InsertText, SetParagraphStyle and SetItalic.
type DocumentEdit interface {
	isDocumentEdit()
}

type InsertText struct {
	Index int64
	Text  string
}

type SetParagraphStyle struct {
	Range      Range
	NamedStyle string
}

type SetItalic struct {
	Range Range
}

func (InsertText) isDocumentEdit()        {}
func (SetParagraphStyle) isDocumentEdit() {}
func (SetItalic) isDocumentEdit()         {}

// Layout is the live paragraph structure of the document body.
type Layout struct {
	Paragraphs []Range
	End        int64
}
