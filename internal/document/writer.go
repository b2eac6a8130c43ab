// Package document writes archived puns into the destination document.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pun_archiver/internal/domain"
	"pun_archiver/internal/pun"
)

const (
	// BodyStart is the first index of a document body; index 0 is the
	// section break.
	BodyStart int64 = 1

	NormalText = "NORMAL_TEXT"
)

// Document applies structured edits and reports the current layout.
type Document interface {
	Apply(ctx context.Context, edits ...domain.DocumentEdit) error
	Layout(ctx context.Context) (*domain.Layout, error)
}

// Writer turns archive operations into document edits, one request per
// operation. Nothing is retried.
type Writer struct {
	doc         Document
	insertIndex int64
	logger      *slog.Logger
}

// NewWriter creates a Writer. A positive insertIndex pins new entries to
// that index instead of deriving it from the layout.
func NewWriter(doc Document, insertIndex int64, logger *slog.Logger) *Writer {
	return &Writer{
		doc:         doc,
		insertIndex: insertIndex,
		logger:      logger.With("component", "document"),
	}
}

func (w *Writer) Insert(ctx context.Context, text string, at int64) error {
	return w.apply(ctx, domain.InsertText{Index: at, Text: text})
}

// NormalizeStyle sets r to normal text with no paragraph spacing.
func (w *Writer) NormalizeStyle(ctx context.Context, r domain.Range) error {
	return w.apply(ctx, domain.SetParagraphStyle{Range: r, NamedStyle: NormalText})
}

func (w *Writer) Italicize(ctx context.Context, r domain.Range) error {
	return w.apply(ctx, domain.SetItalic{Range: r})
}

// WriteEntry inserts entry at index at, normalizes its paragraphs and
// italicizes the punchline.
func (w *Writer) WriteEntry(ctx context.Context, at int64, entry pun.Entry) error {
	e := entry.Shift(at)

	if err := w.Insert(ctx, e.Text, at); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if err := w.NormalizeStyle(ctx, e.Body()); err != nil {
		return fmt.Errorf("normalize entry: %w", err)
	}
	if err := w.Italicize(ctx, e.Punchline); err != nil {
		return fmt.Errorf("italicize punchline: %w", err)
	}

	w.logger.Debug("wrote entry",
		"index", at,
		"body", e.Body(),
		"punchline", e.Punchline,
	)
	return nil
}

// MaybeInsertYearHeader inserts "{year}\n" at the top of the body when now
// falls in a later calendar year than lastRun. A zero lastRun never gets
// a header.
func (w *Writer) MaybeInsertYearHeader(ctx context.Context, lastRun, now time.Time) (bool, error) {
	if lastRun.IsZero() || now.Year() <= lastRun.Year() {
		return false, nil
	}

	header := strconv.Itoa(now.Year()) + "\n"
	if err := w.Insert(ctx, header, BodyStart); err != nil {
		return false, fmt.Errorf("insert year header: %w", err)
	}

	w.logger.Info("inserted year header", "year", now.Year(), "last_run", lastRun.Format(pun.DateLayout))
	return true, nil
}

// EntryIndex returns where the next entry goes: right after the first
// paragraph of the body, which holds the current year header. If that
// paragraph is the last one, an empty paragraph is added after it first.
func (w *Writer) EntryIndex(ctx context.Context) (int64, error) {
	if w.insertIndex > 0 {
		return w.insertIndex, nil
	}

	layout, err := w.doc.Layout(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read layout: %v", domain.ErrWrite, err)
	}
	if len(layout.Paragraphs) == 0 {
		return BodyStart, nil
	}

	first := layout.Paragraphs[0]
	if first.End < layout.End {
		return first.End, nil
	}

	if err := w.Insert(ctx, "\n", first.End-1); err != nil {
		return 0, fmt.Errorf("open entry paragraph: %w", err)
	}
	return first.End, nil
}

func (w *Writer) apply(ctx context.Context, edit domain.DocumentEdit) error {
	if err := w.doc.Apply(ctx, edit); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	return nil
}
