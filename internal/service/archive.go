package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pun_archiver/internal/domain"
	"pun_archiver/internal/pun"
)

type ArchiveService struct {
	source     Source
	watermarks WatermarkStore
	writer     DocumentWriter
	publisher  Publisher
	logger     *slog.Logger
	location   *time.Location
	now        func() time.Time
}

// NewArchiveService wires one source account to one document. publisher
// may be nil. Dates are rendered and compared in loc.
func NewArchiveService(
	source Source,
	watermarks WatermarkStore,
	writer DocumentWriter,
	publisher Publisher,
	logger *slog.Logger,
	loc *time.Location,
) *ArchiveService {
	if loc == nil {
		loc = time.UTC
	}
	return &ArchiveService{
		source:     source,
		watermarks: watermarks,
		writer:     writer,
		publisher:  publisher,
		logger:     logger.With("source", source.ID()),
		location:   loc,
		now:        time.Now,
	}
}

// Run archives every new pun post, oldest first. The watermark advances
// after each written post, so a failure part way through keeps the posts
// already written and leaves the rest for the next run.
func (s *ArchiveService) Run(ctx context.Context) (*domain.RunStats, error) {
	startTime := s.now()
	logger := s.logger.With("run_id", uuid.NewString())
	logger.Info("starting run", "source_name", s.source.Name())

	if err := s.source.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	wm, err := s.watermarks.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	logger.Info("loaded watermark", "last_seen_id", wm.LastSeenID, "last_run_date", formatDate(wm.LastRunDate))

	posts, err := s.source.FetchPosts(ctx, wm.LastSeenID)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	stats := &domain.RunStats{
		Source:     s.source.Name(),
		Fetched:    len(posts),
		LastSeenID: wm.LastSeenID,
	}

	if len(posts) == 0 {
		stats.Duration = s.now().Sub(startTime)
		logger.Info("no new tweets found")
		return stats, nil
	}

	logger.Info("fetched posts", "count", len(posts))

	at := int64(-1)
	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]

		if !domain.IsNewer(post.ID, stats.LastSeenID) {
			logger.Debug("skipping already archived post", "post_id", post.ID)
			stats.Skipped++
			continue
		}

		parsed, ok := pun.Match(post.Text)
		if !ok {
			logger.Debug("skipping post without a pun", "post_id", post.ID)
			stats.Skipped++
			continue
		}

		if at < 0 {
			at, err = s.prepareDocument(ctx, logger, wm, stats)
			if err != nil {
				stats.Errors++
				return stats, err
			}
		}

		archived, err := s.archive(ctx, logger, at, post, parsed)
		if err != nil {
			stats.Errors++
			return stats, fmt.Errorf("archive post %s: %w", post.ID, err)
		}
		stats.Archived++
		stats.LastSeenID = post.ID

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, archived); err != nil {
				logger.Warn("failed to publish archived pun", "post_id", post.ID, "error", err)
				stats.Errors++
			} else {
				stats.Published++
			}
		}
	}

	stats.Duration = s.now().Sub(startTime)

	logger.Info("run completed",
		"fetched", stats.Fetched,
		"archived", stats.Archived,
		"skipped", stats.Skipped,
		"published", stats.Published,
		"errors", stats.Errors,
		"year_header", stats.HeaderInserted,
		"last_seen_id", stats.LastSeenID,
		"duration", stats.Duration,
	)

	return stats, nil
}

// prepareDocument runs once per run, before the first entry: it adds the
// year header if the year rolled over, records the run date and resolves
// where entries go.
func (s *ArchiveService) prepareDocument(ctx context.Context, logger *slog.Logger, wm *domain.Watermark, stats *domain.RunStats) (int64, error) {
	now := s.now().In(s.location)

	inserted, err := s.writer.MaybeInsertYearHeader(ctx, wm.LastRunDate, now)
	if err != nil {
		return 0, fmt.Errorf("year header: %w", err)
	}
	stats.HeaderInserted = inserted

	if err := s.watermarks.SaveLastRunDate(ctx, now); err != nil {
		return 0, fmt.Errorf("save run date: %w", err)
	}

	at, err := s.writer.EntryIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("entry index: %w", err)
	}

	logger.Debug("document ready", "entry_index", at, "year_header", inserted)
	return at, nil
}

func (s *ArchiveService) archive(ctx context.Context, logger *slog.Logger, at int64, post domain.Post, parsed domain.ParsedPun) (*domain.ArchivedPun, error) {
	entry := pun.FormatPost(post, parsed, s.location)
	date := post.CreatedAt.In(s.location).Format(pun.DateLayout)

	logger.Info("new tweet",
		"post_id", post.ID,
		"date", date,
		"setup", parsed.Setup,
		"punchline", parsed.Punchline,
	)

	if err := s.writer.WriteEntry(ctx, at, entry); err != nil {
		return nil, err
	}
	logger.Info("tweet exported to doc", "post_id", post.ID)

	if err := s.watermarks.SaveLastSeenID(ctx, post.ID); err != nil {
		return nil, err
	}

	return &domain.ArchivedPun{
		Post:  post,
		Pun:   parsed,
		Date:  date,
		Entry: entry.Text,
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(pun.DateLayout)
}
