package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"pun_archiver/internal/domain"
	"pun_archiver/internal/pun"
)

type Source interface {
	ID() string
	Name() string
	Authenticate(ctx context.Context) error
	FetchPosts(ctx context.Context, sinceID string) ([]domain.Post, error)
}

type WatermarkStore interface {
	Load(ctx context.Context) (*domain.Watermark, error)
	SaveLastSeenID(ctx context.Context, id string) error
	SaveLastRunDate(ctx context.Context, date time.Time) error
}

type DocumentWriter interface {
	MaybeInsertYearHeader(ctx context.Context, lastRun, now time.Time) (bool, error)
	EntryIndex(ctx context.Context) (int64, error)
	WriteEntry(ctx context.Context, at int64, entry pun.Entry) error
}

type Publisher interface {
	Publish(ctx context.Context, archived *domain.ArchivedPun) error
	Close() error
}
