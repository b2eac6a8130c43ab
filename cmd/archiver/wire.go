package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"pun_archiver/internal/config"
	"pun_archiver/internal/document"
	"pun_archiver/internal/domain"
	"pun_archiver/internal/publisher"
	"pun_archiver/internal/service"
	"pun_archiver/internal/source/x"
	"pun_archiver/internal/watermark"
)

func (a *app) buildService(ctx context.Context) (*service.ArchiveService, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				a.logger.Warn("failed to close resource", "error", err)
			}
		}
	}

	watermarks, closeStore, err := a.openWatermarks(ctx)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	src := x.New(x.Config{
		BaseURL:      a.cfg.Source.BaseURL,
		TokenURL:     a.cfg.Source.TokenURL,
		BearerToken:  a.cfg.Source.BearerToken,
		APIKey:       a.cfg.Source.APIKey,
		APIKeySecret: a.cfg.Source.APIKeySecret,
		AccountID:    a.cfg.Source.AccountID,
		AccountName:  a.cfg.Source.AccountName,
		PageSize:     a.cfg.Source.PageSize,
		MaxPages:     a.cfg.Source.MaxPages,
		Timeout:      a.cfg.Source.Timeout,
	}, a.logger)

	doc, err := document.NewGoogleDocs(ctx, a.cfg.Document.ID, docsOptions(a.cfg.Document)...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	writer := document.NewWriter(doc, a.cfg.Document.InsertIndex, a.logger)

	var pub service.Publisher
	if a.cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        a.cfg.RabbitMQ.URL,
			Exchange:   a.cfg.RabbitMQ.Exchange,
			RoutingKey: a.cfg.RabbitMQ.RoutingKey,
			QueueName:  a.cfg.RabbitMQ.QueueName,
		}, a.logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		closers = append(closers, rabbitMQ.Close)
		pub = rabbitMQ
	}

	svc := service.NewArchiveService(src, watermarks, writer, pub, a.logger, a.cfg.Location())
	return svc, cleanup, nil
}

func docsOptions(cfg config.DocumentConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(docs.DocumentsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return opts
}

// openWatermarks returns the configured store and a func releasing it.
func (a *app) openWatermarks(ctx context.Context) (service.WatermarkStore, func() error, error) {
	wcfg := a.cfg.Watermark
	noop := func() error { return nil }

	var db *sqlx.DB
	var err error
	switch wcfg.Backend {
	case config.BackendEnv:
		return watermark.NewEnvFileStore(wcfg.Path, a.logger), noop, nil
	case config.BackendPostgres:
		db, err = sqlx.ConnectContext(ctx, "postgres", wcfg.Database.DSN())
	case config.BackendSQLite:
		db, err = watermark.OpenSQLite(wcfg.Path)
	default:
		return nil, nil, fmt.Errorf("%w: unknown watermark backend %q", domain.ErrConfig, wcfg.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to connect to database: %v", domain.ErrPersist, err)
	}

	store := watermark.NewSQLStore(db, a.cfg.Source.AccountID, a.logger)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: migrate: %v", domain.ErrPersist, err)
	}
	a.logger.Info("connected to database", "backend", wcfg.Backend)

	return store, db.Close, nil
}
