package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tamweel-auto/waitlist/internal/ai/gemini"
	"github.com/tamweel-auto/waitlist/internal/analysis"
	"github.com/tamweel-auto/waitlist/internal/analytics"
	"github.com/tamweel-auto/waitlist/internal/config"
	"github.com/tamweel-auto/waitlist/internal/documents"
	"github.com/tamweel-auto/waitlist/internal/i18n"
	"github.com/tamweel-auto/waitlist/internal/notification"
	"github.com/tamweel-auto/waitlist/internal/rasterizer"
	"github.com/tamweel-auto/waitlist/internal/storage"
	"github.com/tamweel-auto/waitlist/internal/tier"
	"github.com/tamweel-auto/waitlist/internal/waitlist"
)

const fetchTimeout = 30 * time.Second

// Components are the long-lived services behind the HTTP surface.
type Components struct {
	Waitlist     *waitlist.Service
	Orchestrator *documents.Orchestrator
	Analysis     analysis.Analyzer
	Tracker      analytics.Tracker
	Debouncer    *analytics.Debouncer
	Blob         storage.BlobStore

	closers []io.Closer
}

// Build constructs every service from the shared dependencies. Without a
// database, Redis or MinIO (dev only) the in-memory variants are used.
func Build(ctx context.Context, d Deps) (*Components, error) {
	cfg := d.Cfg
	c := &Components{}
	catalog := i18n.NewCatalog(d.Logger)

	notifier, err := c.buildNotifier(cfg, d.Logger)
	if err != nil {
		return nil, err
	}

	var (
		blob    storage.BlobStore
		fetcher = storage.RoutingFetcher{HTTP: storage.NewHTTPFetcher(fetchTimeout, cfg.Uploads.MaxBytes)}
	)
	if d.Minio != nil {
		blob = storage.NewMinioStore(d.Minio, cfg.Minio.Bucket)
	} else {
		mem := storage.NewMemoryStore()
		fetcher.Memory = mem
		blob = mem
	}
	c.Blob = blob

	model, err := gemini.Dial(ctx, cfg.Analysis.GeminiAPIKeys, cfg.Analysis.GeminiModel, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.closers = append(c.closers, model)
	c.Analysis = analysis.NewService(model, fetcher, d.Logger)

	var analyzer analysis.Analyzer = c.Analysis
	if cfg.Analysis.RemoteURL != "" {
		analyzer = analysis.NewClient(cfg.Analysis.RemoteURL, 2*fetchTimeout)
	}

	var (
		docRepo     documents.Repository
		entrants    waitlist.Repository
		issuer      waitlist.IdentityIssuer
		sessions    waitlist.SessionStore
		remoteTiers tier.Remote
	)
	if d.DB != nil {
		docRepo = documents.NewPostgresRepository(d.DB)
		entrants = waitlist.NewPostgresRepository(d.DB)
		issuer = waitlist.NewPostgresIssuer(d.DB)
		remoteTiers = tier.NewPostgresRemote(d.DB)
	} else {
		docRepo = documents.NewMemoryRepository()
		entrants = waitlist.NewMemoryRepository()
		issuer = waitlist.NewMemoryIssuer()
	}
	if d.Cache != nil {
		sessions = waitlist.NewRedisSessionStore(d.Cache, cfg.SessionTTL)
	} else {
		sessions = waitlist.NewMemorySessionStore()
	}

	c.Orchestrator = documents.NewOrchestrator(documents.Dependencies{
		Tracker:    documents.NewTracker(cfg.Uploads.MaxTracked),
		Store:      blob,
		Repo:       docRepo,
		Analyzer:   analyzer,
		Rasterizer: rasterizer.New(
			rasterizer.WithScale(cfg.Uploads.RasterScale),
			rasterizer.WithQuality(cfg.Uploads.RasterQuality),
		),
		Notifier:   notifier,
		Catalog:    catalog,
		Logger:     d.Logger,
	}, documents.Settings{
		MaxFileBytes: cfg.Uploads.MaxBytes,
		MaxPages:     cfg.Uploads.RasterMaxPages,
		SignedURLTTL: cfg.Minio.SignedURLTTL,
	})

	c.Waitlist = waitlist.NewService(waitlist.Dependencies{
		Repo:        entrants,
		Issuer:      issuer,
		Sessions:    sessions,
		Tiers:       tier.NewResolver(remoteTiers, d.Logger),
		Notifier:    notifier,
		Catalog:     catalog,
		Logger:      d.Logger,
		CountryCode: cfg.Waitlist.CountryCode,
	})

	c.Tracker = analytics.NewLoggerTracker(d.Logger)
	c.Debouncer = analytics.NewDebouncer(cfg.Analytics.DebounceWindow)

	return c, nil
}

// buildNotifier always logs; smtp or amqp are added on top when configured.
func (c *Components) buildNotifier(cfg config.Config, logger *slog.Logger) (notification.Notifier, error) {
	multi := notification.Multi{notification.NewLoggerNotifier(logger)}
	n := cfg.Notifier
	switch n.Kind {
	case "smtp":
		multi = append(multi, notification.NewSMTPNotifier(n.SMTPHost, n.SMTPPort, n.SMTPUsername, n.SMTPPassword, n.SMTPFrom))
	case "amqp":
		publisher, err := notification.DialAMQP(n.AMQPURL, n.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("amqp notifier: %w", err)
		}
		c.closers = append(c.closers, publisher)
		multi = append(multi, publisher)
	}
	return multi, nil
}

// Close drains in-flight uploads and welcome notifications, drops pending
// analytics and releases clients.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Waitlist != nil {
		if err := c.Waitlist.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain welcome notifications: %w", err))
		}
	}
	if c.Orchestrator != nil {
		if err := c.Orchestrator.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain uploads: %w", err))
		}
	}
	if c.Debouncer != nil {
		c.Debouncer.Stop()
	}
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
