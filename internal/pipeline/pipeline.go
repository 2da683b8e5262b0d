package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/maltedev/brain-product-parser/internal/extract"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/maltedev/brain-product-parser/internal/storage"
)

var (
	ErrHomeUnavailable  = errors.New("failed to load home page")
	ErrSearchFailed     = errors.New("failed to search for product")
	ErrProductNotOpened = errors.New("failed to navigate to first product")
)

// Finder walks from the home page to a product page.
type Finder interface {
	OpenHome(ctx context.Context, url string) bool
	Search(ctx context.Context, query string) bool
	OpenFirstInStock(ctx context.Context) bool
}

// Sink persists a record and returns its id.
type Sink interface {
	Save(ctx context.Context, r *models.ProductRecord) (int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, id int64, r *models.ProductRecord) error
}

type Snapshotter interface {
	Save(url, content string) (*storage.Snapshot, error)
}

type Target struct {
	HomeURL string
	Query   string
}

type Result struct {
	ID       models.Optional[int64]
	Record   *models.ProductRecord
	Snapshot *storage.Snapshot
}

type Pipeline struct {
	finder    Finder
	extractor *extract.Extractor
	sink      Sink
	notifier  Notifier
	snapshots Snapshotter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Pipeline)

func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithSnapshots(s Snapshotter) Option {
	return func(p *Pipeline) { p.snapshots = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(finder Finder, extractor *extract.Extractor, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		finder:    finder,
		extractor: extractor,
		logger:    logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run opens the product named by target and processes it. Navigation
// failures abort the run with one of the sentinel errors; everything after
// the product page is open is best effort.
func (p *Pipeline) Run(ctx context.Context, page driver.Page, target Target) (*Result, error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveRun(time.Since(start))
	}()

	p.logger.Info("parser run started", "home_url", target.HomeURL, "query", target.Query)

	if !p.finder.OpenHome(ctx, target.HomeURL) {
		return nil, ErrHomeUnavailable
	}
	if !p.finder.Search(ctx, target.Query) {
		return nil, ErrSearchFailed
	}
	if !p.finder.OpenFirstInStock(ctx) {
		return nil, ErrProductNotOpened
	}

	snapshot := p.snapshot(page)

	result := p.Process(ctx, page)
	result.Snapshot = snapshot

	p.logger.Info("parser run finished", "duration", time.Since(start), "stored", result.ID.IsPresent())
	return result, nil
}

// Process extracts the record from an already opened product page, stores
// it and publishes a notification. Storage and notification failures are
// logged, never returned.
func (p *Pipeline) Process(ctx context.Context, page driver.Page) *Result {
	record := p.extractor.Collect(ctx, page)
	result := &Result{Record: record}

	if p.sink == nil {
		p.logger.Info("no sink configured, record not stored")
		return result
	}

	id, err := p.sink.Save(ctx, record)
	if err != nil {
		p.metrics.IncSaveFailure()
		p.logger.Error("failed to save product", "error", err)
		return result
	}

	p.metrics.IncSaved()
	result.ID = models.Some(id)
	p.logger.Info("product saved", "id", id, "code", record.Code.String())

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, id, record); err != nil {
			p.logger.Warn("failed to publish product event", "id", id, "error", err)
		}
	}

	return result
}

// snapshot never fails the run; any fault is logged and no snapshot is kept.
func (p *Pipeline) snapshot(page driver.Page) (snap *storage.Snapshot) {
	if p.snapshots == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("snapshot panicked", "panic", r)
			snap = nil
		}
	}()

	content, err := page.Content()
	if err != nil {
		p.logger.Warn("failed to read page content for snapshot", "error", err)
		return nil
	}

	snap, err = p.snapshots.Save(page.URL(), content)
	if err != nil {
		p.logger.Warn("failed to save snapshot", "error", err)
		return nil
	}

	p.logger.Info("snapshot saved", "id", snap.ID, "file", snap.File)
	return snap
}
