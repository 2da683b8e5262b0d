package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/parser"
)

var errEmptyText = errors.New("element text is empty")

type Selectors struct {
	Title        string
	Price        string
	Photos       string
	ReviewCount  string
	Code         string
	ExpandButton string
	Spec         parser.SpecSelectors
}

func DefaultSelectors() Selectors {
	return Selectors{
		Title:        "xpath=//div[@class='main-right-block ']//h1[@class='desktop-only-title']",
		Price:        "xpath=//div[@class='br-pr-price main-price-block']//div[@class='price-wrapper']",
		Photos:       "xpath=//div[@class='product-block-right']//div[@class='slick-track']//img",
		ReviewCount:  "xpath=//div[@class='title']//a[@class='forbid-click reviews-count']//span",
		Code:         "xpath=//div[@class='title']//span[@class='br-pr-code-val']",
		ExpandButton: "xpath=//div[@id='br-characteristics']//button[@class='br-prs-button']",
		Spec:         parser.DefaultSpecSelectors(),
	}
}

// ScrollStep is a wheel distance with a larger fallback used only when the
// primary scroll fails.
type ScrollStep struct {
	Primary  float64
	Fallback float64
}

type Options struct {
	Selectors      Selectors
	ElementTimeout time.Duration

	ToCharacteristics ScrollStep
	AfterExpand       ScrollStep
	ScrollPause       pacing.Interval
	FallbackPause     pacing.Interval
	ExpandPause       pacing.Interval
}

func DefaultOptions() Options {
	return Options{
		Selectors:         DefaultSelectors(),
		ElementTimeout:    10 * time.Second,
		ToCharacteristics: ScrollStep{Primary: 700, Fallback: 1000},
		AfterExpand:       ScrollStep{Primary: 1000, Fallback: 1500},
		ScrollPause:       pacing.Between(2*time.Second, 5*time.Second),
		FallbackPause:     pacing.Between(1*time.Second, 4*time.Second),
		ExpandPause:       pacing.Between(2*time.Second, 5*time.Second),
	}
}

// Extractor reads product fields from a loaded product page. Every field
// is fault-isolated: errors are logged and turn into an absent value.
type Extractor struct {
	opts    Options
	spec    *parser.SpecParser
	pacer   pacing.Pacer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(opts Options, pacer pacing.Pacer, logger *slog.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		opts:    opts,
		spec:    parser.NewSpecParser(opts.Selectors.Spec, logger),
		pacer:   pacer,
		logger:  logger.With("component", "extractor"),
		metrics: m,
	}
}

// Collect runs every extractor in order and assembles the record. It always
// returns a record, possibly with every field absent.
func (e *Extractor) Collect(ctx context.Context, page driver.Page) *models.ProductRecord {
	e.logger.Info("start collecting product data", "url", page.URL())

	record := models.NewProductRecord()
	record.SourceURL = page.URL()

	record.Title = e.Title(page)
	record.RegularPrice = e.Price(page)
	record.SalePrice = models.None[float64]()
	record.Photos = e.Photos(page)
	record.ReviewCount = e.ReviewCount(page)
	record.Code = e.Code(page)

	record.Specifications = e.Specifications(ctx, page)
	record.SpecSummary = parser.Project(record.Specifications)

	if missing := record.Missing(); len(missing) > 0 {
		e.logger.Warn("product collected with missing fields", "missing", missing)
	} else {
		e.logger.Info("product collected")
	}
	return record
}

func (e *Extractor) Title(page driver.Page) models.Optional[string] {
	return extractField(e, "title", func() (string, error) {
		return e.visibleText(page, e.opts.Selectors.Title)
	})
}

func (e *Extractor) Price(page driver.Page) models.Optional[float64] {
	return extractField(e, "price", func() (float64, error) {
		text, err := e.visibleText(page, e.opts.Selectors.Price)
		if err != nil {
			return 0, err
		}
		return parser.ParsePrice(text)
	})
}

func (e *Extractor) ReviewCount(page driver.Page) models.Optional[int] {
	return extractField(e, "review_count", func() (int, error) {
		text, err := e.visibleText(page, e.opts.Selectors.ReviewCount)
		if err != nil {
			return 0, err
		}
		count, err := strconv.Atoi(text)
		if err != nil {
			return 0, fmt.Errorf("review count %q: %w", text, err)
		}
		return count, nil
	})
}

func (e *Extractor) Code(page driver.Page) models.Optional[string] {
	return extractField(e, "code", func() (string, error) {
		return e.visibleText(page, e.opts.Selectors.Code)
	})
}

// Photos returns image sources from the product carousel in document order.
// Images without a src are skipped; any failure yields an empty slice.
func (e *Extractor) Photos(page driver.Page) []string {
	photos := make([]string, 0)

	images, err := page.Locate(e.opts.Selectors.Photos).All()
	if err != nil {
		e.fail("photos", err)
		return photos
	}
	if len(images) == 0 {
		e.logger.Info("no photos found")
		return photos
	}

	for i, img := range images {
		src, ok, err := img.Attribute("src")
		if err != nil {
			e.logger.Warn("failed to read photo source", "index", i, "error", err)
			continue
		}
		if !ok || src == "" {
			continue
		}
		photos = append(photos, src)
	}

	e.logger.Info("photos collected", "count", len(photos), "images", len(images))
	return photos
}

// Specifications reveals the collapsed characteristics block and parses it.
// The result is never nil.
func (e *Extractor) Specifications(ctx context.Context, page driver.Page) models.SpecTree {
	e.Reveal(ctx, page)

	tree, err := e.spec.Parse(page)
	if err != nil {
		e.fail("specifications", err)
		return make(models.SpecTree)
	}
	return tree
}

// Reveal scrolls to the characteristics, expands them if the page offers
// the button, and scrolls again so lazy rows render.
func (e *Extractor) Reveal(ctx context.Context, page driver.Page) {
	e.scroll(ctx, page, e.opts.ToCharacteristics)

	if e.expand(ctx, page) {
		e.logger.Info("expanded all characteristics")
	}

	e.scroll(ctx, page, e.opts.AfterExpand)
}

func (e *Extractor) scroll(ctx context.Context, page driver.Page, step ScrollStep) {
	err := page.Scroll(0, step.Primary)
	if err == nil {
		e.pause(ctx, e.opts.ScrollPause)
		e.logger.Info("scrolled down", "dy", step.Primary)
		return
	}
	e.logger.Warn("scroll failed, trying fallback", "dy", step.Primary, "error", err)

	if err := page.Scroll(0, step.Fallback); err != nil {
		e.logger.Error("fallback scroll failed", "dy", step.Fallback, "error", err)
		return
	}
	e.pause(ctx, e.opts.FallbackPause)
	e.logger.Info("scrolled down", "dy", step.Fallback)
}

// expand is best effort: pages that render the table fully expanded have
// no button.
func (e *Extractor) expand(ctx context.Context, page driver.Page) bool {
	button := page.Locate(e.opts.Selectors.ExpandButton).First()

	if err := button.WaitVisible(e.opts.ElementTimeout); err != nil {
		e.logger.Warn("characteristics button not available", "kind", driver.Kind(err), "error", err)
		return false
	}
	if err := button.Click(); err != nil {
		e.logger.Warn("failed to click characteristics button", "error", err)
		return false
	}

	e.pause(ctx, e.opts.ExpandPause)
	return true
}

func (e *Extractor) visibleText(page driver.Page, selector string) (string, error) {
	el := page.Locate(selector).First()
	if err := el.WaitVisible(e.opts.ElementTimeout); err != nil {
		return "", err
	}

	text, err := el.Text()
	if err != nil {
		return "", err
	}
	text = parser.CleanText(text)
	if text == "" {
		return "", errEmptyText
	}
	return text, nil
}

func (e *Extractor) pause(ctx context.Context, interval pacing.Interval) {
	if err := e.pacer.Pause(ctx, interval); err != nil {
		e.logger.Debug("pause interrupted", "error", err)
	}
}

func (e *Extractor) fail(field string, err error) {
	kind := driver.Kind(err)
	e.metrics.IncExtractionFailure(field, kind)
	if kind == "timeout" {
		e.logger.Error("field not found - timeout", "field", field, "error", err)
		return
	}
	e.logger.Error("field not found", "field", field, "error", err)
}

func extractField[T any](e *Extractor, field string, fn func() (T, error)) (out models.Optional[T]) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(field, fmt.Errorf("panic: %v", r))
			out = models.None[T]()
		}
	}()

	value, err := fn()
	if err != nil {
		e.fail(field, err)
		return models.None[T]()
	}

	e.logger.Info("field extracted", "field", field, "value", value)
	return models.Some(value)
}
