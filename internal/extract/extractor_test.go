package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/maltedev/brain-product-parser/internal/driver/htmlpage"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/iphone15.html"

func newExtractor(m *metrics.Metrics) (*Extractor, *pacing.Instant) {
	pacer := pacing.NewInstant()
	return New(DefaultOptions(), pacer, logger.Discard(), m), pacer
}

func loadFixture(t *testing.T) *htmlpage.Page {
	t.Helper()
	page, err := htmlpage.LoadFile(fixture)
	require.NoError(t, err)
	return page
}

func TestCollectProductPage(t *testing.T) {
	page := loadFixture(t)
	extractor, _ := newExtractor(nil)

	record := extractor.Collect(context.Background(), page)

	assert.Equal(t, models.Some("Мобільний телефон Apple iPhone 15 128GB Black (MTP03RX/A)"), record.Title)
	assert.Equal(t, models.Some(34999.0), record.RegularPrice)
	assert.False(t, record.SalePrice.IsPresent())
	assert.Equal(t, models.Some(12), record.ReviewCount)
	assert.Equal(t, models.Some("ABC123"), record.Code)
	assert.Equal(t, []string{"https://brain.com.ua/static/images/prod_img/1/iphone15_front.jpg"}, record.Photos)
	assert.Equal(t, page.URL(), record.SourceURL)

	assert.Equal(t, `6.1"`, record.Specifications["Дисплей"]["Діагональ екрану"])
	assert.Len(t, record.Specifications, 4)

	assert.Equal(t, models.Some("Apple"), record.Manufacturer)
	assert.Equal(t, models.Some("128 ГБ"), record.Memory)
	assert.Equal(t, models.Some("Чорний"), record.Color)
	assert.Equal(t, models.Some(`6.1"`), record.ScreenDiagonal)
	assert.Equal(t, models.Some("2556x1179"), record.ScreenResolution)

	assert.Empty(t, record.Missing())
}

func TestRevealSequence(t *testing.T) {
	page := loadFixture(t)
	extractor, pacer := newExtractor(nil)

	extractor.Reveal(context.Background(), page)

	actions := page.Actions()
	require.Len(t, actions, 3)
	assert.Equal(t, "scroll 0,700", actions[0])
	assert.Contains(t, actions[1], "click ")
	assert.Contains(t, actions[1], "br-prs-button")
	assert.Equal(t, "scroll 0,1000", actions[2])

	opts := DefaultOptions()
	paused := pacer.Paused()
	require.Len(t, paused, 3)
	assert.True(t, opts.ScrollPause.Contains(paused[0]))
	assert.True(t, opts.ExpandPause.Contains(paused[1]))
	assert.True(t, opts.ScrollPause.Contains(paused[2]))
}

func TestRevealWithoutExpandButton(t *testing.T) {
	page, err := htmlpage.ParseString(`<html><body><div id="br-characteristics"></div></body></html>`, "")
	require.NoError(t, err)
	extractor, pacer := newExtractor(nil)

	extractor.Reveal(context.Background(), page)

	assert.Equal(t, []string{"scroll 0,700", "scroll 0,1000"}, page.Actions())
	assert.Len(t, pacer.Paused(), 2)
}

// flakyScrollPage fails the first n scrolls.
type flakyScrollPage struct {
	*htmlpage.Page
	failures int
}

func (p *flakyScrollPage) Scroll(dx, dy float64) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("wheel not available")
	}
	return p.Page.Scroll(dx, dy)
}

func TestRevealScrollFallback(t *testing.T) {
	page := &flakyScrollPage{Page: loadFixture(t), failures: 1}
	extractor, pacer := newExtractor(nil)

	extractor.Reveal(context.Background(), page)

	actions := page.Actions()
	require.Len(t, actions, 3)
	assert.Equal(t, "scroll 0,1000", actions[0], "fallback distance after the failed 700px scroll")
	assert.Equal(t, "scroll 0,1000", actions[2])

	opts := DefaultOptions()
	paused := pacer.Paused()
	require.Len(t, paused, 3)
	assert.True(t, opts.FallbackPause.Contains(paused[0]))
}

func TestCollectEmptyPage(t *testing.T) {
	page, err := htmlpage.ParseString(`<html><body><p>Сторінку не знайдено</p></body></html>`, "https://brain.com.ua/404")
	require.NoError(t, err)
	m := metrics.New()
	extractor, _ := newExtractor(m)

	record := extractor.Collect(context.Background(), page)

	require.NotNil(t, record)
	assert.False(t, record.Title.IsPresent())
	assert.False(t, record.RegularPrice.IsPresent())
	assert.False(t, record.ReviewCount.IsPresent())
	assert.False(t, record.Code.IsPresent())
	assert.NotNil(t, record.Photos)
	assert.Empty(t, record.Photos)
	assert.NotNil(t, record.Specifications)
	assert.Empty(t, record.Specifications)
	assert.Equal(t, models.SpecSummary{}, record.SpecSummary)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("title", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("specifications", "failure")))
}

func TestExtractorsAreIndependent(t *testing.T) {
	doc := `<html><body>
		<div class="main-right-block "><h1 class="desktop-only-title">Apple iPhone 15</h1>
		<div class="title"><a class="forbid-click reviews-count"><span>багато</span></a></div>
		<div class="br-pr-price main-price-block"><div class="price-wrapper">Немає в наявності</div></div>
		</div></body></html>`
	page, err := htmlpage.ParseString(doc, "")
	require.NoError(t, err)
	extractor, _ := newExtractor(nil)

	assert.Equal(t, models.Some("Apple iPhone 15"), extractor.Title(page))
	assert.False(t, extractor.Price(page).IsPresent(), "unparsable price")
	assert.False(t, extractor.ReviewCount(page).IsPresent(), "non-numeric count")
	assert.False(t, extractor.Code(page).IsPresent())
}

func TestPhotosSkipsImagesWithoutSource(t *testing.T) {
	doc := `<html><body><div class="product-block-right"><div class="slick-track">
		<img src="/1.jpg"><img><img src=""><img src="/2.jpg"><img data-src="/3.jpg">
	</div></div></body></html>`
	page, err := htmlpage.ParseString(doc, "")
	require.NoError(t, err)
	extractor, _ := newExtractor(nil)

	assert.Equal(t, []string{"/1.jpg", "/2.jpg"}, extractor.Photos(page))
}

func TestExtractFieldRecoversPanic(t *testing.T) {
	m := metrics.New()
	extractor, _ := newExtractor(m)

	got := extractField(extractor, "title", func() (string, error) {
		panic("detached frame")
	})

	assert.False(t, got.IsPresent())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("title", "failure")))
}
