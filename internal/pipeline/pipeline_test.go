package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/maltedev/brain-product-parser/internal/driver/htmlpage"
	"github.com/maltedev/brain-product-parser/internal/extract"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/storage"
	"github.com/maltedev/brain-product-parser/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const fixture = "../extract/testdata/iphone15.html"

var target = Target{HomeURL: "https://brain.com.ua/", Query: "Apple iPhone 15 128GB Black"}

type stubFinder struct {
	home, search, open bool
	calls              []string
}

func (f *stubFinder) OpenHome(context.Context, string) bool {
	f.calls = append(f.calls, "home")
	return f.home
}

func (f *stubFinder) Search(context.Context, string) bool {
	f.calls = append(f.calls, "search")
	return f.search
}

func (f *stubFinder) OpenFirstInStock(context.Context) bool {
	f.calls = append(f.calls, "open")
	return f.open
}

// MockSink is a mock for Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Save(ctx context.Context, r *models.ProductRecord) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier is a mock for Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, id int64, r *models.ProductRecord) error {
	args := m.Called(ctx, id, r)
	return args.Error(0)
}

func newExtractor() *extract.Extractor {
	return extract.New(extract.DefaultOptions(), pacing.NewInstant(), logger.Discard(), nil)
}

func loadFixture(t *testing.T) *htmlpage.Page {
	t.Helper()
	page, err := htmlpage.LoadFile(fixture)
	require.NoError(t, err)
	return page
}

func TestRunAbortsOnNavigationFailure(t *testing.T) {
	tests := []struct {
		name   string
		finder *stubFinder
		want   error
		calls  []string
	}{
		{"home", &stubFinder{}, ErrHomeUnavailable, []string{"home"}},
		{"search", &stubFinder{home: true}, ErrSearchFailed, []string{"home", "search"}},
		{"select", &stubFinder{home: true, search: true}, ErrProductNotOpened, []string{"home", "search", "open"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := new(MockSink)
			p := New(tt.finder, newExtractor(), logger.Discard(), WithSink(sink))

			result, err := p.Run(context.Background(), loadFixture(t), target)

			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, result)
			assert.Equal(t, tt.calls, tt.finder.calls)
			sink.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestRunStoresAndNotifies(t *testing.T) {
	ctx := context.Background()
	sink := new(MockSink)
	notifier := new(MockNotifier)
	m := metrics.New()
	snapshots, err := storage.NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	sink.On("Save", ctx, mock.MatchedBy(func(r *models.ProductRecord) bool {
		return r.Code == models.Some("ABC123")
	})).Return(int64(42), nil)
	notifier.On("Notify", ctx, int64(42), mock.Anything).Return(nil)

	p := New(&stubFinder{home: true, search: true, open: true}, newExtractor(), logger.Discard(),
		WithSink(sink), WithNotifier(notifier), WithSnapshots(snapshots), WithMetrics(m))

	result, err := p.Run(ctx, loadFixture(t), target)
	require.NoError(t, err)

	assert.Equal(t, models.Some(int64(42)), result.ID)
	assert.Equal(t, models.Some(34999.0), result.Record.RegularPrice)
	require.NotNil(t, result.Snapshot)
	assert.Len(t, snapshots.List(), 1)

	sink.AssertExpectations(t)
	notifier.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsSaved))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestProcessSaveFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	sink := new(MockSink)
	notifier := new(MockNotifier)
	m := metrics.New()

	sink.On("Save", ctx, mock.Anything).Return(int64(0), errors.New("connection refused"))

	p := New(&stubFinder{}, newExtractor(), logger.Discard(),
		WithSink(sink), WithNotifier(notifier), WithMetrics(m))

	result := p.Process(ctx, loadFixture(t))

	require.NotNil(t, result.Record)
	assert.False(t, result.ID.IsPresent())
	assert.Equal(t, models.Some("ABC123"), result.Record.Code)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveFailures))
}

func TestProcessNotifyFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	sink := new(MockSink)
	notifier := new(MockNotifier)

	sink.On("Save", ctx, mock.Anything).Return(int64(7), nil)
	notifier.On("Notify", ctx, int64(7), mock.Anything).Return(errors.New("redis down"))

	p := New(&stubFinder{}, newExtractor(), logger.Discard(), WithSink(sink), WithNotifier(notifier))

	result := p.Process(ctx, loadFixture(t))

	assert.Equal(t, models.Some(int64(7)), result.ID)
}

func TestProcessWithoutSink(t *testing.T) {
	p := New(&stubFinder{}, newExtractor(), logger.Discard())

	result := p.Process(context.Background(), loadFixture(t))

	assert.False(t, result.ID.IsPresent())
	assert.True(t, result.Record.Title.IsPresent())
}

func TestProcessMinimalProductPage(t *testing.T) {
	doc := `<html><body>
		<div class="main-right-block ">
			<h1 class="desktop-only-title">Apple iPhone 15 128GB Black</h1>
			<div class="title"><span class="br-pr-code-val">ABC123</span></div>
			<div class="br-pr-price main-price-block"><div class="price-wrapper">34999</div></div>
		</div>
		<div class="product-block-right"><div class="slick-track"><img src="/iphone.jpg"></div></div>
		<div class="br-wrap-block br-elem-block"><div class="br-pr-chr-item"><h3>Дисплей</h3>
			<div><div><span>Діагональ екрану</span><span>6.1"</span></div></div>
		</div></div>
	</body></html>`
	page, err := htmlpage.ParseString(doc, "https://brain.com.ua/ukr/iphone-15")
	require.NoError(t, err)

	result := New(nil, newExtractor(), logger.Discard()).Process(context.Background(), page)

	assert.Equal(t, models.Some("Apple iPhone 15 128GB Black"), result.Record.Title)
	assert.Equal(t, models.Some(34999.0), result.Record.RegularPrice)
	assert.Equal(t, models.Some("ABC123"), result.Record.Code)
	assert.Equal(t, models.Some(`6.1"`), result.Record.ScreenDiagonal)
	assert.Len(t, result.Record.Photos, 1)
	assert.False(t, result.Record.ReviewCount.IsPresent())
	assert.False(t, result.Record.Manufacturer.IsPresent())
}

type brokenSnapshots struct{}

func (brokenSnapshots) Save(string, string) (*storage.Snapshot, error) {
	var index map[string]*storage.Snapshot
	index["x"] = nil
	return nil, nil
}

func TestRunSurvivesSnapshotPanic(t *testing.T) {
	ctx := context.Background()
	sink := new(MockSink)
	sink.On("Save", ctx, mock.Anything).Return(int64(3), nil)

	p := New(&stubFinder{home: true, search: true, open: true}, newExtractor(), logger.Discard(),
		WithSink(sink), WithSnapshots(brokenSnapshots{}))

	result, err := p.Run(ctx, loadFixture(t), target)
	require.NoError(t, err)

	assert.Nil(t, result.Snapshot)
	assert.Equal(t, models.Some(int64(3)), result.ID)
	assert.Equal(t, models.Some("ABC123"), result.Record.Code)
	sink.AssertExpectations(t)
}
