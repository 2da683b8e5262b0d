package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/retry"
)

const (
	OpHome   = "load_home"
	OpSearch = "search"
	OpSelect = "open_first_in_stock"
)

type Selectors struct {
	Input        string
	Submit       string
	FirstInStock string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Input:        "xpath=//div[contains(@class, 'header-bottom-in')]//input[@class='quick-search-input']",
		Submit:       "xpath=//input[@type='submit' and @class='qsr-submit' and @value='Знайти']",
		FirstInStock: `xpath=//div[@data-stock="1"][1]//a`,
	}
}

type Options struct {
	Selectors Selectors

	NavigationTimeout time.Duration
	InputTimeout      time.Duration
	ResultTimeout     time.Duration

	AfterHome   pacing.Interval
	KeyDelay    pacing.Interval
	AfterType   pacing.Interval
	AfterSubmit pacing.Interval
	AfterOpen   pacing.Interval
}

func DefaultOptions() Options {
	return Options{
		Selectors:         DefaultSelectors(),
		NavigationTimeout: 60 * time.Second,
		InputTimeout:      10 * time.Second,
		ResultTimeout:     5 * time.Second,
		AfterHome:         pacing.Between(2*time.Second, 6*time.Second),
		KeyDelay:          pacing.Between(50*time.Millisecond, 150*time.Millisecond),
		AfterType:         pacing.Between(1*time.Second, 3*time.Second),
		AfterSubmit:       pacing.Between(1*time.Second, 4*time.Second),
		AfterOpen:         pacing.Between(2*time.Second, 5*time.Second),
	}
}

// Searcher walks from the home page to a product page. Every step runs
// under the navigator and reports only success or failure.
type Searcher struct {
	page   driver.Page
	nav    *retry.Navigator
	pacer  pacing.Pacer
	opts   Options
	logger *slog.Logger
}

func New(page driver.Page, nav *retry.Navigator, pacer pacing.Pacer, opts Options, logger *slog.Logger) *Searcher {
	return &Searcher{
		page:   page,
		nav:    nav,
		pacer:  pacer,
		opts:   opts,
		logger: logger.With("component", "searcher"),
	}
}

// OpenHome loads url and waits for the network to settle.
func (s *Searcher) OpenHome(ctx context.Context, url string) bool {
	return s.nav.Attempt(ctx, OpHome, func(ctx context.Context, attempt int) error {
		s.logger.Info("loading home page", "url", url, "attempt", attempt)

		if err := s.page.Navigate(url, driver.WaitNetworkIdle, s.opts.NavigationTimeout); err != nil {
			return fmt.Errorf("failed to open %s: %w", url, err)
		}
		return s.pacer.Pause(ctx, s.opts.AfterHome)
	})
}

// Search types query into the header search box and submits it.
func (s *Searcher) Search(ctx context.Context, query string) bool {
	return s.nav.Attempt(ctx, OpSearch, func(ctx context.Context, attempt int) error {
		s.logger.Info("searching for product", "query", query, "attempt", attempt)

		input := s.page.Locate(s.opts.Selectors.Input)
		if err := input.WaitVisible(s.opts.InputTimeout); err != nil {
			return fmt.Errorf("search input: %w", err)
		}
		if err := input.Clear(); err != nil {
			return fmt.Errorf("failed to clear search input: %w", err)
		}
		if err := input.Type(query, s.pacer.Pick(s.opts.KeyDelay)); err != nil {
			return fmt.Errorf("failed to type query: %w", err)
		}
		s.logger.Debug("query entered", "attempt", attempt)

		if err := s.pacer.Pause(ctx, s.opts.AfterType); err != nil {
			return err
		}

		submit := s.page.Locate(s.opts.Selectors.Submit)
		if err := submit.WaitVisible(s.opts.InputTimeout); err != nil {
			return fmt.Errorf("search button: %w", err)
		}
		if err := submit.Click(); err != nil {
			return fmt.Errorf("failed to submit search: %w", err)
		}

		return s.pacer.Pause(ctx, s.opts.AfterSubmit)
	})
}

// OpenFirstInStock clicks the first search result that is in stock.
func (s *Searcher) OpenFirstInStock(ctx context.Context) bool {
	return s.nav.Attempt(ctx, OpSelect, func(ctx context.Context, attempt int) error {
		s.logger.Info("opening first product in stock", "attempt", attempt)

		product := s.page.Locate(s.opts.Selectors.FirstInStock).First()
		if err := product.WaitVisible(s.opts.ResultTimeout); err != nil {
			return fmt.Errorf("first in-stock result: %w", err)
		}
		if err := product.Click(); err != nil {
			return fmt.Errorf("failed to open product: %w", err)
		}
		if err := s.page.WaitForLoadState(driver.WaitDOMContentLoaded); err != nil {
			return fmt.Errorf("product page did not load: %w", err)
		}

		if err := s.pacer.Pause(ctx, s.opts.AfterOpen); err != nil {
			return err
		}
		s.logger.Info("product page opened", "url", s.page.URL())
		return nil
	})
}
