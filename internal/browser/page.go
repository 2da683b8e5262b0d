package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/playwright-community/playwright-go"
)

// Page adapts a Playwright page to driver.Page.
type Page struct {
	page playwright.Page
}

var _ driver.Page = (*Page)(nil)

func (p *Page) Navigate(url string, wait driver.WaitCondition, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(wait),
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err)
}

func (p *Page) Locate(selector string) driver.Element {
	return &Element{locator: p.page.Locator(selector)}
}

func (p *Page) Scroll(dx, dy float64) error {
	return translate(p.page.Mouse().Wheel(dx, dy))
}

func (p *Page) WaitForLoadState(state driver.WaitCondition) error {
	return translate(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: loadState(state),
	}))
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) Content() (string, error) {
	content, err := p.page.Content()
	return content, translate(err)
}

func (p *Page) Close() error {
	return p.page.Close()
}

// Element adapts a Playwright locator to driver.Element.
type Element struct {
	locator playwright.Locator
}

var _ driver.Element = (*Element)(nil)

func (e *Element) Locate(selector string) driver.Element {
	return &Element{locator: e.locator.Locator(selector)}
}

func (e *Element) First() driver.Element {
	return &Element{locator: e.locator.First()}
}

func (e *Element) All() ([]driver.Element, error) {
	locators, err := e.locator.All()
	if err != nil {
		return nil, translate(err)
	}

	out := make([]driver.Element, 0, len(locators))
	for _, l := range locators {
		out = append(out, &Element{locator: l})
	}
	return out, nil
}

func (e *Element) WaitVisible(timeout time.Duration) error {
	return translate(e.locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}))
}

func (e *Element) Click() error {
	return translate(e.locator.Click())
}

func (e *Element) Clear() error {
	return translate(e.locator.Clear())
}

func (e *Element) Type(text string, perCharDelay time.Duration) error {
	return translate(e.locator.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(perCharDelay.Milliseconds())),
	}))
}

func (e *Element) Text() (string, error) {
	text, err := e.locator.InnerText()
	return text, translate(err)
}

func (e *Element) Attribute(name string) (string, bool, error) {
	present, err := e.locator.Evaluate("(el, name) => el.hasAttribute(name)", name)
	if err != nil {
		return "", false, translate(err)
	}
	if ok, _ := present.(bool); !ok {
		return "", false, nil
	}

	value, err := e.locator.GetAttribute(name)
	if err != nil {
		return "", false, translate(err)
	}
	return value, true, nil
}

// translate maps Playwright timeouts onto driver.ErrTimeout, keeping the
// original message.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", driver.ErrTimeout, err)
	}
	return err
}

func waitUntil(wait driver.WaitCondition) *playwright.WaitUntilState {
	switch wait {
	case driver.WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	case driver.WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	default:
		return playwright.WaitUntilStateLoad
	}
}

func loadState(state driver.WaitCondition) *playwright.LoadState {
	switch state {
	case driver.WaitNetworkIdle:
		return playwright.LoadStateNetworkidle
	case driver.WaitDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	default:
		return playwright.LoadStateLoad
	}
}
