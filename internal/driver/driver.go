// Package driver defines the browser capabilities the parser needs. The
// Playwright implementation lives in internal/browser, the offline one in
// internal/driver/htmlpage.
package driver

import (
	"errors"
	"time"
)

var (
	// ErrTimeout marks an awaited condition that did not happen in time.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound marks a selector that matched nothing.
	ErrNotFound = errors.New("element not found")
)

// IsTimeout reports whether err is (or wraps) ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Kind labels an error for logs and metrics.
func Kind(err error) string {
	if IsTimeout(err) {
		return "timeout"
	}
	return "failure"
}

type WaitCondition string

const (
	WaitLoad             WaitCondition = "load"
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
	WaitNetworkIdle      WaitCondition = "networkidle"
)

// Page is a navigable browser tab. Selectors are Playwright-style: a
// leading "xpath=" or "//" selects XPath, anything else is CSS.
type Page interface {
	Navigate(url string, wait WaitCondition, timeout time.Duration) error
	Locate(selector string) Element
	Scroll(dx, dy float64) error
	WaitForLoadState(state WaitCondition) error
	URL() string
	Content() (string, error)
}

// Element is a lazy handle to zero or more nodes. Lookups resolve when an
// action is performed, so Locate never fails by itself.
type Element interface {
	Locate(selector string) Element
	First() Element
	All() ([]Element, error)
	WaitVisible(timeout time.Duration) error
	Click() error
	Clear() error
	Type(text string, perCharDelay time.Duration) error
	Text() (string, error)
	// Attribute returns ok=false when the attribute is missing.
	Attribute(name string) (value string, ok bool, err error)
}
