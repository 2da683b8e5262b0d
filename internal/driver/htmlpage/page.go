// Package htmlpage is an offline driver.Page over a parsed HTML document.
// It backs the replay command and the extractor tests: XPath selectors go
// through htmlquery, CSS selectors through goquery.
package htmlpage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/maltedev/brain-product-parser/internal/driver"
	"golang.org/x/net/html"
)

type Page struct {
	root *html.Node
	url  string

	mu      sync.Mutex
	actions []string
}

var _ driver.Page = (*Page)(nil)

func Parse(r io.Reader, url string) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{root: root, url: url}, nil
}

func ParseString(doc, url string) (*Page, error) {
	return Parse(strings.NewReader(doc), url)
}

// LoadFile reads a page snapshot written by the run command.
func LoadFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Parse(f, "file://"+path)
}

// Navigate only succeeds for the URL the document was loaded from.
func (p *Page) Navigate(url string, _ driver.WaitCondition, _ time.Duration) error {
	p.record("navigate %s", url)
	if url != p.url {
		return fmt.Errorf("offline page %s cannot navigate to %s", p.url, url)
	}
	return nil
}

func (p *Page) Locate(selector string) driver.Element {
	root := &element{
		page:    p,
		resolve: func() ([]*html.Node, error) { return []*html.Node{p.root}, nil },
	}
	return root.Locate(selector)
}

func (p *Page) Scroll(dx, dy float64) error {
	p.record("scroll %g,%g", dx, dy)
	return nil
}

func (p *Page) WaitForLoadState(state driver.WaitCondition) error {
	p.record("wait %s", state)
	return nil
}

func (p *Page) URL() string {
	return p.url
}

func (p *Page) Content() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, p.root); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

// Actions returns the interactions performed so far, e.g. "click //button".
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.actions))
	copy(out, p.actions)
	return out
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

// query runs one selector against a single scope node. XPath expressions
// starting with "/" are made relative to the scope, the way Playwright
// treats chained xpath locators.
func query(scope *html.Node, selector string) ([]*html.Node, error) {
	switch {
	case strings.HasPrefix(selector, "xpath="):
		return queryXPath(scope, strings.TrimPrefix(selector, "xpath="))
	case strings.HasPrefix(selector, "//"), strings.HasPrefix(selector, ".."):
		return queryXPath(scope, selector)
	case strings.HasPrefix(selector, "css="):
		return queryCSS(scope, strings.TrimPrefix(selector, "css=")), nil
	default:
		return queryCSS(scope, selector), nil
	}
}

func queryXPath(scope *html.Node, expr string) ([]*html.Node, error) {
	if strings.HasPrefix(expr, "/") && scope.Type != html.DocumentNode {
		expr = "." + expr
	}
	nodes, err := htmlquery.QueryAll(scope, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nodes, nil
}

func queryCSS(scope *html.Node, selector string) []*html.Node {
	return goquery.NewDocumentFromNode(scope).Find(selector).Nodes
}
