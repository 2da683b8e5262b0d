package htmlpage

import (
	"fmt"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/maltedev/brain-product-parser/internal/driver"
	"golang.org/x/net/html"
)

type element struct {
	page    *Page
	desc    string
	resolve func() ([]*html.Node, error)
}

var _ driver.Element = (*element)(nil)

func (e *element) Locate(selector string) driver.Element {
	parent := e
	desc := selector
	if e.desc != "" {
		desc = e.desc + " >> " + selector
	}
	return &element{
		page: e.page,
		desc: desc,
		resolve: func() ([]*html.Node, error) {
			scopes, err := parent.resolve()
			if err != nil {
				return nil, err
			}

			seen := make(map[*html.Node]bool)
			var out []*html.Node
			for _, scope := range scopes {
				nodes, err := query(scope, selector)
				if err != nil {
					return nil, err
				}
				for _, n := range nodes {
					if !seen[n] {
						seen[n] = true
						out = append(out, n)
					}
				}
			}
			return out, nil
		},
	}
}

func (e *element) First() driver.Element {
	parent := e
	return &element{
		page: e.page,
		desc: e.desc + " >> first",
		resolve: func() ([]*html.Node, error) {
			nodes, err := parent.resolve()
			if err != nil || len(nodes) == 0 {
				return nil, err
			}
			return nodes[:1], nil
		},
	}
}

func (e *element) All() ([]driver.Element, error) {
	nodes, err := e.resolve()
	if err != nil {
		return nil, err
	}

	out := make([]driver.Element, 0, len(nodes))
	for i, n := range nodes {
		node := n
		out = append(out, &element{
			page:    e.page,
			desc:    fmt.Sprintf("%s >> nth=%d", e.desc, i),
			resolve: func() ([]*html.Node, error) { return []*html.Node{node}, nil },
		})
	}
	return out, nil
}

// WaitVisible fails immediately with a timeout: a static document never
// changes, so an element that is missing now never appears.
func (e *element) WaitVisible(_ time.Duration) error {
	nodes, err := e.resolve()
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("waiting for %s: %w", e.desc, driver.ErrTimeout)
	}
	if len(nodes) > 1 {
		return e.strictErr(len(nodes))
	}
	return nil
}

func (e *element) Click() error {
	if _, err := e.single(); err != nil {
		return err
	}
	e.page.record("click %s", e.desc)
	return nil
}

func (e *element) Clear() error {
	n, err := e.single()
	if err != nil {
		return err
	}
	setAttr(n, "value", "")
	e.page.record("clear %s", e.desc)
	return nil
}

func (e *element) Type(text string, perCharDelay time.Duration) error {
	n, err := e.single()
	if err != nil {
		return err
	}
	current, _ := attr(n, "value")
	setAttr(n, "value", current+text)
	e.page.record("type %s %q delay=%s", e.desc, text, perCharDelay)
	return nil
}

func (e *element) Text() (string, error) {
	n, err := e.single()
	if err != nil {
		return "", err
	}
	return htmlquery.InnerText(n), nil
}

func (e *element) Attribute(name string) (string, bool, error) {
	n, err := e.single()
	if err != nil {
		return "", false, err
	}
	value, ok := attr(n, name)
	return value, ok, nil
}

// single mirrors Playwright's strict mode: actions need exactly one match.
func (e *element) single() (*html.Node, error) {
	nodes, err := e.resolve()
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%s: %w", e.desc, driver.ErrNotFound)
	case 1:
		return nodes[0], nil
	default:
		return nil, e.strictErr(len(nodes))
	}
}

func (e *element) strictErr(n int) error {
	return fmt.Errorf("strict mode violation: %s resolved to %d elements", e.desc, n)
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
