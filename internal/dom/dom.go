// Package dom defines how the scraper talks to a rendered web page. The page
// is owned by a Session, everything the scraper holds are opaque Node handles
// that stay valid until the next navigation.
package dom

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by FindOne when a locator matches nothing. It is an
// expected outcome and callers are supposed to fall back locally.
var ErrNotFound = errors.New("dom: node not found")

// Node is an opaque handle to an element. A nil Node used as a root means
// the whole document.
type Node any

type Navigator interface {
	NavigateTo(ctx context.Context, url string) error
	CurrentURL() (string, error)
}

type Querier interface {
	// FindOne returns the first node under root matching locator, which is
	// either a CSS selector or an XPath expression (see IsXPath).
	FindOne(root Node, locator string) (Node, error)
	// FindAll returns every node under root matching a CSS selector, in
	// document order.
	FindAll(root Node, selector string) ([]Node, error)
	// ReadValue returns the current value of a form control.
	ReadValue(node Node) (string, error)
	// ReadText returns the visible text of a node.
	ReadText(node Node) (string, error)
	// ReadAttribute returns an attribute and whether it is present at all.
	ReadAttribute(node Node, name string) (string, bool, error)
}

type Interactor interface {
	Click(ctx context.Context, node Node) error
	// Input replaces the value of a text control.
	Input(node Node, text string) error
}

// Session is one live page. It is not safe for concurrent use: there is
// exactly one current page and every navigation replaces it.
type Session interface {
	Navigator
	Querier
	Interactor
	// Close releases the page and whatever process backs it, calling it
	// more than once is a no-op.
	Close() error
}

// IsXPath reports whether a locator should be evaluated as XPath rather than
// as a CSS selector.
func IsXPath(locator string) bool {
	l := strings.TrimSpace(locator)
	return strings.HasPrefix(l, "/") ||
		strings.HasPrefix(l, "./") ||
		strings.HasPrefix(l, "(")
}

// FindOptional is FindOne that turns ErrNotFound into (nil, false, nil).
func FindOptional(q Querier, root Node, locator string) (Node, bool, error) {
	node, err := q.FindOne(root, locator)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}
