// Package dom defines the boundary between the navigation engine and the host page.
//
// The host page is owned by someone else and changes underneath us. Everything the
// engine needs from it goes through Document and Element, which lets the same
// engine run against a live Chrome tab (package browser) or an in-memory
// Snapshot.
package dom

import "errors"

var (
	// ErrDetached is returned when an element is no longer part of the live document.
	ErrDetached = errors.New("element detached from document")

	// ErrUnsupported is returned when the host cannot perform an operation on an element.
	ErrUnsupported = errors.New("operation not supported")
)

// Rect is the rendered size of an element at the current layout.
type Rect struct {
	Width  float64
	Height float64
}

// Visible reports whether the box has a positive area.
func (r Rect) Visible() bool {
	return r.Width > 0 && r.Height > 0
}

// ScrollBlock is the vertical alignment used when scrolling an element into view.
type ScrollBlock string

const (
	ScrollCenter ScrollBlock = "center"
	ScrollStart  ScrollBlock = "start"
)

// Element is a handle to a node in the host document.
// Handles compare by Key: two handles with the same key refer to the same node.
type Element interface {
	Key() string
	Tag() (string, error) // lower case
	Attr(name string) (value string, ok bool, err error)
	SetAttr(name, value string) error
	RemoveAttr(name string) error
	Style() (string, error)
	SetStyle(css string) error
	Rect() (Rect, error)

	// Parent returns nil, nil at the top of the tree.
	Parent() (Element, error)
	// Query returns the first matching descendant, or nil, nil.
	Query(selector string) (Element, error)
	// Closest returns the element itself or its nearest matching ancestor, or nil, nil.
	Closest(selector string) (Element, error)

	// Href returns the resolved link destination, or "" when the element has none.
	Href() (string, error)
	Click() error
	DispatchClick() error
	ScrollIntoView(block ScrollBlock) error
	Focus() error
}

// Document is the host page as seen by the engine.
type Document interface {
	// QueryAll returns matching elements in document order.
	QueryAll(selector string) ([]Element, error)
	// Query returns the first match, or nil, nil.
	Query(selector string) (Element, error)
	Location() (string, error)
	Navigate(url string) error
	ScrollToTop() error
}
