// Package highlight marks the selected item on the host page.
//
// At most one element carries the mark. The element's inline style is saved
// before the highlight is applied and restored when the mark is cleared.
package highlight

import (
	"strings"

	"github.com/go-logr/logr"

	"tubenav/cursor"
	"tubenav/dom"
)

const (
	MarkAttr  = "data-kbnav-highlight"
	SavedAttr = "data-kbnav-original-style"

	markSelector = "[" + MarkAttr + "]"
)

// Style is appended to the item's own inline style.
const Style = `border: 8px solid #00FF00 !important; ` +
	`box-shadow: 0 0 30px #00FF00 !important; ` +
	`outline: 4px solid #00FF00 !important; ` +
	`outline-offset: 4px !important; ` +
	`transform: scale(1.05) !important; ` +
	`z-index: 9999 !important; ` +
	`position: relative !important; ` +
	`background-color: rgba(0, 255, 0, 0.1) !important;`

// Presenter applies the highlight for a cursor position.
type Presenter struct {
	log logr.Logger
}

// New returns a Presenter.
func New(log logr.Logger) *Presenter {
	return &Presenter{log: log}
}

// Present clears every existing mark, then highlights items[c] and scrolls it
// to the center of the viewport. With an out of range cursor it only clears.
func (p *Presenter) Present(doc dom.Document, items []dom.Element, c cursor.Cursor) {
	p.Clear(doc)

	i, ok := c.Index()
	if !ok || i >= len(items) {
		return
	}
	target := items[i]

	original, err := target.Style()
	if err != nil {
		p.log.V(2).Info("reading item style", "index", i, "error", err.Error())
		return
	}
	if err := target.SetAttr(SavedAttr, original); err != nil {
		p.log.V(2).Info("saving item style", "index", i, "error", err.Error())
		return
	}
	if err := target.SetAttr(MarkAttr, "true"); err != nil {
		p.log.V(2).Info("marking item", "index", i, "error", err.Error())
		// Clear only finds marked elements.
		if err := target.RemoveAttr(SavedAttr); err != nil {
			p.log.V(2).Info("dropping saved style", "index", i, "error", err.Error())
		}
		return
	}
	if err := target.SetStyle(join(original, Style)); err != nil {
		p.log.V(2).Info("styling item", "index", i, "error", err.Error())
	}
	if err := target.ScrollIntoView(dom.ScrollCenter); err != nil {
		p.log.V(2).Info("scrolling item into view", "index", i, "error", err.Error())
	}
}

// Clear removes every mark in the document, wherever it was left, restoring the
// saved style of each marked element.
func (p *Presenter) Clear(doc dom.Document) {
	marked, err := doc.QueryAll(markSelector)
	if err != nil {
		p.log.V(2).Info("finding highlighted items", "error", err.Error())
		return
	}
	for _, el := range marked {
		restore(el, p.log)
	}
}

func restore(el dom.Element, log logr.Logger) {
	saved, _, err := el.Attr(SavedAttr)
	if err != nil {
		log.V(2).Info("reading saved style", "error", err.Error())
		return
	}
	if err := el.RemoveAttr(MarkAttr); err != nil {
		log.V(2).Info("unmarking item", "error", err.Error())
	}
	if err := el.SetStyle(saved); err != nil {
		log.V(2).Info("restoring item style", "error", err.Error())
	}
	if err := el.RemoveAttr(SavedAttr); err != nil {
		log.V(2).Info("dropping saved style", "error", err.Error())
	}
}

func join(original, extra string) string {
	original = strings.TrimRight(strings.TrimSpace(original), ";")
	if original == "" {
		return extra
	}
	return original + "; " + extra
}
