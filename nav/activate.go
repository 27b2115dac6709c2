package nav

import (
	"errors"
	"fmt"

	"tubenav/dom"
	"tubenav/locator"
)

// lookup finds a candidate activation target relative to the selected item.
type lookup struct {
	selector string
	closest  bool // match the item or an ancestor instead of a descendant
}

// activationTargets are tried in order; specific links first, generic
// containers last. The item itself is the final fallback.
var activationTargets = []lookup{
	{selector: locator.WatchLink},
	{selector: `a#video-title-link`},
	{selector: `a.ytd-video-renderer, a.ytd-compact-video-renderer`},
	{selector: locator.WatchLink, closest: true},
	{selector: `a`, closest: true},
	{selector: `#thumbnail`},
	{selector: `ytd-thumbnail`},
	{selector: `img`},
	{selector: `#video-title`},
	{selector: `.ytd-video-meta-block`},
}

var errNoTarget = errors.New("no activation target succeeded")

func (c *Controller) activate() bool {
	item := c.state.Selected()
	if item == nil {
		return false
	}
	if err := c.open(item); err != nil {
		c.log.V(2).Info("activation failed", "cursor", c.state.Cursor.String(), "error", err.Error())
	}
	return true
}

// open resolves item to a target and activates it, moving on to the next
// candidate whenever a lookup or every activation method fails.
func (c *Controller) open(item dom.Element) error {
	for _, t := range c.targets(item) {
		if err := c.trigger(t); err != nil {
			c.log.V(2).Info("activation target failed", "target", t.Key(), "error", err.Error())
			continue
		}
		return nil
	}
	return errNoTarget
}

func (c *Controller) targets(item dom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(activationTargets)+1)
	for _, l := range activationTargets {
		var (
			el  dom.Element
			err error
		)
		if l.closest {
			el, err = item.Closest(l.selector)
		} else {
			el, err = item.Query(l.selector)
		}
		if err != nil || el == nil {
			continue
		}
		out = append(out, el)
	}
	return append(out, item)
}

// trigger tries direct navigation, then a native click, then a dispatched
// click event.
func (c *Controller) trigger(target dom.Element) error {
	href, err := target.Href()
	if err == nil && locator.IsWatchURL(href) {
		if err := c.doc.Navigate(href); err == nil {
			return nil
		}
	}
	clickErr := target.Click()
	if clickErr == nil {
		return nil
	}
	if err := target.DispatchClick(); err != nil {
		return fmt.Errorf("click: %v; dispatch: %w", clickErr, err)
	}
	return nil
}
