// Package nav is the navigation state machine.
//
// A Controller owns the item set, the cursor and the discovery state. Every
// input goes through Handle, which re-runs discovery when needed, moves the
// cursor and re-presents the highlight, all within the same call.
package nav

import (
	"github.com/go-logr/logr"

	"tubenav/cursor"
	"tubenav/dom"
	"tubenav/locator"
)

// RetreatPolicy decides what retreating past the first item does on a watch page.
type RetreatPolicy string

const (
	// FocusPlayer clears the selection and brings the video player into view.
	FocusPlayer RetreatPolicy = "focus-player"
	// Clamp keeps the cursor at the first item.
	Clamp RetreatPolicy = "clamp"
	// DisableOnWatch ignores every directional action on a watch page.
	DisableOnWatch RetreatPolicy = "disable-on-watch"
)

// Options tunes the controller.
type Options struct {
	NearEnd       int    // re-discover when the cursor gets this close to the end
	Stride        int    // items moved by BigAdvance and BigRetreat
	HomeURL       string // target of Home
	RetreatPolicy RetreatPolicy
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		NearEnd:       3,
		Stride:        5,
		HomeURL:       "https://www.youtube.com",
		RetreatPolicy: FocusPlayer,
	}
}

// Locator produces the current item set.
type Locator interface {
	Locate(doc dom.Document) locator.Result
}

// Presenter draws the selection.
type Presenter interface {
	Present(doc dom.Document, items []dom.Element, c cursor.Cursor)
	Clear(doc dom.Document)
}

// Controller interprets actions against one document.
// It is not safe for concurrent use; callers serialize access (see lifecycle.Loop).
type Controller struct {
	doc       dom.Document
	locator   Locator
	presenter Presenter
	opts      Options
	log       logr.Logger

	state State
}

// New returns a controller in the NotReady state.
func New(doc dom.Document, loc Locator, pres Presenter, opts Options, log logr.Logger) *Controller {
	def := DefaultOptions()
	if opts.NearEnd <= 0 {
		opts.NearEnd = def.NearEnd
	}
	if opts.Stride <= 0 {
		opts.Stride = def.Stride
	}
	if opts.HomeURL == "" {
		opts.HomeURL = def.HomeURL
	}
	if opts.RetreatPolicy == "" {
		opts.RetreatPolicy = def.RetreatPolicy
	}
	return &Controller{
		doc:       doc,
		locator:   loc,
		presenter: pres,
		opts:      opts,
		log:       log,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Items = append([]dom.Element(nil), c.state.Items...)
	return s
}

// Invalidate marks the current items as stale. Items and cursor are kept until
// the next discovery pass replaces them.
func (c *Controller) Invalidate() {
	c.state.Discovery = Stale
}

// Discover runs one discovery pass: locate, reconcile the cursor against the
// previous set, and re-present.
func (c *Controller) Discover() State {
	prevCount := len(c.state.Items)
	prev := c.state.Cursor

	res := c.locator.Locate(c.doc)
	c.state.Items = res.Items
	c.state.Strategy = res.Strategy
	c.state.Cursor = cursor.Reconcile(prev, prevCount, len(res.Items))

	if len(res.Items) == 0 {
		if c.state.Discovery != Stale {
			c.state.Discovery = NotReady
		}
	} else {
		c.state.Discovery = Ready
	}
	c.presenter.Present(c.doc, c.state.Items, c.state.Cursor)

	c.log.V(1).Info("discovery pass",
		"strategy", res.Strategy,
		"items", len(res.Items),
		"previous", prevCount,
		"cursor", c.state.Cursor.String(),
		"state", c.state.Discovery.String())
	return c.State()
}

// Handle applies one action and reports whether it was acted on.
// Nothing is done until a discovery pass has produced items.
func (c *Controller) Handle(a Action) bool {
	if a.directional() && c.opts.RetreatPolicy == DisableOnWatch && c.onWatchPage() {
		c.log.V(1).Info("ignoring action on watch page", "action", a.String())
		return false
	}
	if c.state.Discovery != Ready {
		c.Discover()
	}
	if c.state.Discovery != Ready || len(c.state.Items) == 0 {
		c.log.V(1).Info("dropping action, no items", "action", a.String())
		return false
	}

	var acted bool
	switch a {
	case Advance:
		acted = c.advance()
	case Retreat:
		acted = c.retreat()
	case BigAdvance:
		acted = c.bigAdvance()
	case BigRetreat:
		acted = c.bigRetreat()
	case Activate:
		acted = c.activate()
	case Home:
		acted = c.home()
	default:
		return false
	}
	c.log.V(1).Info("action", "action", a.String(), "cursor", c.state.Cursor.String(), "items", len(c.state.Items))
	return acted
}

func (c *Controller) index() int {
	i, ok := c.state.Cursor.Index()
	if !ok {
		return 0
	}
	return i
}

func (c *Controller) nearEnd(i int) bool {
	return i >= len(c.state.Items)-c.opts.NearEnd
}

func (c *Controller) present() {
	c.presenter.Present(c.doc, c.state.Items, c.state.Cursor)
}

func (c *Controller) advance() bool {
	if c.nearEnd(c.index()) {
		// Discovery reconciles the cursor against the possibly grown set, so
		// stepping from the reconciled index covers both the grown and the
		// unchanged case.
		c.Discover()
	}
	c.state.Cursor = c.state.Cursor.Move(1, len(c.state.Items))
	c.present()
	return true
}

func (c *Controller) retreat() bool {
	if c.index() == 0 && c.redirectRetreat() {
		c.focusPlayer()
		return true
	}
	c.state.Cursor = c.state.Cursor.Move(-1, len(c.state.Items))
	c.present()
	return true
}

func (c *Controller) bigAdvance() bool {
	from := c.index()
	c.state.Cursor = cursor.At(from).Move(c.opts.Stride, len(c.state.Items))
	if to, _ := c.state.Cursor.Index(); c.nearEnd(to) {
		c.Discover()
		c.state.Cursor = cursor.At(from).Move(c.opts.Stride, len(c.state.Items))
	}
	c.present()
	return true
}

func (c *Controller) bigRetreat() bool {
	to := cursor.At(c.index()).Move(-c.opts.Stride, len(c.state.Items))
	if i, _ := to.Index(); i == 0 && c.redirectRetreat() {
		c.focusPlayer()
		return true
	}
	c.state.Cursor = to
	c.present()
	return true
}

func (c *Controller) home() bool {
	if err := c.doc.Navigate(c.opts.HomeURL); err != nil {
		c.log.V(2).Info("navigating home", "error", err.Error())
	}
	return true
}

// redirectRetreat reports whether retreating onto the first item should hand
// focus to the player instead.
func (c *Controller) redirectRetreat() bool {
	return c.opts.RetreatPolicy == FocusPlayer && c.onWatchPage()
}

func (c *Controller) onWatchPage() bool {
	loc, err := c.doc.Location()
	return err == nil && locator.IsWatchURL(loc)
}
