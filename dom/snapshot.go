package dom

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Default rendered size for snapshot elements that declare none.
const (
	DefaultWidth  = 320
	DefaultHeight = 180
)

// EventKind identifies a side effect recorded by a Snapshot.
type EventKind string

const (
	EventNavigate      EventKind = "navigate"
	EventClick         EventKind = "click"
	EventDispatchClick EventKind = "dispatch-click"
	EventScroll        EventKind = "scroll"
	EventFocus         EventKind = "focus"
	EventScrollTop     EventKind = "scroll-top"
)

// Event is one recorded side effect. Target is the element key, or the URL for
// navigations.
type Event struct {
	Kind   EventKind
	Target string
	Block  ScrollBlock
}

// Hooks lets callers make snapshot operations fail the way a live page can.
type Hooks struct {
	Click         func(e Element) error
	DispatchClick func(e Element) error
}

// Snapshot is an in-memory Document parsed from static HTML.
//
// Geometry is derived from markup: an element is zero sized when it or an
// ancestor carries the hidden attribute or a display:none style, otherwise its
// width and height attributes are used, falling back to DefaultWidth and
// DefaultHeight.
type Snapshot struct {
	doc      *goquery.Document
	location string
	events   []Event
	matchers map[string]cascadia.Selector

	Hooks Hooks
}

// NewSnapshot parses r as an HTML document located at location.
func NewSnapshot(r io.Reader, location string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &Snapshot{
		doc:      doc,
		location: location,
		matchers: make(map[string]cascadia.Selector),
	}, nil
}

// ParseSnapshot is NewSnapshot for a string.
func ParseSnapshot(rawHTML, location string) (*Snapshot, error) {
	return NewSnapshot(strings.NewReader(rawHTML), location)
}

// Reload replaces the whole document, as a full page load would.
// Handles from the previous document become detached.
func (s *Snapshot) Reload(r io.Reader, location string) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	s.doc = doc
	s.location = location
	return nil
}

// SetLocation changes the URL without touching the tree, like a history push.
func (s *Snapshot) SetLocation(location string) {
	s.location = location
}

// Append adds rawHTML as the last children of every element matching selector.
func (s *Snapshot) Append(selector, rawHTML string) error {
	m, err := s.compile(selector)
	if err != nil {
		return err
	}
	s.doc.FindMatcher(m).AppendHtml(rawHTML)
	return nil
}

// Remove detaches every element matching selector.
func (s *Snapshot) Remove(selector string) error {
	m, err := s.compile(selector)
	if err != nil {
		return err
	}
	s.doc.FindMatcher(m).Remove()
	return nil
}

// Events returns the recorded side effects in order.
func (s *Snapshot) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Navigations returns the URLs passed to Navigate, in order.
func (s *Snapshot) Navigations() []string {
	var urls []string
	for _, ev := range s.events {
		if ev.Kind == EventNavigate {
			urls = append(urls, ev.Target)
		}
	}
	return urls
}

// ResetEvents forgets recorded side effects.
func (s *Snapshot) ResetEvents() {
	s.events = nil
}

// HTML renders the current tree.
func (s *Snapshot) HTML() (string, error) {
	return goquery.OuterHtml(s.doc.Selection)
}

// Element wraps n as a handle owned by s.
func (s *Snapshot) Element(n *html.Node) Element {
	if n == nil {
		return nil
	}
	return &snapshotElement{s: s, n: n}
}

func (s *Snapshot) compile(selector string) (cascadia.Selector, error) {
	if m, ok := s.matchers[selector]; ok {
		return m, nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compiling selector %q: %w", selector, err)
	}
	s.matchers[selector] = m
	return m, nil
}

func (s *Snapshot) record(ev Event) {
	s.events = append(s.events, ev)
}

func (s *Snapshot) wrap(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, s.Element(n))
	}
	return out
}

// QueryAll implements Document.
func (s *Snapshot) QueryAll(selector string) ([]Element, error) {
	m, err := s.compile(selector)
	if err != nil {
		return nil, err
	}
	return s.wrap(s.doc.FindMatcher(m)), nil
}

// Query implements Document.
func (s *Snapshot) Query(selector string) (Element, error) {
	m, err := s.compile(selector)
	if err != nil {
		return nil, err
	}
	sel := s.doc.FindMatcher(m)
	if sel.Length() == 0 {
		return nil, nil
	}
	return s.Element(sel.Nodes[0]), nil
}

// Location implements Document.
func (s *Snapshot) Location() (string, error) {
	return s.location, nil
}

// Navigate implements Document. The tree is left alone; callers that want a new
// page call Reload.
func (s *Snapshot) Navigate(target string) error {
	s.record(Event{Kind: EventNavigate, Target: target})
	s.SetLocation(target)
	return nil
}

// ScrollToTop implements Document.
func (s *Snapshot) ScrollToTop() error {
	s.record(Event{Kind: EventScrollTop})
	return nil
}

type snapshotElement struct {
	s *Snapshot
	n *html.Node
}

func (e *snapshotElement) Key() string {
	return fmt.Sprintf("%p", e.n)
}

// attached reports whether the node is still reachable from the document root.
func (e *snapshotElement) attached() bool {
	root := e.s.doc.Nodes[0]
	for p := e.n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func (e *snapshotElement) check() error {
	if !e.attached() {
		return ErrDetached
	}
	return nil
}

func (e *snapshotElement) selection() *goquery.Selection {
	return e.s.doc.FindNodes(e.n)
}

func (e *snapshotElement) Tag() (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return strings.ToLower(e.n.Data), nil
}

func (e *snapshotElement) Attr(name string) (string, bool, error) {
	if err := e.check(); err != nil {
		return "", false, err
	}
	v, ok := nodeAttr(e.n, name)
	return v, ok, nil
}

func (e *snapshotElement) SetAttr(name, value string) error {
	if err := e.check(); err != nil {
		return err
	}
	for i := range e.n.Attr {
		if e.n.Attr[i].Key == name {
			e.n.Attr[i].Val = value
			return nil
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

func (e *snapshotElement) RemoveAttr(name string) error {
	if err := e.check(); err != nil {
		return err
	}
	attrs := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Key != name {
			attrs = append(attrs, a)
		}
	}
	e.n.Attr = attrs
	return nil
}

func (e *snapshotElement) Style() (string, error) {
	v, _, err := e.Attr("style")
	return v, err
}

func (e *snapshotElement) SetStyle(css string) error {
	if css == "" {
		return e.RemoveAttr("style")
	}
	return e.SetAttr("style", css)
}

func (e *snapshotElement) Rect() (Rect, error) {
	if err := e.check(); err != nil {
		return Rect{}, err
	}
	for p := e.n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := nodeAttr(p, "hidden"); ok {
			return Rect{}, nil
		}
		if style, ok := nodeAttr(p, "style"); ok && hiddenStyle(style) {
			return Rect{}, nil
		}
	}
	return Rect{
		Width:  dimension(e.n, "width", DefaultWidth),
		Height: dimension(e.n, "height", DefaultHeight),
	}, nil
}

func (e *snapshotElement) Parent() (Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, nil
	}
	return e.s.Element(p), nil
}

func (e *snapshotElement) Query(selector string) (Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	m, err := e.s.compile(selector)
	if err != nil {
		return nil, err
	}
	sel := e.selection().FindMatcher(m)
	if sel.Length() == 0 {
		return nil, nil
	}
	return e.s.Element(sel.Nodes[0]), nil
}

func (e *snapshotElement) Closest(selector string) (Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	m, err := e.s.compile(selector)
	if err != nil {
		return nil, err
	}
	sel := e.selection().ClosestMatcher(m)
	if sel.Length() == 0 {
		return nil, nil
	}
	return e.s.Element(sel.Nodes[0]), nil
}

func (e *snapshotElement) Href() (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	tag := strings.ToLower(e.n.Data)
	if tag != "a" && tag != "area" {
		return "", nil
	}
	raw, ok := nodeAttr(e.n, "href")
	if !ok {
		return "", nil
	}
	base, err := url.Parse(e.s.location)
	if err != nil {
		return raw, nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw, nil
	}
	return base.ResolveReference(ref).String(), nil
}

func (e *snapshotElement) Click() error {
	if err := e.check(); err != nil {
		return err
	}
	if e.s.Hooks.Click != nil {
		if err := e.s.Hooks.Click(e); err != nil {
			return err
		}
	}
	e.s.record(Event{Kind: EventClick, Target: e.Key()})
	return nil
}

func (e *snapshotElement) DispatchClick() error {
	if err := e.check(); err != nil {
		return err
	}
	if e.s.Hooks.DispatchClick != nil {
		if err := e.s.Hooks.DispatchClick(e); err != nil {
			return err
		}
	}
	e.s.record(Event{Kind: EventDispatchClick, Target: e.Key()})
	return nil
}

func (e *snapshotElement) ScrollIntoView(block ScrollBlock) error {
	if err := e.check(); err != nil {
		return err
	}
	e.s.record(Event{Kind: EventScroll, Target: e.Key(), Block: block})
	return nil
}

func (e *snapshotElement) Focus() error {
	if err := e.check(); err != nil {
		return err
	}
	e.s.record(Event{Kind: EventFocus, Target: e.Key()})
	return nil
}

func nodeAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hiddenStyle(style string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(compact, "display:none")
}

func dimension(n *html.Node, name string, fallback float64) float64 {
	v, ok := nodeAttr(n, name)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return fallback
	}
	return f
}
