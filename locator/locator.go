// Package locator finds the navigable items on the host page.
//
// Discovery walks a fixed list of strategies from most to least specific and
// takes the first one that yields anything after deduplication and the
// visibility filter. Results are never merged across strategies.
package locator

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/go-logr/logr"

	"tubenav/dom"
)

// Strategy is one query in the fallback chain.
type Strategy struct {
	Name     string
	Selector string
	// Resolve maps a raw match to the element that represents the item.
	// Nil keeps the match as is.
	Resolve func(dom.Element) dom.Element
}

// DefaultStrategies is the chain used against the host page.
var DefaultStrategies = []Strategy{
	{Name: "containers", Selector: Containers},
	{Name: "compact-renderer", Selector: CompactRenderer},
	{Name: "rich-item", Selector: RichItem},
	{Name: "video-renderer", Selector: VideoRenderer},
	{Name: "meta-block", Selector: MetaBlock},
	{Name: "thumbnail-image", Selector: ThumbnailImage, Resolve: LinkingAncestor},
	{Name: "avatar-image", Selector: ChannelAvatarImage, Resolve: LinkingAncestor},
	{Name: "watch-link", Selector: WatchLink},
}

// Result is the outcome of one discovery pass.
type Result struct {
	Items    []dom.Element
	Strategy string // empty when nothing matched
}

// Attempt describes how one strategy fared.
type Attempt struct {
	Strategy string
	Matched  int   // raw query matches
	Kept     int   // after dedup and visibility filter
	Err      error // query failure, strategy skipped
}

// Locator runs the strategy chain.
type Locator struct {
	strategies []Strategy
	log        logr.Logger
}

// New validates every selector and returns a Locator for the chain.
func New(strategies []Strategy, log logr.Logger) (*Locator, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies")
	}
	if err := Validate(strategies); err != nil {
		return nil, err
	}
	return &Locator{strategies: strategies, log: log}, nil
}

// Validate checks that every strategy selector compiles.
func Validate(strategies []Strategy) error {
	for _, s := range strategies {
		if _, err := cascadia.ParseGroup(s.Selector); err != nil {
			return fmt.Errorf("strategy %s: %w", s.Name, err)
		}
	}
	return nil
}

// Locate returns the items of the first strategy that yields at least one.
func (l *Locator) Locate(doc dom.Document) Result {
	for _, s := range l.strategies {
		items, _, err := l.run(doc, s)
		if err != nil {
			l.log.V(2).Info("strategy query failed", "strategy", s.Name, "error", err.Error())
			continue
		}
		if len(items) > 0 {
			return Result{Items: items, Strategy: s.Name}
		}
	}
	return Result{}
}

// Explain runs every strategy and reports each outcome, without short-circuiting.
func (l *Locator) Explain(doc dom.Document) []Attempt {
	attempts := make([]Attempt, 0, len(l.strategies))
	for _, s := range l.strategies {
		items, matched, err := l.run(doc, s)
		attempts = append(attempts, Attempt{
			Strategy: s.Name,
			Matched:  matched,
			Kept:     len(items),
			Err:      err,
		})
	}
	return attempts
}

func (l *Locator) run(doc dom.Document, s Strategy) ([]dom.Element, int, error) {
	raw, err := doc.QueryAll(s.Selector)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) == 0 {
		return nil, 0, nil
	}
	if s.Resolve != nil {
		resolved := make([]dom.Element, 0, len(raw))
		for _, el := range raw {
			resolved = append(resolved, s.Resolve(el))
		}
		raw = resolved
	}
	return Visible(Dedup(raw)), len(raw), nil
}

// Dedup removes repeated handles, keeping the first occurrence.
func Dedup(els []dom.Element) []dom.Element {
	seen := make(map[string]struct{}, len(els))
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		if el == nil {
			continue
		}
		if _, ok := seen[el.Key()]; ok {
			continue
		}
		seen[el.Key()] = struct{}{}
		out = append(out, el)
	}
	return out
}

// Visible keeps elements with a positive rendered box. An element whose
// geometry cannot be read is dropped.
func Visible(els []dom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		r, err := el.Rect()
		if err != nil || !r.Visible() {
			continue
		}
		out = append(out, el)
	}
	return out
}

// LinkingAncestor climbs at most MaxAncestorClimb levels from el looking for an
// anchor or an element carrying an href. It returns el when none is found.
func LinkingAncestor(el dom.Element) dom.Element {
	cur := el
	for i := 0; i < MaxAncestorClimb; i++ {
		parent, err := cur.Parent()
		if err != nil || parent == nil {
			break
		}
		cur = parent
		if isLink(cur) {
			return cur
		}
	}
	return el
}

func isLink(el dom.Element) bool {
	tag, err := el.Tag()
	if err == nil && tag == "a" {
		return true
	}
	href, ok, err := el.Attr("href")
	return err == nil && ok && href != ""
}

// IsWatchURL reports whether u points at a video.
func IsWatchURL(u string) bool {
	return strings.Contains(u, WatchPattern)
}
