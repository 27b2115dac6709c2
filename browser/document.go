package browser

import (
	"encoding/json"
	"fmt"

	"tubenav/dom"
)

type document struct {
	s *Session
}

func (d *document) QueryAll(selector string) ([]dom.Element, error) {
	var ids []string
	if err := d.s.eval(queryAllJS(d.s.prefix, selector), &ids); err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	out := make([]dom.Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, &element{d: d, id: id})
	}
	return out, nil
}

func (d *document) Query(selector string) (dom.Element, error) {
	els, err := d.QueryAll(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (d *document) Location() (string, error) {
	return d.s.Location()
}

// Navigate assigns the location from inside the page rather than waiting for
// the load to finish, so the engine is never blocked on a page load.
func (d *document) Navigate(url string) error {
	if err := d.s.eval(fmt.Sprintf(jsNavigate, jsArg(url)), nil); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (d *document) ScrollToTop() error {
	return d.s.eval(jsScrollToTop, nil)
}

type element struct {
	d  *document
	id string
}

// result is the envelope returned by elementScript.
type result struct {
	Detached bool            `json:"detached"`
	Value    json.RawMessage `json:"value"`
}

func (e *element) call(body string, arg any, out any) error {
	var res result
	if err := e.d.s.eval(elementJS(e.d.s.prefix, e.id, body, arg), &res); err != nil {
		return err
	}
	if res.Detached {
		return dom.ErrDetached
	}
	if out == nil || len(res.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return fmt.Errorf("decoding element result: %w", err)
	}
	return nil
}

func (e *element) handle(body string, arg any) (dom.Element, error) {
	var id *string
	if err := e.call(body, arg, &id); err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}
	return &element{d: e.d, id: *id}, nil
}

func (e *element) Key() string {
	return e.id
}

func (e *element) Tag() (string, error) {
	var tag string
	err := e.call(jsTag, nil, &tag)
	return tag, err
}

func (e *element) Attr(name string) (string, bool, error) {
	var a struct {
		OK bool   `json:"ok"`
		V  string `json:"v"`
	}
	if err := e.call(jsAttr, name, &a); err != nil {
		return "", false, err
	}
	return a.V, a.OK, nil
}

func (e *element) SetAttr(name, value string) error {
	return e.call(jsSetAttr, []string{name, value}, nil)
}

func (e *element) RemoveAttr(name string) error {
	return e.call(jsRemoveAttr, name, nil)
}

func (e *element) Style() (string, error) {
	var css string
	err := e.call(jsStyle, nil, &css)
	return css, err
}

func (e *element) SetStyle(css string) error {
	return e.call(jsSetStyle, css, nil)
}

func (e *element) Rect() (dom.Rect, error) {
	var r struct {
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	if err := e.call(jsRect, nil, &r); err != nil {
		return dom.Rect{}, err
	}
	return dom.Rect{Width: r.W, Height: r.H}, nil
}

func (e *element) Parent() (dom.Element, error) {
	return e.handle(jsParent, nil)
}

func (e *element) Query(selector string) (dom.Element, error) {
	return e.handle(jsQuery, selector)
}

func (e *element) Closest(selector string) (dom.Element, error) {
	return e.handle(jsClosest, selector)
}

func (e *element) Href() (string, error) {
	var href string
	err := e.call(jsHref, nil, &href)
	return href, err
}

func (e *element) Click() error {
	var ok bool
	if err := e.call(jsClick, nil, &ok); err != nil {
		return err
	}
	if !ok {
		return dom.ErrUnsupported
	}
	return nil
}

func (e *element) DispatchClick() error {
	return e.call(jsDispatch, nil, nil)
}

func (e *element) ScrollIntoView(block dom.ScrollBlock) error {
	return e.call(jsScrollInto, string(block), nil)
}

func (e *element) Focus() error {
	var ok bool
	if err := e.call(jsFocus, nil, &ok); err != nil {
		return err
	}
	if !ok {
		return dom.ErrUnsupported
	}
	return nil
}
