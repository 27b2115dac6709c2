package browser

import (
	"encoding/json"
	"fmt"
)

// IDAttr tags every element handed out to the engine so later calls can find it.
const IDAttr = "data-kbnav-id"

// bindingName is the page-visible function that forwards keys to Go.
const bindingName = "__kbnavKey"

// tagPrelude defines tag(el), which gives el a stable handle id and returns it.
// Ids are the session prefix, a per-document nonce and a page-wide counter, so a
// handle from a previous document never resolves in the next one.
const tagPrelude = `
const tag = (el) => {
	if (!el.hasAttribute(%[1]q)) {
		if (!window.__kbnavDoc) {
			window.__kbnavDoc = Date.now().toString(36) + Math.random().toString(36).slice(2, 10);
		}
		window.__kbnavSeq = (window.__kbnavSeq || 0) + 1;
		el.setAttribute(%[1]q, %[2]s + '-' + window.__kbnavDoc + '-' + window.__kbnavSeq);
	}
	return el.getAttribute(%[1]q);
};
`

// queryAllScript returns the handle ids of every match, in document order.
const queryAllScript = `(function(sel) {
%s
	return Array.from(document.querySelectorAll(sel), tag);
})(%s)`

// elementScript runs body with el bound to the element for id and arg to the
// decoded argument. A missing or disconnected element reports detached.
const elementScript = `(function(id, arg) {
%s
	const el = document.querySelector('[%s="' + id + '"]');
	if (!el || !el.isConnected) {
		return {detached: true};
	}
	return {value: (%s)};
})(%s, %s)`

// Element operation bodies.
const (
	jsTag         = `el.tagName.toLowerCase()`
	jsAttr        = `el.hasAttribute(arg) ? {ok: true, v: el.getAttribute(arg)} : {ok: false}`
	jsSetAttr     = `(el.setAttribute(arg[0], arg[1]), true)`
	jsRemoveAttr  = `(el.removeAttribute(arg), true)`
	jsStyle       = `el.style ? el.style.cssText : ''`
	jsSetStyle    = `(el.style.cssText = arg, true)`
	jsRect        = `((r) => ({w: r.width, h: r.height}))(el.getBoundingClientRect())`
	jsParent      = `el.parentElement ? tag(el.parentElement) : null`
	jsQuery       = `((x) => x ? tag(x) : null)(el.querySelector(arg))`
	jsClosest     = `((x) => x ? tag(x) : null)(el.closest(arg))`
	jsHref        = `typeof el.href === 'string' ? el.href : ''`
	jsClick       = `typeof el.click === 'function' ? (el.click(), true) : false`
	jsDispatch    = `el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window})) || true`
	jsScrollInto  = `(el.scrollIntoView({behavior: 'smooth', block: arg, inline: 'nearest'}), true)`
	jsFocus       = `typeof el.focus === 'function' ? (el.focus(), true) : false`
	jsScrollToTop = `window.scrollTo({top: 0, behavior: 'smooth'})`
	jsNavigate    = `window.location.assign(%s)`
)

// KeyHook says which keys the page forwards and when it keeps them from the page.
type KeyHook struct {
	Keys        []string // every bound key
	ActivateKey string   // forwarded only while an element carries MarkAttr
	MarkAttr    string

	// DirectionalKeys are left to the page on URLs containing WatchPattern.
	// An empty WatchPattern forwards them everywhere.
	DirectionalKeys []string
	WatchPattern    string
}

// keyHookScript forwards bound keys to the Go side. Keys are ignored while an
// editable field has focus or a modifier is held. The page keeps a key unless
// the engine can act on it: the activation key needs a highlighted item, the
// others need elements the engine has already tagged in this document.
const keyHookScript = `(function(hook) {
	if (window.__kbnavHooked) {
		return;
	}
	window.__kbnavHooked = true;
	const present = (attr) => document.querySelector('[' + attr + ']') !== null;
	document.addEventListener('keydown', (e) => {
		if (e.ctrlKey || e.metaKey || e.altKey) {
			return;
		}
		const t = e.target;
		if (t && (t.isContentEditable || /^(input|textarea|select)$/i.test(t.tagName || ''))) {
			return;
		}
		const key = (e.key || '').toLowerCase();
		if (!hook.keys.includes(key)) {
			return;
		}
		if (hook.watchPattern && hook.directionalKeys.includes(key) && location.href.includes(hook.watchPattern)) {
			return;
		}
		if (key === hook.activateKey && !present(hook.markAttr)) {
			return;
		}
		if (key === hook.activateKey || present(hook.idAttr)) {
			e.preventDefault();
			e.stopPropagation();
		}
		if (typeof window[%[1]q] === 'function') {
			window[%[1]q](key);
		}
	}, true);
})(%[2]s)`

func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func prelude(prefix string) string {
	return fmt.Sprintf(tagPrelude, IDAttr, jsArg(prefix))
}

func queryAllJS(prefix, selector string) string {
	return fmt.Sprintf(queryAllScript, prelude(prefix), jsArg(selector))
}

func elementJS(prefix, id, body string, arg any) string {
	return fmt.Sprintf(elementScript, prelude(prefix), IDAttr, body, jsArg(id), jsArg(arg))
}

type keyHookArg struct {
	Keys            []string `json:"keys"`
	ActivateKey     string   `json:"activateKey"`
	MarkAttr        string   `json:"markAttr"`
	IDAttr          string   `json:"idAttr"`
	DirectionalKeys []string `json:"directionalKeys"`
	WatchPattern    string   `json:"watchPattern"`
}

func keyHookJS(h KeyHook) string {
	arg := keyHookArg{
		Keys:            h.Keys,
		ActivateKey:     h.ActivateKey,
		MarkAttr:        h.MarkAttr,
		IDAttr:          IDAttr,
		DirectionalKeys: h.DirectionalKeys,
		WatchPattern:    h.WatchPattern,
	}
	if arg.Keys == nil {
		arg.Keys = []string{}
	}
	if arg.DirectionalKeys == nil {
		arg.DirectionalKeys = []string{}
	}
	return fmt.Sprintf(keyHookScript, bindingName, jsArg(arg))
}
