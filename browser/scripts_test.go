package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSArgQuotes(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsArg(`a"b`))
	assert.Equal(t, `["x","y"]`, jsArg([]string{"x", "y"}))
	assert.Equal(t, "null", jsArg(nil))
	assert.Equal(t, "null", jsArg(func() {}))
}

func TestQueryAllJS(t *testing.T) {
	js := queryAllJS("sess", `a[href*="/watch?v="]`)

	assert.Contains(t, js, `document.querySelectorAll(sel)`)
	assert.Contains(t, js, `"data-kbnav-id"`)
	assert.Contains(t, js, `"sess" + '-'`)
	assert.True(t, strings.HasSuffix(js, `("a[href*=\"/watch?v=\"]")`), js)
}

func TestElementJS(t *testing.T) {
	js := elementJS("sess", "sess-4", jsSetAttr, []string{"data-x", "1"})

	assert.Contains(t, js, `'[data-kbnav-id="' + id + '"]'`)
	assert.Contains(t, js, `return {detached: true};`)
	assert.Contains(t, js, `return {value: ((el.setAttribute(arg[0], arg[1]), true))};`)
	assert.True(t, strings.HasSuffix(js, `("sess-4", ["data-x","1"])`), js)
}

func TestQueryAllJSTagsWithDocumentNonce(t *testing.T) {
	js := queryAllJS("sess", "a")

	assert.Contains(t, js, `if (!window.__kbnavDoc) {`)
	assert.Contains(t, js, `"sess" + '-' + window.__kbnavDoc + '-' + window.__kbnavSeq`)
}

func TestKeyHookJS(t *testing.T) {
	js := keyHookJS(KeyHook{
		Keys:            []string{"a", "d", "enter"},
		ActivateKey:     "enter",
		MarkAttr:        "data-kbnav-highlight",
		DirectionalKeys: []string{"a", "d"},
		WatchPattern:    "/watch?v=",
	})

	assert.Contains(t, js, `window["__kbnavKey"](key)`)
	assert.Contains(t, js, `e.ctrlKey || e.metaKey || e.altKey`)
	assert.Contains(t, js, `isContentEditable`)
	assert.Contains(t, js, `location.href.includes(hook.watchPattern)`)
	assert.True(t, strings.HasSuffix(js, `({"keys":["a","d","enter"],"activateKey":"enter","markAttr":"data-kbnav-highlight",`+
		`"idAttr":"data-kbnav-id","directionalKeys":["a","d"],"watchPattern":"/watch?v="})`), js)
	assert.NotContains(t, js, "%!")
}

func TestKeyHookSuppressesOnlyWhenEngineCanAct(t *testing.T) {
	js := keyHookJS(KeyHook{Keys: []string{"d"}})

	gate := strings.Index(js, `if (key === hook.activateKey || present(hook.idAttr)) {`)
	prevent := strings.Index(js, `e.preventDefault();`)
	forward := strings.Index(js, `window["__kbnavKey"](key)`)
	require.NotEqual(t, -1, gate)
	assert.Less(t, gate, prevent, "preventDefault is gated")
	assert.Less(t, prevent, forward)
	assert.Equal(t, 1, strings.Count(js, `e.preventDefault();`))
}

func TestNilKeysStillValidJS(t *testing.T) {
	js := keyHookJS(KeyHook{MarkAttr: "m"})
	assert.Contains(t, js, `"keys":[]`)
	assert.Contains(t, js, `"directionalKeys":[]`)
	assert.Contains(t, js, `"watchPattern":""`)
}
