package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><body>
<div id="feed">
	<a id="one" href="/watch?v=1"><img src="https://i.ytimg.com/vi/1/hq.jpg"></a>
	<a id="two" href="/watch?v=2" hidden><img src="https://i.ytimg.com/vi/2/hq.jpg"></a>
	<div id="three" style="display: none">x</div>
	<img id="sized" width="0" height="90">
</div>
</body></html>`

func newPage(t *testing.T) *Snapshot {
	t.Helper()
	s, err := ParseSnapshot(page, "https://www.youtube.com/")
	require.NoError(t, err)
	return s
}

func TestSnapshotQueryAllDocumentOrder(t *testing.T) {
	s := newPage(t)

	els, err := s.QueryAll("#two, #one")
	require.NoError(t, err)
	require.Len(t, els, 2)

	v, _, err := els[0].Attr("id")
	require.NoError(t, err)
	assert.Equal(t, "one", v)
}

func TestSnapshotInvalidSelector(t *testing.T) {
	s := newPage(t)

	_, err := s.QueryAll("a[href=")
	assert.Error(t, err)
}

func TestSnapshotGeometry(t *testing.T) {
	s := newPage(t)

	tests := []struct {
		selector string
		visible  bool
	}{
		{"#one", true},
		{"#two", false},
		{"#two img", false},
		{"#three", false},
		{"#sized", false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			el, err := s.Query(tt.selector)
			require.NoError(t, err)
			require.NotNil(t, el)
			r, err := el.Rect()
			require.NoError(t, err)
			assert.Equal(t, tt.visible, r.Visible())
		})
	}
}

func TestSnapshotDetachedElement(t *testing.T) {
	s := newPage(t)

	el, err := s.Query("#one")
	require.NoError(t, err)
	require.NoError(t, s.Remove("#one"))

	_, err = el.Rect()
	assert.ErrorIs(t, err, ErrDetached)
	assert.ErrorIs(t, el.Click(), ErrDetached)
}

func TestSnapshotIdentity(t *testing.T) {
	s := newPage(t)

	a, err := s.Query("#one")
	require.NoError(t, err)
	img, err := s.Query("#one img")
	require.NoError(t, err)
	parent, err := img.Parent()
	require.NoError(t, err)

	assert.Equal(t, a.Key(), parent.Key())
	assert.NotEqual(t, a.Key(), img.Key())
}

func TestSnapshotHrefResolvesAgainstLocation(t *testing.T) {
	s := newPage(t)

	a, err := s.Query("#one")
	require.NoError(t, err)
	href, err := a.Href()
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=1", href)

	img, err := s.Query("#one img")
	require.NoError(t, err)
	href, err = img.Href()
	require.NoError(t, err)
	assert.Empty(t, href)
}

func TestSnapshotClosestIncludesSelf(t *testing.T) {
	s := newPage(t)

	a, err := s.Query("#one")
	require.NoError(t, err)
	got, err := a.Closest("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.Key(), got.Key())

	img, err := s.Query("#one img")
	require.NoError(t, err)
	got, err = img.Closest("section")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotAppendAndEvents(t *testing.T) {
	s := newPage(t)

	require.NoError(t, s.Append("#feed", `<a id="four" href="/watch?v=4">4</a>`))
	el, err := s.Query("#four")
	require.NoError(t, err)
	require.NotNil(t, el)

	require.NoError(t, el.ScrollIntoView(ScrollCenter))
	require.NoError(t, s.Navigate("https://www.youtube.com/watch?v=4"))

	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, Event{Kind: EventScroll, Target: el.Key(), Block: ScrollCenter}, events[0])
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=4"}, s.Navigations())
}

func TestSnapshotSetStyleEmptyRemovesAttribute(t *testing.T) {
	s := newPage(t)

	el, err := s.Query("#one")
	require.NoError(t, err)
	require.NoError(t, el.SetStyle("color: red"))
	require.NoError(t, el.SetStyle(""))

	_, ok, err := el.Attr("style")
	require.NoError(t, err)
	assert.False(t, ok)
}
