package agent

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubenav/config"
	"tubenav/dom"
	"tubenav/highlight"
	"tubenav/lifecycle"
	"tubenav/locator"
	"tubenav/nav"
)

func feed(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="contents">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<ytd-rich-item-renderer id="i%d"><a id="video-title-link" href="/watch?v=%d">video %d</a></ytd-rich-item-renderer>`, i, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func newAgent(t *testing.T, rawHTML string) (*Agent, *dom.Snapshot, *lifecycle.ManualClock) {
	t.Helper()
	snap, err := dom.ParseSnapshot(rawHTML, "https://www.youtube.com/")
	require.NoError(t, err)

	clock := lifecycle.NewManualClock()
	opts := DefaultOptions()
	opts.Clock = clock
	a, err := New(snap, opts, logr.Discard())
	require.NoError(t, err)
	a.Start("https://www.youtube.com/")
	t.Cleanup(a.Stop)
	return a, snap, clock
}

// advance moves the clock and waits for the callbacks it posted.
func advance(a *Agent, clock *lifecycle.ManualClock, d time.Duration) {
	a.Sync()
	clock.Advance(d)
	a.Sync()
}

func marked(t *testing.T, a *Agent, snap *dom.Snapshot) string {
	t.Helper()
	var ids []string
	var err error
	require.True(t, a.Run(func() {
		var els []dom.Element
		els, err = snap.QueryAll("[" + highlight.MarkAttr + "]")
		for _, el := range els {
			id, _, _ := el.Attr("id")
			ids = append(ids, id)
		}
	}))
	require.NoError(t, err)
	require.LessOrEqual(t, len(ids), 1)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func TestStartPassHighlightsFirstItem(t *testing.T) {
	a, snap, clock := newAgent(t, feed(12))

	assert.Equal(t, nav.NotReady, a.State().Discovery)
	advance(a, clock, 500*time.Millisecond)

	st := a.State()
	assert.Equal(t, nav.Ready, st.Discovery)
	assert.Len(t, st.Items, 12)
	assert.Equal(t, "i0", marked(t, a, snap))
}

func TestKeysDriveController(t *testing.T) {
	a, snap, _ := newAgent(t, feed(12))

	assert.True(t, a.Key("d"))
	assert.True(t, a.Key("D"))
	assert.True(t, a.Key("s"))
	assert.False(t, a.Key("x"))
	a.Sync()

	i, ok := a.State().Cursor.Index()
	require.True(t, ok)
	assert.Equal(t, 7, i)
	assert.Equal(t, "i7", marked(t, a, snap))
}

func TestActivateKeyNavigates(t *testing.T) {
	a, snap, _ := newAgent(t, feed(4))

	a.Key("enter")
	a.Sync()

	var navs []string
	a.Run(func() { navs = snap.Navigations() })
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=0"}, navs)
}

func TestLocationChangeRediscoversAfterSettle(t *testing.T) {
	a, snap, clock := newAgent(t, feed(12))
	advance(a, clock, time.Second)
	a.Key("s")
	a.Sync()

	var err error
	a.Run(func() {
		err = snap.Reload(strings.NewReader(feed(3)), "https://www.youtube.com/watch?v=5")
	})
	require.NoError(t, err)
	a.LocationChanged("https://www.youtube.com/watch?v=5")
	a.Sync()
	assert.Equal(t, nav.Stale, a.State().Discovery)

	advance(a, clock, time.Second)
	st := a.State()
	assert.Equal(t, nav.Ready, st.Discovery)
	assert.Len(t, st.Items, 3)
	i, _ := st.Cursor.Index()
	assert.Equal(t, 2, i)
}

func TestRefreshPicksUpReloadedContent(t *testing.T) {
	a, snap, clock := newAgent(t, feed(2))
	advance(a, clock, time.Second)

	var err error
	a.Run(func() {
		err = snap.Reload(strings.NewReader(feed(20)), "https://www.youtube.com/")
	})
	require.NoError(t, err)
	a.Refresh()
	advance(a, clock, time.Second)

	assert.Len(t, a.State().Items, 20)
}

func TestStopClearsHighlight(t *testing.T) {
	snap, err := dom.ParseSnapshot(feed(3), "https://www.youtube.com/")
	require.NoError(t, err)
	a, err := New(snap, DefaultOptions(), logr.Discard())
	require.NoError(t, err)
	a.Start("https://www.youtube.com/")
	a.Key("d")
	a.Sync()

	a.Stop()
	<-a.Done()

	els, err := snap.QueryAll("[" + highlight.MarkAttr + "]")
	require.NoError(t, err)
	assert.Empty(t, els)
	assert.False(t, a.Key("x"))
	assert.True(t, a.Key("d"), "bound keys are still reported after stop")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Navigation.RetreatPolicy = "clamp"
	cfg.Lifecycle.SettleDelayMs = 250
	cfg.Keybindings.Home = "h"

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, nav.Clamp, opts.Nav.RetreatPolicy)
	assert.Equal(t, 250*time.Millisecond, opts.Lifecycle.SettleDelay)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, opts.Lifecycle.StartDelays)
	assert.Equal(t, "h", opts.Bindings.Home)
}

func TestNewRejectsBadStrategies(t *testing.T) {
	snap, err := dom.ParseSnapshot(feed(1), "https://www.youtube.com/")
	require.NoError(t, err)

	_, err = New(snap, Options{Strategies: []locator.Strategy{}}, logr.Discard())
	assert.Error(t, err)

	_, err = New(snap, Options{Strategies: []locator.Strategy{{Name: "broken", Selector: "a[href"}}}, logr.Discard())
	assert.Error(t, err)
}

func TestPressReportsWhetherEngineActed(t *testing.T) {
	a, _, _ := newAgent(t, feed(0))

	bound, acted := a.Press("d")
	assert.True(t, bound)
	assert.False(t, acted, "nothing to move over")

	bound, acted = a.Press("x")
	assert.False(t, bound)
	assert.False(t, acted)

	full, _, _ := newAgent(t, feed(4))
	bound, acted = full.Press("d")
	assert.True(t, bound)
	assert.True(t, acted)
}

func TestPressIgnoresDirectionalKeysOnWatchPage(t *testing.T) {
	snap, err := dom.ParseSnapshot(feed(6), "https://www.youtube.com/")
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Clock = lifecycle.NewManualClock()
	opts.Nav.RetreatPolicy = nav.DisableOnWatch
	a, err := New(snap, opts, logr.Discard())
	require.NoError(t, err)
	a.Start("https://www.youtube.com/")
	t.Cleanup(a.Stop)

	assert.True(t, a.IgnoresDirectionalOnWatch())
	assert.Equal(t, []string{"a", "d", "s", "w"}, a.DirectionalKeys())

	_, acted := a.Press("d")
	assert.True(t, acted)

	a.Run(func() { snap.SetLocation("https://www.youtube.com/watch?v=3") })
	_, acted = a.Press("d")
	assert.False(t, acted)
	_, acted = a.Press("r")
	assert.True(t, acted, "home still works on a watch page")
}
