package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubenav/agent"
	"tubenav/dom"
	"tubenav/highlight"
	"tubenav/locator"
	"tubenav/nav"
)

func feedHTML(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="contents">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<ytd-rich-item-renderer id="i%d"><a id="video-title-link" href="/watch?v=%d">video %d</a></ytd-rich-item-renderer>`, i, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestReadKeys(t *testing.T) {
	keys := make(chan string, 8)
	readKeys(strings.NewReader("dA\r\n\x03"), keys)

	var got []string
	for k := range keys {
		got = append(got, k)
	}
	assert.Equal(t, []string{"d", "A", "enter", "enter", "ctrl-c"}, got)
}

func TestReadKeysDropsEscapeSequences(t *testing.T) {
	keys := make(chan string, 8)
	// Up, Left, ctrl-Right, SS3 Down, then a real key.
	readKeys(strings.NewReader("\x1b[A\x1b[D\x1b[1;5C\x1bOBd"), keys)

	var got []string
	for k := range keys {
		got = append(got, k)
	}
	assert.Equal(t, []string{"d"}, got)
}

func TestKeyHookFollowsRetreatPolicy(t *testing.T) {
	snap, err := dom.ParseSnapshot(feedHTML(1), replayLocation)
	require.NoError(t, err)

	a, err := agent.New(snap, agent.DefaultOptions(), logr.Discard())
	require.NoError(t, err)
	hook := keyHook(a)
	assert.Equal(t, []string{"a", "d", "enter", "r", "s", "w"}, hook.Keys)
	assert.Equal(t, "enter", hook.ActivateKey)
	assert.Equal(t, highlight.MarkAttr, hook.MarkAttr)
	assert.Equal(t, []string{"a", "d", "s", "w"}, hook.DirectionalKeys)
	assert.Empty(t, hook.WatchPattern)

	opts := agent.DefaultOptions()
	opts.Nav.RetreatPolicy = nav.DisableOnWatch
	a, err = agent.New(snap, opts, logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, locator.WatchPattern, keyHook(a).WatchPattern)
}

func TestSelectedHref(t *testing.T) {
	snap, err := dom.ParseSnapshot(feedHTML(2)+`<p id="plain">x</p>`, replayLocation)
	require.NoError(t, err)

	item, err := snap.Query("#i1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=1", selectedHref(item))

	link, err := snap.Query("#i0 a")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=0", selectedHref(link))

	plain, err := snap.Query("#plain")
	require.NoError(t, err)
	assert.Empty(t, selectedHref(plain))
	assert.Empty(t, selectedHref(nil))
}

func TestReplayDrivesCursorFromInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.html")
	require.NoError(t, os.WriteFile(path, []byte(feedHTML(12)), 0o644))
	configFile = filepath.Join(dir, "missing.toml")
	t.Cleanup(func() { configFile = "" })

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runReplay(ctx, path, strings.NewReader("ddsxq"), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, out.String())
	assert.Contains(t, lines[0], "q to quit")
	assert.Contains(t, lines[1], "ready 1/12")
	assert.Contains(t, lines[1], "watch?v=1")
	assert.Contains(t, lines[2], "ready 2/12")
	assert.Contains(t, lines[3], "ready 7/12")
	assert.NotContains(t, out.String(), "ignored")
}

func TestReplayMarksIgnoredKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.html")
	require.NoError(t, os.WriteFile(path, []byte(feedHTML(0)), 0o644))
	configFile = filepath.Join(dir, "missing.toml")
	t.Cleanup(func() { configFile = "" })

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runReplay(ctx, path, strings.NewReader("dq"), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, out.String())
	assert.Contains(t, lines[1], "not-ready none/0")
	assert.True(t, strings.HasSuffix(lines[1], "(ignored)"), lines[1])
}

func TestReplayMissingFile(t *testing.T) {
	configFile = filepath.Join(t.TempDir(), "missing.toml")
	t.Cleanup(func() { configFile = "" })

	err := runReplay(context.Background(), filepath.Join(t.TempDir(), "nope.html"), strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestWatchSnapshotReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.html")
	require.NoError(t, os.WriteFile(path, []byte(feedHTML(1)), 0o644))

	changed := make(chan struct{}, 4)
	watcher, err := watchSnapshot(context.Background(), path, func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(feedHTML(3)), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
