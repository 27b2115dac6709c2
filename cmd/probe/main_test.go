package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsStrategies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	page := `<html><body>
<ytd-video-renderer id="v1"><a href="/watch?v=a">a</a></ytd-video-renderer>
<ytd-video-renderer id="v2" hidden><a href="/watch?v=b">b</a></ytd-video-renderer>
</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(&out, path, "https://www.youtube.com/results?search_query=go"))

	text := out.String()
	assert.Contains(t, text, "STRATEGY")
	assert.Contains(t, text, "1 items via containers")
	assert.Contains(t, text, "https://www.youtube.com/watch?v=a")
	assert.NotContains(t, text, "watch?v=b")
}

func TestRunNoItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>nothing</p></body></html>"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(&out, path, "https://www.youtube.com/"))
	assert.Contains(t, out.String(), "no items found")
}

func TestRunMissingFile(t *testing.T) {
	assert.Error(t, run(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.html"), ""))
}
