package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tubenav/agent"
	"tubenav/dom"
	"tubenav/locator"
	"tubenav/logging"
)

const replayLocation = "https://www.youtube.com/"

var replayCmd = &cobra.Command{
	Use:   "replay <snapshot.html>",
	Short: "Navigate a saved page from the terminal",
	Long: `Load a saved copy of a page and drive the cursor with the configured keys.
The file is watched; saving it again counts as a page change.
Press q or ctrl-c to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runReplay(ctx context.Context, path string, in io.Reader, out io.Writer) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, log)

	location := replayLocation
	if rootCmd.PersistentFlags().Changed("url") {
		location = cfg.Browser.StartURL
	}

	snap, err := loadSnapshot(path, location)
	if err != nil {
		return err
	}

	a, err := agent.New(snap, agent.OptionsFromConfig(cfg), log)
	if err != nil {
		return err
	}
	a.Start(location)
	defer a.Stop()

	watcher, err := watchSnapshot(ctx, path, func() {
		var reloadErr error
		a.Run(func() {
			reloadErr = reloadSnapshot(snap, path, location)
		})
		if reloadErr != nil {
			log.Error(reloadErr, "reloading snapshot")
			return
		}
		a.Refresh()
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	newline := "\n"
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("setting terminal raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), old)
		newline = "\r\n"
	}

	keys := make(chan string)
	go readKeys(in, keys)

	fmt.Fprintf(out, "keys: %v, q to quit%s", a.Keys(), newline)
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok || key == "q" || key == "ctrl-c" {
				return nil
			}
			bound, acted := a.Press(key)
			if !bound {
				continue
			}
			line := describe(a, key)
			if !acted {
				line += " (ignored)"
			}
			fmt.Fprint(out, line+newline)
		}
	}
}

// readKeys turns raw terminal bytes into key identifiers as a page would
// report them.
func readKeys(in io.Reader, keys chan<- string) {
	defer close(keys)
	r := bufio.NewReader(in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case '\r', '\n':
			keys <- "enter"
		case 3, 4:
			keys <- "ctrl-c"
		case 0x1b:
			skipEscape(r)
		default:
			keys <- string(rune(b))
		}
	}
}

// skipEscape drops the rest of an escape sequence, such as an arrow key's
// ESC [ A, so its final byte is not read as a key. A lone ESC is dropped too.
func skipEscape(r *bufio.Reader) {
	if r.Buffered() == 0 {
		return
	}
	b, err := r.ReadByte()
	if err != nil || (b != '[' && b != 'O') {
		return
	}
	for {
		b, err := r.ReadByte()
		if err != nil || (b >= 0x40 && b <= 0x7e) {
			return
		}
	}
}

func describe(a *agent.Agent, key string) string {
	st := a.State()
	line := fmt.Sprintf("%-6s %s %s/%d", key, st.Discovery, st.Cursor, len(st.Items))
	if st.Strategy != "" {
		line += " via " + st.Strategy
	}
	var href string
	a.Run(func() {
		href = selectedHref(st.Selected())
	})
	if href != "" {
		line += " " + href
	}
	return line
}

// selectedHref returns the watch link of the selected item, if it has one.
func selectedHref(sel dom.Element) string {
	if sel == nil {
		return ""
	}
	link, err := sel.Closest(locator.WatchLink)
	if err == nil && link == nil {
		link, err = sel.Query(locator.WatchLink)
	}
	if err != nil || link == nil {
		return ""
	}
	href, err := link.Href()
	if err != nil {
		return ""
	}
	return href
}

func loadSnapshot(path, location string) (*dom.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	snap, err := dom.NewSnapshot(f, location)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}

func reloadSnapshot(snap *dom.Snapshot, path, location string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return snap.Reload(f, location)
}

// watchSnapshot calls onChange whenever path is written or replaced. The
// directory is watched so editors that save by rename are covered.
func watchSnapshot(ctx context.Context, path string, onChange func()) (*fsnotify.Watcher, error) {
	log := logging.FromContext(ctx).WithName("watch")

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	go watchLoop(watcher, abs, onChange, log)
	return watcher, nil
}

func watchLoop(watcher *fsnotify.Watcher, path string, onChange func(), log logr.Logger) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.V(1).Info("snapshot changed", "path", path, "op", event.Op.String())
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error(err, "watcher error")
		}
	}
}
