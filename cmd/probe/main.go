// Probe runs the item locator against a saved page or URL and reports how
// each strategy fared.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-logr/logr"

	"tubenav/dom"
	"tubenav/locator"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: probe <file.html | url> [location]")
		os.Exit(2)
	}
	src := os.Args[1]
	location := "https://www.youtube.com/"
	if len(os.Args) > 2 {
		location = os.Args[2]
	}

	if err := run(os.Stdout, src, location); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, src, location string) error {
	body, err := open(src)
	if err != nil {
		return err
	}
	defer body.Close()

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		location = src
	}
	snap, err := dom.NewSnapshot(body, location)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", src, err)
	}

	loc, err := locator.New(locator.DefaultStrategies, logr.Discard())
	if err != nil {
		return err
	}
	report(w, loc, snap)
	return nil
}

func open(src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}
	req, err := http.NewRequest("GET", src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}

func report(w io.Writer, loc *locator.Locator, doc dom.Document) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tMATCHED\tKEPT\tERROR")
	for _, a := range loc.Explain(doc) {
		errText := ""
		if a.Err != nil {
			errText = a.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", a.Strategy, a.Matched, a.Kept, errText)
	}
	tw.Flush()

	res := loc.Locate(doc)
	if res.Strategy == "" {
		fmt.Fprintln(w, "\nno items found")
		return
	}
	fmt.Fprintf(w, "\n%d items via %s\n", len(res.Items), res.Strategy)
	for i, item := range res.Items {
		tag, _ := item.Tag()
		fmt.Fprintf(w, "%3d  <%s>", i, tag)
		if link, err := item.Closest(locator.WatchLink); err == nil && link != nil {
			item = link
		} else if link, err := item.Query(locator.WatchLink); err == nil && link != nil {
			item = link
		}
		if href, err := item.Href(); err == nil && href != "" {
			fmt.Fprintf(w, "  %s", href)
		}
		fmt.Fprintln(w)
	}
}
