// Package browser attaches the navigation engine to a live Chrome tab.
//
// Chrome is driven over the DevTools protocol with chromedp. Page elements are
// reached through small scripts evaluated in the page; each element the engine
// sees is tagged with a per-session id so it can be found again on later calls.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"tubenav/dom"
)

// Options configures the Chrome session.
type Options struct {
	ChromePath string // empty = auto-detect
	UserAgent  string // empty = Chrome's own
	Headless   bool
	// UserDataDir keeps cookies and sign-in between runs. Empty uses the
	// default profile directory under the user cache dir.
	UserDataDir string
	// OpTimeout bounds every page call made on behalf of the engine.
	OpTimeout time.Duration
	// LoadTimeout bounds the initial navigation.
	LoadTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		OpTimeout:   2 * time.Second,
		LoadTimeout: 45 * time.Second,
	}
}

// userDataDir returns a persistent directory for Chrome user data.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "tubenav-chrome-profile")
}

// Session is one Chrome tab under our control.
type Session struct {
	opts   Options
	log    logr.Logger
	prefix string

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Launch starts Chrome and opens a blank tab.
func Launch(ctx context.Context, opts Options, log logr.Logger) (*Session, error) {
	def := DefaultOptions()
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = def.OpTimeout
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = def.LoadTimeout
	}
	if opts.UserDataDir == "" {
		opts.UserDataDir = userDataDir()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-service-autorun", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.WindowSize(1440, 960),
		chromedp.UserDataDir(opts.UserDataDir),
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			log.V(2).Info("chromedp", "error", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &Session{
		opts:        opts,
		log:         log,
		prefix:      uuid.NewString(),
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      cancel,
	}, nil
}

// Close shuts Chrome down.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// Done is closed when the tab or the browser goes away.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Document returns the engine's view of the tab.
func (s *Session) Document() dom.Document {
	return &document{s: s}
}

// InstallKeyHook makes the page forward presses of hook's keys to onKey. The
// hook survives navigations. onKey runs on a chromedp event goroutine and must
// not call back into the session synchronously.
func (s *Session) InstallKeyHook(hook KeyHook, onKey func(key string)) error {
	chromedp.ListenTarget(s.ctx, func(ev any) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == bindingName {
			onKey(e.Payload)
		}
	})

	script := keyHookJS(hook)
	err := chromedp.Run(s.ctx,
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		// Hook the document that is already loaded, too.
		chromedp.Evaluate(script, nil),
	)
	if err != nil {
		return fmt.Errorf("installing key hook: %w", err)
	}
	return nil
}

// OnNavigate calls f with the new URL whenever the main frame navigates,
// including same-document history changes made by the page's own router.
// f runs on a chromedp event goroutine.
func (s *Session) OnNavigate(f func(url string)) {
	c := chromedp.FromContext(s.ctx)
	var mainFrame cdp.FrameID
	if c != nil && c.Target != nil {
		mainFrame = cdp.FrameID(c.Target.TargetID)
	}
	chromedp.ListenTarget(s.ctx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventNavigatedWithinDocument:
			if mainFrame == "" || e.FrameID == mainFrame {
				f(e.URL)
			}
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				f(e.Frame.URL)
			}
		}
	})
}

// Open navigates to url and waits for the body to exist.
func (s *Session) Open(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.LoadTimeout)
	defer cancel()
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	return nil
}

// Location returns the tab's current URL.
func (s *Session) Location() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.OpTimeout)
	defer cancel()
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

// eval evaluates expr in the page and decodes the result into res (nil to discard).
func (s *Session) eval(expr string, res any) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.OpTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(expr, res))
}
