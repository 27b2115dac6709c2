// tubenav drives a keyboard selection cursor over the video entries of a
// YouTube tab.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"tubenav/agent"
	"tubenav/browser"
	"tubenav/config"
	"tubenav/highlight"
	"tubenav/locator"
	"tubenav/logging"
)

var (
	configFile string
	chromePath string
	headless   bool
	startURL   string
	verbosity  int
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "tubenav",
	Short: "Keyboard navigation for YouTube video lists",
	Long: `tubenav opens YouTube in Chrome and lets you move a highlight over the
video entries with the keyboard.

Default keys: d/a next/previous, s/w jump five, enter open, r home.
Keys are ignored while a text field has focus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch Chrome and navigate it from the keyboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd.Context())
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Print the default configuration",
	Long:  "Print the default configuration. Redirect to ~/.config/tubenav/config.toml to customize.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), config.DefaultTOML())
	},
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runLive(cmd.Context())
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ~/.config/tubenav/config.toml)")
	pf.StringVar(&chromePath, "chrome", "", "path to Chrome/Chromium (default auto-detect)")
	pf.BoolVar(&headless, "headless", false, "run Chrome without a window")
	pf.StringVar(&startURL, "url", "", "page to open (default from config)")
	pf.CountVarP(&verbosity, "verbose", "v", "log verbosity (-v discovery and actions, -vv absorbed failures)")
	pf.BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(runCmd, replayCmd, initConfigCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logging.Sync()
	if err != nil {
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, config.FormatError(cfgErr.err))
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

// setup loads the configuration, applies flag overrides and initializes logging.
func setup() (*config.Config, logr.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, logr.Discard(), configError{err}
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("chrome") {
		cfg.Browser.ChromePath = chromePath
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("url") {
		cfg.Browser.StartURL = startURL
	}
	if flags.Changed("verbose") {
		cfg.Log.Level = verbosity
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}

	log := logging.Setup(logging.Options{Verbosity: cfg.Log.Level, JSON: cfg.Log.JSON})
	return cfg, log, nil
}

func runLive(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, log)

	opts := browser.DefaultOptions()
	opts.ChromePath = cfg.Browser.ChromePath
	opts.UserAgent = cfg.Browser.UserAgent
	opts.Headless = cfg.Browser.Headless
	opts.UserDataDir = cfg.Browser.UserDataDir
	if cfg.Browser.OpTimeoutMs > 0 {
		opts.OpTimeout = config.Millis(cfg.Browser.OpTimeoutMs)
	}

	session, err := browser.Launch(ctx, opts, log.WithName("browser"))
	if err != nil {
		return err
	}
	defer session.Close()

	a, err := agent.New(session.Document(), agent.OptionsFromConfig(cfg), log)
	if err != nil {
		return err
	}

	// The key hook goes in before the first page so it is there on load.
	if err := session.InstallKeyHook(keyHook(a), func(key string) {
		a.Key(key)
	}); err != nil {
		return err
	}
	if err := session.Open(cfg.Browser.StartURL); err != nil {
		return err
	}
	location, err := session.Location()
	if err != nil {
		location = cfg.Browser.StartURL
	}

	a.Start(location)
	defer a.Stop()
	session.OnNavigate(a.LocationChanged)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-session.Done():
		log.Info("browser closed")
	}
	return nil
}

func keyHook(a *agent.Agent) browser.KeyHook {
	hook := browser.KeyHook{
		Keys:            a.Keys(),
		ActivateKey:     a.ActivateKey(),
		MarkAttr:        highlight.MarkAttr,
		DirectionalKeys: a.DirectionalKeys(),
	}
	if a.IgnoresDirectionalOnWatch() {
		hook.WatchPattern = locator.WatchPattern
	}
	return hook
}
