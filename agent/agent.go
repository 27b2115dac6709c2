// Package agent assembles the navigation engine around one document: the
// locator, presenter and controller, the lifecycle monitor, and the loop they
// all run on.
package agent

import (
	"fmt"

	"github.com/go-logr/logr"

	"tubenav/config"
	"tubenav/dom"
	"tubenav/highlight"
	"tubenav/lifecycle"
	"tubenav/locator"
	"tubenav/nav"
)

// queueSize bounds the events waiting for the loop. Keys arriving while it is
// full are dropped.
const queueSize = 64

// Options configures an Agent.
type Options struct {
	Nav        nav.Options
	Lifecycle  lifecycle.Options
	Bindings   nav.Bindings
	Strategies []locator.Strategy // nil = locator.DefaultStrategies
	Clock      lifecycle.Clock    // nil = lifecycle.RealClock
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig translates a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Nav: nav.Options{
			NearEnd:       cfg.Navigation.NearEnd,
			Stride:        cfg.Navigation.Stride,
			HomeURL:       cfg.Navigation.HomeURL,
			RetreatPolicy: nav.RetreatPolicy(cfg.Navigation.RetreatPolicy),
		},
		Lifecycle: lifecycle.Options{
			SettleDelay:      config.Millis(cfg.Lifecycle.SettleDelayMs),
			StartDelays:      config.MillisList(cfg.Lifecycle.StartDelaysMs),
			RetryDelays:      config.MillisList(cfg.Lifecycle.RetryDelaysMs),
			SparseThreshold:  cfg.Lifecycle.SparseThreshold,
			FallbackInterval: config.Millis(cfg.Lifecycle.FallbackIntervalMs),
		},
		Bindings: nav.Bindings{
			Advance:    cfg.Keybindings.Advance,
			Retreat:    cfg.Keybindings.Retreat,
			BigAdvance: cfg.Keybindings.BigAdvance,
			BigRetreat: cfg.Keybindings.BigRetreat,
			Activate:   cfg.Keybindings.Activate,
			Home:       cfg.Keybindings.Home,
		},
	}
}

// Agent drives one document. Its methods are safe for concurrent use; all
// engine work happens on the agent's loop.
type Agent struct {
	doc           dom.Document
	loop          *lifecycle.Loop
	sched         *lifecycle.Scheduler
	ctrl          *nav.Controller
	presenter     *highlight.Presenter
	monitor       *lifecycle.Monitor
	keymap        nav.Keymap
	bindings      nav.Bindings
	retreatPolicy nav.RetreatPolicy
	log           logr.Logger
}

// New builds an agent. Nothing runs until Start.
func New(doc dom.Document, opts Options, log logr.Logger) (*Agent, error) {
	strategies := opts.Strategies
	if strategies == nil {
		strategies = locator.DefaultStrategies
	}
	loc, err := locator.New(strategies, log.WithName("locator"))
	if err != nil {
		return nil, fmt.Errorf("building locator: %w", err)
	}

	pres := highlight.New(log.WithName("highlight"))
	ctrl := nav.New(doc, loc, pres, opts.Nav, log.WithName("nav"))

	loop := lifecycle.NewLoop(queueSize)
	sched := lifecycle.NewScheduler(opts.Clock, func(f func()) {
		loop.Post(f)
	})

	return &Agent{
		doc:           doc,
		loop:          loop,
		sched:         sched,
		ctrl:          ctrl,
		presenter:     pres,
		monitor:       lifecycle.NewMonitor(ctrl, sched, opts.Lifecycle, log.WithName("lifecycle")),
		keymap:        nav.NewKeymap(opts.Bindings),
		bindings:      opts.Bindings,
		retreatPolicy: opts.Nav.RetreatPolicy,
		log:           log,
	}, nil
}

// Start runs the loop and arms the start-up discovery passes for location.
func (a *Agent) Start(location string) {
	a.loop.Start()
	a.loop.Post(func() {
		a.monitor.Start(location)
	})
	a.log.Info("agent started", "location", location, "keys", a.keymap.Keys())
}

// Stop cancels pending passes, removes the highlight and stops the loop.
func (a *Agent) Stop() {
	a.sched.Stop()
	a.loop.Do(func() {
		a.presenter.Clear(a.doc)
	})
	a.loop.Stop()
}

// Done is closed once the agent has stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.loop.Done()
}

// Key queues the action bound to key and reports whether key is bound. Whether
// the engine acts on it is only known later, on the loop; use Press to wait for
// that. Key never blocks.
func (a *Agent) Key(key string) bool {
	action, ok := a.keymap.Lookup(key)
	if !ok {
		return false
	}
	if !a.loop.TryPost(func() {
		a.ctrl.Handle(action)
	}) {
		a.log.V(2).Info("dropping key, loop busy or stopped", "key", key)
	}
	return true
}

// Press runs the action bound to key and waits for it. It reports whether key
// is bound and whether the engine acted on it. Keys pressed while nothing is
// discovered, or directional keys ignored on a watch page, are not acted on.
func (a *Agent) Press(key string) (bound, acted bool) {
	action, ok := a.keymap.Lookup(key)
	if !ok {
		return false, false
	}
	var handled bool
	if !a.loop.Do(func() {
		handled = a.ctrl.Handle(action)
	}) {
		a.log.V(2).Info("dropping key, agent stopped", "key", key)
		return true, false
	}
	return true, handled
}

// LocationChanged queues a navigation signal. It never blocks.
func (a *Agent) LocationChanged(location string) {
	if !a.loop.TryPost(func() {
		a.monitor.LocationChanged(location)
	}) {
		a.log.V(2).Info("dropping navigation signal, loop busy or stopped", "location", location)
	}
}

// Refresh queues a content-changed signal for the current location.
func (a *Agent) Refresh() {
	a.loop.Post(a.monitor.Refresh)
}

// Run runs f on the loop and waits for it. f may touch the document.
func (a *Agent) Run(f func()) bool {
	return a.loop.Do(f)
}

// Sync waits until everything queued so far has run.
func (a *Agent) Sync() {
	a.loop.Do(func() {})
}

// State returns a snapshot of the controller state.
func (a *Agent) State() nav.State {
	var st nav.State
	a.loop.Do(func() {
		st = a.ctrl.State()
	})
	return st
}

// Keys returns the bound key identifiers.
func (a *Agent) Keys() []string {
	return a.keymap.Keys()
}

// ActivateKey returns the key bound to Activate.
func (a *Agent) ActivateKey() string {
	return a.bindings.Activate
}

// DirectionalKeys returns the keys bound to the four cursor moves.
func (a *Agent) DirectionalKeys() []string {
	return a.keymap.KeysFor(nav.Advance, nav.Retreat, nav.BigAdvance, nav.BigRetreat)
}

// IgnoresDirectionalOnWatch reports whether cursor moves are disabled on watch pages.
func (a *Agent) IgnoresDirectionalOnWatch() bool {
	return a.retreatPolicy == nav.DisableOnWatch
}
