package lifecycle

import (
	"time"

	"github.com/go-logr/logr"

	"tubenav/nav"
)

// Discoverer is the part of the navigation controller the monitor drives.
type Discoverer interface {
	Discover() nav.State
	Invalidate()
	State() nav.State
}

// Options holds the monitor timings.
type Options struct {
	// SettleDelay is the wait after a navigation signal before re-discovery.
	SettleDelay time.Duration
	// StartDelays are unconditional discovery passes after Start.
	StartDelays []time.Duration
	// RetryDelays are passes after Start that only run while the set holds fewer
	// than SparseThreshold items.
	RetryDelays     []time.Duration
	SparseThreshold int
	// FallbackInterval is the period of the pass that recovers from missed
	// signals. It only runs discovery while there are no usable items.
	FallbackInterval time.Duration
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		SettleDelay:      time.Second,
		StartDelays:      []time.Duration{500 * time.Millisecond, time.Second},
		RetryDelays:      []time.Duration{3 * time.Second, 5 * time.Second},
		SparseThreshold:  10,
		FallbackInterval: 5 * time.Second,
	}
}

// Monitor re-runs discovery when the host page changes under the controller.
// Its methods must be called from the loop the scheduler posts to.
type Monitor struct {
	target  Discoverer
	sched   *Scheduler
	opts    Options
	log     logr.Logger
	lastURL string
}

// NewMonitor returns a monitor for target.
func NewMonitor(target Discoverer, sched *Scheduler, opts Options, log logr.Logger) *Monitor {
	return &Monitor{
		target: target,
		sched:  sched,
		opts:   opts,
		log:    log,
	}
}

// Start records the initial location and arms the start-up and fallback passes.
func (m *Monitor) Start(location string) {
	m.lastURL = location
	for _, d := range m.opts.StartDelays {
		m.sched.After(d, func() {
			m.discover("start")
		})
	}
	for _, d := range m.opts.RetryDelays {
		m.sched.After(d, func() {
			if len(m.target.State().Items) < m.opts.SparseThreshold {
				m.discover("sparse-retry")
			}
		})
	}
	if m.opts.FallbackInterval > 0 {
		m.sched.Every(m.opts.FallbackInterval, func() {
			st := m.target.State()
			if st.Discovery != nav.Ready || len(st.Items) == 0 {
				m.discover("fallback")
			}
		})
	}
}

// LocationChanged handles a host navigation. The current items are marked
// stale and a single re-discovery is scheduled after the settle delay.
func (m *Monitor) LocationChanged(location string) {
	if location == m.lastURL {
		return
	}
	m.log.V(1).Info("location changed", "from", m.lastURL, "to", location)
	m.lastURL = location
	m.invalidate()
}

// Refresh handles a content change that kept the location, such as a reloaded
// snapshot. It behaves like a navigation to the current location.
func (m *Monitor) Refresh() {
	m.log.V(1).Info("content changed", "location", m.lastURL)
	m.invalidate()
}

func (m *Monitor) invalidate() {
	m.target.Invalidate()
	m.sched.Settle(m.opts.SettleDelay, func() {
		m.discover("settle")
	})
}

// Location returns the last location seen.
func (m *Monitor) Location() string {
	return m.lastURL
}

func (m *Monitor) discover(reason string) {
	st := m.target.Discover()
	m.log.V(1).Info("scheduled discovery", "reason", reason, "items", len(st.Items), "state", st.Discovery.String())
}
