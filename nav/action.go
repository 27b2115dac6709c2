package nav

import (
	"slices"
	"strings"
)

// Action is one navigation input.
type Action int

const (
	Advance Action = iota + 1
	Retreat
	BigAdvance
	BigRetreat
	Activate
	Home
)

var actionNames = map[Action]string{
	Advance:    "advance",
	Retreat:    "retreat",
	BigAdvance: "big-advance",
	BigRetreat: "big-retreat",
	Activate:   "activate",
	Home:       "home",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Action) directional() bool {
	switch a {
	case Advance, Retreat, BigAdvance, BigRetreat:
		return true
	}
	return false
}

// Keymap maps key identifiers (as reported by a keydown event's key, lower
// cased) to actions.
type Keymap map[string]Action

// Bindings names the key for each action.
type Bindings struct {
	Advance    string
	Retreat    string
	BigAdvance string
	BigRetreat string
	Activate   string
	Home       string
}

// NewKeymap builds a Keymap. Empty bindings are left unbound.
func NewKeymap(b Bindings) Keymap {
	km := make(Keymap)
	for key, action := range map[string]Action{
		b.Advance:    Advance,
		b.Retreat:    Retreat,
		b.BigAdvance: BigAdvance,
		b.BigRetreat: BigRetreat,
		b.Activate:   Activate,
		b.Home:       Home,
	} {
		if key != "" {
			km[strings.ToLower(key)] = action
		}
	}
	return km
}

// Lookup returns the action bound to key.
func (km Keymap) Lookup(key string) (Action, bool) {
	a, ok := km[strings.ToLower(key)]
	return a, ok
}

// Keys returns the bound key identifiers, sorted.
func (km Keymap) Keys() []string {
	keys := make([]string, 0, len(km))
	for k := range km {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// KeysFor returns the keys bound to any of actions, sorted.
func (km Keymap) KeysFor(actions ...Action) []string {
	keys := []string{}
	for k, a := range km {
		if slices.Contains(actions, a) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
