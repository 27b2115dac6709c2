// Package cursor holds the logical selection index over a volatile item set.
package cursor

import "strconv"

// Cursor is an index into the current item set, or none when the set is empty.
// The zero value is none.
type Cursor struct {
	index int
	valid bool
}

// None is the cursor of an empty set.
var None = Cursor{}

// At returns a cursor at i. Negative indexes yield None.
func At(i int) Cursor {
	if i < 0 {
		return None
	}
	return Cursor{index: i, valid: true}
}

// Index returns the position and whether the cursor points anywhere.
func (c Cursor) Index() (int, bool) {
	return c.index, c.valid
}

// Valid reports whether the cursor points at an item.
func (c Cursor) Valid() bool {
	return c.valid
}

// In reports whether the cursor is a valid index into a set of n items.
func (c Cursor) In(n int) bool {
	return c.valid && c.index < n
}

// Clamp bounds the cursor to a set of n items.
func (c Cursor) Clamp(n int) Cursor {
	if n <= 0 {
		return None
	}
	if !c.valid {
		return At(0)
	}
	return At(min(c.index, n-1))
}

// Move shifts the cursor by delta and clamps it to [0, n).
func (c Cursor) Move(delta, n int) Cursor {
	if n <= 0 {
		return None
	}
	if !c.valid {
		return At(0)
	}
	return At(max(0, min(c.index+delta, n-1)))
}

func (c Cursor) String() string {
	if !c.valid {
		return "none"
	}
	return strconv.Itoa(c.index)
}

// Reconcile computes the cursor for a freshly located set of newCount items,
// given the cursor and size of the previous set.
//
// Position, not identity, is preserved. When the set grew the index is kept;
// otherwise it is clamped into the new bounds. Both cases end in the same
// min(index, newCount-1); they are kept apart because only the grown case
// relies on the previous cursor being meaningful for the new set.
func Reconcile(prev Cursor, prevCount, newCount int) Cursor {
	if newCount <= 0 {
		return None
	}
	if newCount > prevCount && prev.Valid() {
		return At(min(prev.index, newCount-1))
	}
	return prev.Clamp(newCount)
}
