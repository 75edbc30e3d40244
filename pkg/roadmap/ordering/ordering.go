// Package ordering keeps sibling groups densely numbered.
//
// Slice position is the ground truth: after every operation item i carries
// order i+1. All functions return new slices and never modify their input.
package ordering

import "slices"

// Sequenced is implemented by pointers to orderable siblings
// (*roadmap.Level, *roadmap.Milestone, *roadmap.Challenge).
type Sequenced[T any] interface {
	*T
	Key() string
	Position() int
	SetOrder(int)
}

// OrderEntry is one element of the reorder wire payload.
type OrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Renumber assigns order = index+1 in place.
func Renumber[T any, P Sequenced[T]](items []T) {
	for i := range items {
		P(&items[i]).SetOrder(i + 1)
	}
}

// Reorder moves the item at from to to. to is clamped into range. When from
// is out of range or equals to, a copy is returned with orders unchanged.
func Reorder[T any, P Sequenced[T]](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || from == to {
		return out
	}
	to = clamp(to, 0, len(out)-1)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	Renumber[T, P](out)
	return out
}

// InsertAt places item at index, clamped into [0, len]. A negative index
// appends.
func InsertAt[T any, P Sequenced[T]](items []T, item T, index int) []T {
	out := slices.Clone(items)
	if index < 0 || index > len(out) {
		index = len(out)
	}
	out = slices.Insert(out, index, item)
	Renumber[T, P](out)
	return out
}

// RemoveAndRenumber drops the item with the given key. The second result
// reports whether it was present.
func RemoveAndRenumber[T any, P Sequenced[T]](items []T, id string) ([]T, bool) {
	idx := IndexOf[T, P](items, id)
	out := slices.Clone(items)
	if idx < 0 {
		return out, false
	}
	out = slices.Delete(out, idx, idx+1)
	Renumber[T, P](out)
	return out, true
}

// IndexOf returns the position of the item with the given key, or -1.
func IndexOf[T any, P Sequenced[T]](items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return P(&it).Key() == id })
}

// Payload builds the {id, order} mapping sent to the reorder endpoints.
func Payload[T any, P Sequenced[T]](items []T) []OrderEntry {
	out := make([]OrderEntry, len(items))
	for i := range items {
		p := P(&items[i])
		out[i] = OrderEntry{ID: p.Key(), Order: p.Position()}
	}
	return out
}

// IsDense reports whether orders are exactly 1..n in slice order.
func IsDense[T any, P Sequenced[T]](items []T) bool {
	for i := range items {
		if P(&items[i]).Position() != i+1 {
			return false
		}
	}
	return true
}

// Apply sorts items by the orders in entries. Items missing from entries keep
// their relative position after the listed ones. The result is renumbered.
func Apply[T any, P Sequenced[T]](items []T, entries []OrderEntry) []T {
	rank := make(map[string]int, len(entries))
	for _, e := range entries {
		rank[e.ID] = e.Order
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ra, oka := rank[P(&a).Key()]
		rb, okb := rank[P(&b).Key()]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	Renumber[T, P](out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
