package session

import "math/rand"

// OrderSet stores, per participant, the display order of question
// indices: order[displayIndex] == actualIndex.
type OrderSet map[string][]int

// Generate assigns participant a fresh uniform permutation of 0..n-1.
func (o OrderSet) Generate(participant string, n int) {
	if n < 0 {
		n = 0
	}
	o[participant] = rand.Perm(n)
}

// Order returns the participant's display order, or the identity order
// when no usable permutation is stored.
func (o OrderSet) Order(participant string, n int) []int {
	if ord, ok := o[participant]; ok && len(ord) == n {
		return ord
	}
	ident := make([]int, n)
	for i := range ident {
		ident[i] = i
	}
	return ident
}

// ActualIndex maps a display index to the stored question index.
// Out-of-range input degrades to identity rather than failing.
func (o OrderSet) ActualIndex(participant string, display int) int {
	ord, ok := o[participant]
	if !ok || display < 0 || display >= len(ord) {
		return display
	}
	return ord[display]
}

// DisplayIndex is the inverse of ActualIndex under the same order.
func (o OrderSet) DisplayIndex(participant string, actual int) int {
	ord, ok := o[participant]
	if !ok {
		return actual
	}
	for d, a := range ord {
		if a == actual {
			return d
		}
	}
	return actual
}
