package anonymize

import "strconv"

// TokenMap maps placeholders to the original values they replaced.
type TokenMap map[string]string

// allocator mints placeholders for one anonymize call. Counters are kept per
// prefix so types sharing a prefix (GPE and LOC) never mint the same
// placeholder twice.
type allocator struct {
	counters map[string]int
	byValue  map[string]string
	tokens   TokenMap
}

func newAllocator() *allocator {
	return &allocator{
		counters: make(map[string]int),
		byValue:  make(map[string]string),
		tokens:   make(TokenMap),
	}
}

// allocate returns the placeholder for value, minting "[prefix<n>]" the first
// time the value is seen in this call.
func (a *allocator) allocate(prefix, value string) string {
	if ph, ok := a.byValue[value]; ok {
		return ph
	}
	a.counters[prefix]++
	ph := "[" + prefix + strconv.Itoa(a.counters[prefix]) + "]"
	a.byValue[value] = ph
	a.tokens[ph] = value
	return ph
}
