package http

import "strings"

// HeaderMap is a mapping from header name to one or more header values,
// where keys compare and hash case-insensitively over the ASCII range (no
// locale, no UTF-8 case folding, per §4.1). Insertion order is irrelevant to
// semantics but preserved for observable emission so repeated Set-Cookie
// values keep a stable order.
type HeaderMap struct {
	keys   []string // original-case key, one per distinct folded key
	values [][]string
}

// asciiLower folds A-Z to a-z over the ASCII range only, the fast path
// every header-name comparison in this package goes through. It returns s
// unmodified (no allocation) when it is already lower-case.
func asciiLower(s string) string {
	firstUpper := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			firstUpper = i
			break
		}
	}
	if firstUpper < 0 {
		return s
	}

	b := []byte(s)
	for i := firstUpper; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func (h *HeaderMap) indexOf(foldedKey string) int {
	for i, k := range h.keys {
		if asciiLower(k) == foldedKey {
			return i
		}
	}
	return -1
}

// Set replaces any existing values for the key with a single value.
func (h *HeaderMap) Set(key, value string) {
	folded := asciiLower(key)
	if i := h.indexOf(folded); i >= 0 {
		h.keys[i] = key
		h.values[i] = []string{value}
		return
	}
	h.keys = append(h.keys, key)
	h.values = append(h.values, []string{value})
}

// Add appends a value for key, keeping any existing ones (used for
// multi-valued headers such as Set-Cookie).
func (h *HeaderMap) Add(key, value string) {
	folded := asciiLower(key)
	if i := h.indexOf(folded); i >= 0 {
		h.values[i] = append(h.values[i], value)
		return
	}
	h.keys = append(h.keys, key)
	h.values = append(h.values, []string{value})
}

// Get returns the first value for key, case-insensitively.
func (h *HeaderMap) Get(key string) (string, bool) {
	vals, ok := h.Values(key)
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// GetOr returns the first value for key or fallback if absent.
func (h *HeaderMap) GetOr(key, fallback string) string {
	if v, ok := h.Get(key); ok {
		return v
	}
	return fallback
}

// Values returns every value recorded for key, case-insensitively.
func (h *HeaderMap) Values(key string) ([]string, bool) {
	if i := h.indexOf(asciiLower(key)); i >= 0 {
		return h.values[i], true
	}
	return nil, false
}

// Has reports whether key has at least one recorded value.
func (h *HeaderMap) Has(key string) bool {
	return h.indexOf(asciiLower(key)) >= 0
}

// HasToken reports whether the comma-separated value of key contains token,
// compared case-insensitively (used for Connection/Transfer-Encoding/Vary
// token scans).
func (h *HeaderMap) HasToken(key, token string) bool {
	v, ok := h.Get(key)
	if !ok {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

// Del removes every value recorded for key.
func (h *HeaderMap) Del(key string) {
	folded := asciiLower(key)
	if i := h.indexOf(folded); i >= 0 {
		h.keys = append(h.keys[:i], h.keys[i+1:]...)
		h.values = append(h.values[:i], h.values[i+1:]...)
	}
}

// AppendVary adds name to the Vary header if it is not already present,
// case-insensitively on the token check (§4.6).
func (h *HeaderMap) AppendVary(name string) {
	if h.HasToken("Vary", name) {
		return
	}
	if existing, ok := h.Get("Vary"); ok && existing != "" {
		h.Set("Vary", existing+", "+name)
		return
	}
	h.Set("Vary", name)
}

// Each iterates headers in insertion order, once per (key, value) pair —
// multi-valued headers (Set-Cookie) yield one call per value, so the caller
// can emit each as its own header line.
func (h *HeaderMap) Each(fn func(key, value string)) {
	for i, k := range h.keys {
		for _, v := range h.values[i] {
			fn(k, v)
		}
	}
}

// Reset clears the map for reuse.
func (h *HeaderMap) Reset() {
	h.keys = h.keys[:0]
	h.values = h.values[:0]
}
