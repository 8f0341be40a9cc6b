package attendance

import "sort"

// DefaultFallbackGlyph is shown for a daily record whose occurrence type
// cannot be found.
const DefaultFallbackGlyph = "?"

// Registry is the read-only lookup from occurrence type id to its entry.
// It is built once per computation from DataSource.ListOccurrenceTypes and
// never mutated afterwards.
type Registry struct {
	byID     map[int64]OccurrenceType
	byCode   map[string]OccurrenceType
	fallback string
}

// NewRegistry indexes the types. An empty fallback selects DefaultFallbackGlyph.
func NewRegistry(types []OccurrenceType, fallback string) *Registry {
	if fallback == "" {
		fallback = DefaultFallbackGlyph
	}
	r := &Registry{
		byID:     make(map[int64]OccurrenceType, len(types)),
		byCode:   make(map[string]OccurrenceType, len(types)),
		fallback: fallback,
	}
	for _, t := range types {
		r.byID[t.ID] = t
		r.byCode[t.Code] = t
	}
	return r
}

// Lookup returns the type with the given id.
func (r *Registry) Lookup(id int64) (OccurrenceType, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// LookupCode returns the type with the given code.
func (r *Registry) LookupCode(code string) (OccurrenceType, bool) {
	t, ok := r.byCode[code]
	return t, ok
}

// Glyph returns the display glyph for the id and whether the type was found.
// A miss yields the fallback sentinel.
func (r *Registry) Glyph(id int64) (string, bool) {
	if t, ok := r.Lookup(id); ok {
		return t.Glyph, true
	}
	return r.fallback, false
}

// Fallback is the sentinel glyph for unknown types.
func (r *Registry) Fallback() string {
	return r.fallback
}

// All returns the types ordered by code.
func (r *Registry) All() []OccurrenceType {
	out := make([]OccurrenceType, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
