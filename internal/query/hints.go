package query

// Comparator selects how a filter value is compared with a column.
type Comparator string

const (
	Equals     Comparator = "equals"
	Contains   Comparator = "contains"
	StartsWith Comparator = "startswith"
	EndsWith   Comparator = "endswith"
	NotEquals  Comparator = "notequal"
)

// OffsetFilter is the pseudo-filter name carrying a numeric row offset.
const OffsetFilter = "offset"

// Filter is one pending filter clause.
type Filter struct {
	Name          string     `json:"name" yaml:"name"`
	Comparator    Comparator `json:"comparator" yaml:"comparator"`
	Value         string     `json:"value" yaml:"value"`
	CaseSensitive bool       `json:"case_sensitive" yaml:"case_sensitive"`
}

// Limit is the requested page size. Truncated is set when more rows than
// Limit were available.
type Limit struct {
	Limit     int  `json:"limit" yaml:"limit"`
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// Hints carries one request's pending filters, ordering, limit and marker.
// Nothing is validated when hints are built; the engine validates them when
// it consumes them and removes the filters it satisfies.
type Hints struct {
	Filters  []Filter
	SortKeys []string
	SortDirs []string
	Limit    *Limit
	Marker   string

	// CannotMatch is set once the engine proves no row can match. It is
	// never reset.
	CannotMatch bool
}

// NewHints returns empty hints.
func NewHints() *Hints { return &Hints{} }

// AddFilter appends a filter clause.
func (h *Hints) AddFilter(name, value string, comparator Comparator, caseSensitive bool) {
	h.Filters = append(h.Filters, Filter{
		Name:          name,
		Comparator:    comparator,
		Value:         value,
		CaseSensitive: caseSensitive,
	})
}

// AddExactFilter appends a case-insensitive equals filter.
func (h *Hints) AddExactFilter(name, value string) {
	h.AddFilter(name, value, Equals, false)
}

// ExactFilter returns the first equals filter on name.
func (h *Hints) ExactFilter(name string) (Filter, bool) {
	for _, f := range h.Filters {
		if f.Name == name && f.Comparator == Equals {
			return f, true
		}
	}
	return Filter{}, false
}

// AddSort appends a sort key and its direction.
func (h *Hints) AddSort(key, dir string) {
	h.SortKeys = append(h.SortKeys, key)
	h.SortDirs = append(h.SortDirs, dir)
}

// SetLimit sets the requested page size.
func (h *Hints) SetLimit(n int) {
	h.Limit = &Limit{Limit: n}
}

// SetMarker sets the continuation token of the previous page.
func (h *Hints) SetMarker(token string) {
	h.Marker = token
}

// Clone returns a deep copy of h.
func (h *Hints) Clone() *Hints {
	c := &Hints{
		Filters:     append([]Filter(nil), h.Filters...),
		SortKeys:    append([]string(nil), h.SortKeys...),
		SortDirs:    append([]string(nil), h.SortDirs...),
		Marker:      h.Marker,
		CannotMatch: h.CannotMatch,
	}
	if h.Limit != nil {
		l := *h.Limit
		c.Limit = &l
	}
	return c
}
