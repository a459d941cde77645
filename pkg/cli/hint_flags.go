package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"account-query/internal/domain"
	"account-query/internal/query"
)

var comparators = []query.Comparator{
	query.Equals, query.Contains, query.StartsWith, query.EndsWith, query.NotEquals,
}

// hintFlags are the list flags shared by every listing command.
type hintFlags struct {
	filters []string
	sorts   []string
	limit   int
	marker  string
	offset  int
}

// register adds the filter and limit flags, plus the ordering and paging
// flags when paged is set.
func (f *hintFlags) register(fs *pflag.FlagSet, paged bool) {
	fs.StringArrayVar(&f.filters, "filter", nil,
		"Filter as field[:comparator[:cs]]=value; comparators: equals, contains, startswith, endswith, notequal (repeatable)")
	fs.IntVar(&f.limit, "limit", domain.DefaultPageLimit, fmt.Sprintf("Maximum number of results (max %d)", domain.MaxPageLimit))
	if !paged {
		return
	}
	fs.StringArrayVar(&f.sorts, "sort", nil, "Sort key as field[:asc|desc] (repeatable)")
	fs.StringVar(&f.marker, "marker", "", "Continuation token from a previous page")
	fs.IntVar(&f.offset, "offset", 0, "Number of results to skip")
}

// hints builds query hints from the parsed flags. Only flag syntax is
// checked here; field names and directions are validated by the query.
func (f *hintFlags) hints(fs *pflag.FlagSet) (*query.Hints, error) {
	h := query.NewHints()
	for _, raw := range f.filters {
		filter, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		h.Filters = append(h.Filters, filter)
	}

	directed := true
	for _, raw := range f.sorts {
		key, dir, hasDir := strings.Cut(raw, ":")
		if key == "" {
			return nil, fmt.Errorf("invalid --sort %q: missing field", raw)
		}
		if hasDir && !directed {
			return nil, fmt.Errorf("invalid --sort %q: a direction cannot follow a key without one", raw)
		}
		h.SortKeys = append(h.SortKeys, key)
		if hasDir {
			h.SortDirs = append(h.SortDirs, strings.ToLower(dir))
		} else {
			directed = false
		}
	}

	h.SetLimit(domain.ClampLimit(f.limit))
	h.SetMarker(f.marker)
	if fs.Changed("offset") {
		h.AddExactFilter(query.OffsetFilter, strconv.Itoa(f.offset))
	}
	return h, nil
}

// parseFilter parses field[:comparator[:cs]]=value.
func parseFilter(raw string) (query.Filter, error) {
	lhs, value, ok := strings.Cut(raw, "=")
	if !ok {
		return query.Filter{}, fmt.Errorf("invalid --filter %q: expected field[:comparator[:cs]]=value", raw)
	}
	parts := strings.Split(lhs, ":")
	if parts[0] == "" || len(parts) > 3 {
		return query.Filter{}, fmt.Errorf("invalid --filter %q: expected field[:comparator[:cs]]=value", raw)
	}

	f := query.Filter{Name: parts[0], Comparator: query.Equals, Value: value}
	if len(parts) > 1 && parts[1] != "" {
		f.Comparator = query.Comparator(strings.ToLower(parts[1]))
		if !validComparator(f.Comparator) {
			return query.Filter{}, fmt.Errorf("invalid --filter %q: unknown comparator %q", raw, parts[1])
		}
	}
	if len(parts) == 3 {
		if parts[2] != "cs" {
			return query.Filter{}, fmt.Errorf("invalid --filter %q: unknown option %q", raw, parts[2])
		}
		f.CaseSensitive = true
	}
	return f, nil
}

func validComparator(c query.Comparator) bool {
	for _, known := range comparators {
		if c == known {
			return true
		}
	}
	return false
}
