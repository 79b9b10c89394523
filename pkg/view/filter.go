package view

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/apireg/pkg/registry"
)

// Filter returns the records whose source, URL or cached endpoint names
// contain the search term, ignoring case. Both sides are lowercased, not
// case-folded, so "ss" does not match "ß". An empty term matches every
// record. Order is preserved.
func Filter(s State) []registry.Record {
	if s.Search == "" {
		return s.Records
	}

	lower := cases.Lower(language.Und)
	term := lower.String(s.Search)
	contains := func(v string) bool {
		return strings.Contains(lower.String(v), term)
	}

	out := make([]registry.Record, 0, len(s.Records))
	for _, r := range s.Records {
		if contains(r.Source) || contains(r.URL) || anyEndpoint(s.Endpoints[r.ID], contains) {
			out = append(out, r)
		}
	}
	return out
}

func anyEndpoint(names []string, match func(string) bool) bool {
	for _, n := range names {
		if match(n) {
			return true
		}
	}
	return false
}
