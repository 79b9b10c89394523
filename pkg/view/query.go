package view

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/apireg/pkg/registry"
)

// queryEnv is the environment a Query expression is evaluated against.
type queryEnv struct {
	ID        int      `expr:"id"`
	Source    string   `expr:"source"`
	URL       string   `expr:"url"`
	Endpoints []string `expr:"endpoints"`
	Loaded    bool     `expr:"loaded"`
	Expanded  bool     `expr:"expanded"`
}

// Query is a compiled boolean expression over a record, e.g.
//
//	source startsWith "Bill" && len(endpoints) > 3
//	any(endpoints, # contains "invoice")
//	!loaded
//
// Available names: id, source, url, endpoints, loaded, expanded.
type Query struct {
	source  string
	program *vm.Program
}

// CompileQuery compiles src. The expression must evaluate to a bool.
func CompileQuery(src string) (*Query, error) {
	program, err := expr.Compile(src, expr.Env(queryEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", src, err)
	}
	return &Query{source: src, program: program}, nil
}

// String returns the source expression.
func (q *Query) String() string {
	return q.source
}

// Match evaluates the query for one record of s.
func (q *Query) Match(s State, r registry.Record) (bool, error) {
	names, loaded := s.Endpoints[r.ID]
	if names == nil {
		names = []string{}
	}
	out, err := expr.Run(q.program, queryEnv{
		ID:        r.ID,
		Source:    r.Source,
		URL:       r.URL,
		Endpoints: names,
		Loaded:    loaded,
		Expanded:  s.Expanded[r.ID],
	})
	if err != nil {
		return false, fmt.Errorf("query %q failed for record %d: %w", q.source, r.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// FilterQuery applies Filter and then, when q is non-nil, keeps only the
// records q matches.
func FilterQuery(s State, q *Query) ([]registry.Record, error) {
	records := Filter(s)
	if q == nil {
		return records, nil
	}
	out := make([]registry.Record, 0, len(records))
	for _, r := range records {
		ok, err := q.Match(s, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
