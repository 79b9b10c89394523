package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/apireg/pkg/registry"
)

func TestFilter(t *testing.T) {
	st := sample()
	st = Reduce(st, EndpointsLoaded{ID: 7, Endpoints: []string{"getBalance", "closeAccount"}})

	tests := []struct {
		name   string
		search string
		want   []int
	}{
		{"empty term", "", []int{1, 2, 7}},
		{"source case-insensitive", "bill", []int{1}},
		{"url", "swagger", []int{2}},
		{"common url part", "OPENAPI", []int{1, 7}},
		{"cached endpoint", "balance", []int{7}},
		{"no match", "zzz", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(Reduce(st, SearchChanged{Term: tt.search}))
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_EndpointsOnlyWhenCached(t *testing.T) {
	st := Reduce(sample(), SearchChanged{Term: "invoice"})
	assert.Empty(t, Filter(st))

	st = Reduce(st, EndpointsLoaded{ID: 1, Endpoints: []string{"listInvoices"}})
	assert.Equal(t, []int{1}, ids(Filter(st)))
}

func TestFilter_UnicodeLowercase(t *testing.T) {
	st := Reduce(State{}, RecordsLoaded{Records: []registry.Record{
		{ID: 1, Source: "Straße API", URL: "https://s"},
		{ID: 2, Source: "ΣΊΣΥΦΟΣ", URL: "https://g"},
	}})

	tests := []struct {
		term string
		want []int
	}{
		{"STRASSE", []int{}},
		{"ss", []int{}},
		{"ſ", []int{}},
		{"STRAßE", []int{1}},
		{"σίσυφ", []int{2}},
		{"s", []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(Reduce(st, SearchChanged{Term: tt.term}))))
		})
	}
}

func TestFilter_DoesNotChangeState(t *testing.T) {
	st := Reduce(sample(), SearchChanged{Term: "ship"})
	before := ids(st.Records)
	_ = Filter(st)
	assert.Equal(t, before, ids(st.Records))
}
