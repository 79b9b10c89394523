// Package registrytest provides an in-memory fake of the registry API for tests.
//
// The fake serves the same routes as the real service, records every request
// it receives, and can be told to fail or stall individual routes:
//
//	srv := registrytest.New(t)
//	srv.Seed(registry.Record{ID: 1, Source: "Billing", URL: "https://x/openapi.yaml"})
//	srv.SetEndpoints(1, "listInvoices", "createInvoice")
//	client := srv.Client()
//
//	srv.Fail(registrytest.RouteDelete, http.StatusInternalServerError)
//	release := srv.Hold(registrytest.RouteEndpoints)
//	defer release()
package registrytest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/apireg/pkg/httputil"
	"github.com/getmockd/apireg/pkg/registry"
)

// Route names a registry operation.
type Route string

// Registry routes.
const (
	RouteList      Route = "list"
	RouteEndpoints Route = "endpoints"
	RouteFetch     Route = "fetch"
	RouteCreate    Route = "create"
	RouteUpdate    Route = "update"
	RouteDelete    Route = "delete"
)

type schemaDoc struct {
	contentType string
	body        []byte
}

// Server is a fake registry API backed by an httptest.Server.
type Server struct {
	mu        sync.Mutex
	records   []registry.Record
	endpoints map[int][]string
	schemas   map[int]schemaDoc
	nextID    int
	failures  map[Route]int
	holds     map[Route]chan struct{}
	requests  []RequestLog

	ts *httptest.Server
}

// New starts a fake registry and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		endpoints: make(map[int][]string),
		schemas:   make(map[int]schemaDoc),
		nextID:    1,
		failures:  make(map[Route]int),
		holds:     make(map[Route]chan struct{}),
	}
	s.ts = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.releaseAll()
		s.ts.Close()
	})
	return s
}

// URL returns the base URL of the fake.
func (s *Server) URL() string {
	return s.ts.URL
}

// Client returns a registry client pointed at the fake.
func (s *Server) Client(opts ...registry.Option) *registry.Client {
	return registry.New(s.ts.URL, opts...)
}

// Seed appends records to the collection. IDs are kept as given; records
// without an ID are assigned the next free one.
func (s *Server) Seed(records ...registry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == 0 {
			r.ID = s.nextID
		}
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
		s.records = append(s.records, r)
	}
}

// SetEndpoints sets the endpoint names served for a record.
func (s *Server) SetEndpoints(id int, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[id] = append([]string{}, names...)
}

// SetSchema sets the raw document served by the fetch route for a record.
func (s *Server) SetSchema(id int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[id] = schemaDoc{contentType: contentType, body: []byte(body)}
}

// Records returns a copy of the current collection.
func (s *Server) Records() []registry.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Fail makes every request to route answer with status until Recover is called.
func (s *Server) Fail(route Route, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Recover undoes Fail for route.
func (s *Server) Recover(route Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold stalls requests to route until the returned function is called or the
// client gives up. The request is logged before it stalls.
func (s *Server) Hold(route Route) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	if prev, ok := s.holds[route]; ok {
		close(prev)
	}
	s.holds[route] = ch
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.holds[route] == ch {
			delete(s.holds, route)
			close(ch)
		}
	}
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for route, ch := range s.holds {
		close(ch)
		delete(s.holds, route)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/urls", s.wrap(RouteList, s.handleList))
	mux.HandleFunc("POST /api/urls", s.wrap(RouteCreate, s.handleCreate))
	mux.HandleFunc("PUT /api/urls/{id}", s.wrap(RouteUpdate, s.handleUpdate))
	mux.HandleFunc("DELETE /api/urls/{id}", s.wrap(RouteDelete, s.handleDelete))
	mux.HandleFunc("GET /api/urls/{id}/endpoints", s.wrap(RouteEndpoints, s.handleEndpoints))
	mux.HandleFunc("GET /api/urls/{id}/fetch", s.wrap(RouteFetch, s.handleFetch))
	return mux
}

// wrap logs the request, then applies holds and injected failures before
// dispatching to h.
func (s *Server) wrap(route Route, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodySize))
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		s.mu.Lock()
		s.requests = append(s.requests, RequestLog{
			Route:   route,
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: headers,
			Body:    string(body),
		})
		hold := s.holds[route]
		status, failing := s.failures[route]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			httputil.WriteError(w, status, "injected_failure", fmt.Sprintf("%s failed", route))
			return
		}
		h(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.Records())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft registry.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.mu.Lock()
	rec := registry.Record{ID: s.nextID, Source: draft.Source, URL: draft.URL}
	s.nextID++
	s.records = append(s.records, rec)
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var draft registry.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		httputil.WriteNotFound(w, fmt.Sprintf("url %d not found", id))
		return
	}
	s.records[idx].Source = draft.Source
	s.records[idx].URL = draft.URL
	rec := s.records[idx]
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		httputil.WriteNotFound(w, fmt.Sprintf("url %d not found", id))
		return
	}
	s.records = slices.Delete(s.records, idx, idx+1)
	delete(s.endpoints, id)
	s.mu.Unlock()

	httputil.WriteNoContent(w)
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	exists := s.indexOf(id) >= 0
	names := slices.Clone(s.endpoints[id])
	s.mu.Unlock()

	if !exists {
		httputil.WriteNotFound(w, fmt.Sprintf("url %d not found", id))
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, registry.EndpointsResponse{Endpoints: names})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	doc, found := s.schemas[id]
	s.mu.Unlock()

	if !found {
		httputil.WriteNotFound(w, fmt.Sprintf("schema for url %d not found", id))
		return
	}
	httputil.WriteRaw(w, http.StatusOK, doc.contentType, doc.body)
}

// indexOf must be called with s.mu held.
func (s *Server) indexOf(id int) int {
	return slices.IndexFunc(s.records, func(r registry.Record) bool { return r.ID == id })
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
