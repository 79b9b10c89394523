package registrytest

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// RequestLog is one request received by the fake.
type RequestLog struct {
	Route   Route
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// Count returns how many requests hit route.
func (s *Server) Count(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Total returns the number of requests received on any route.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Last returns the most recent request to route, failing the test if there is none.
func (s *Server) Last(t testing.TB, route Route) RequestLog {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Route == route {
			return s.requests[i]
		}
	}
	t.Fatalf("no %s request received", route)
	return RequestLog{}
}

// AssertJSONBody asserts that the request body is JSON equal to expected.
// expected may be a string, []byte, or any value that encodes to JSON.
func (r RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}

	var want, got any
	if err := json.Unmarshal(raw, &want); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}
	if !reflect.DeepEqual(got, want) {
		wantBytes, _ := json.MarshalIndent(want, "", "  ")
		gotBytes, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(wantBytes), string(gotBytes))
	}
}

// Header returns a request header by case-insensitive name.
func (r RequestLog) Header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertHeader asserts that the request carried header key with value expected.
func (r RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()
	actual, ok := r.Header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}
