package registry

import (
	"strconv"
	"strings"
)

// Record is one registered API descriptor.
type Record struct {
	ID     int    `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	URL    string `json:"url" yaml:"url"`
}

// Draft holds the client-editable fields of a Record. It is the request body
// for both create and update.
type Draft struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Trimmed returns the draft with surrounding whitespace removed from both fields.
func (d Draft) Trimmed() Draft {
	return Draft{Source: strings.TrimSpace(d.Source), URL: strings.TrimSpace(d.URL)}
}

// Complete reports whether both fields are non-empty after trimming.
func (d Draft) Complete() bool {
	t := d.Trimmed()
	return t.Source != "" && t.URL != ""
}

// EndpointsResponse is the body of GET /api/urls/{id}/endpoints.
type EndpointsResponse struct {
	Endpoints []string `json:"endpoints"`
}

// Schema is a raw schema document as served by the fetch route.
type Schema struct {
	ContentType string
	Body        []byte
}

// ErrorResponse is the error body shape the registry returns, when it returns one.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RecordPath returns the collection path for a single record.
func RecordPath(id int) string {
	return "/api/urls/" + strconv.Itoa(id)
}
