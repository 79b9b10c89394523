// Package viewer links records to the external schema viewer (a Swagger
// Editor style web app that loads a document from a ?url= parameter).
package viewer

import (
	"strings"

	"github.com/pkg/browser"
)

// Link returns the viewer URL that loads the schema at schemaURL.
// The nested URL is passed as-is; the viewer reads everything after "url=".
func Link(viewerBase, schemaURL string) string {
	return strings.TrimRight(viewerBase, "/") + "/?url=" + schemaURL
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// Open calls f(url).
func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// BrowserOpener opens URLs with the system's default browser.
type BrowserOpener struct{}

// Open launches the default browser on url.
func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}
