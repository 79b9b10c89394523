// Package cli provides the command-line interface for apireg.
//
// apireg is a console for a registry of API specification documents. Each
// record pairs a source name with the URL of an OpenAPI document; the
// registry parses the document and exposes the names of its endpoints.
//
// Commands:
//   - list: Display the registered APIs, optionally filtered and expanded
//   - endpoints: Show the endpoint names of one API
//   - add: Register a new API (prompts when --source/--url are omitted)
//   - edit: Change the source or URL of an API
//   - delete: Remove an API after confirmation
//   - view: Open an API in the external schema viewer
//   - fetch: Download the raw specification document of an API
//   - browse: Interactive session over the whole list
//   - config: Display effective configuration and where each value came from
//   - version: Show apireg version
//
// Every command that talks to the registry needs both the registry base URL
// (--api-url, APIREG_API_URL) and the viewer base URL (--viewer-url,
// APIREG_VIEWER_URL); see package cliconfig for the other sources.
package cli
