// Package registry is the HTTP client for the remote API registry.
//
// The registry service owns a collection of Records, each pairing a display
// name ("source") with the URL of an OpenAPI/Swagger document. For every
// record the service also exposes the endpoint names it discovered and a
// proxy that serves the raw schema document.
//
// # Routes
//
//	GET    /api/urls                  list records
//	POST   /api/urls                  create a record
//	PUT    /api/urls/{id}             update a record
//	DELETE /api/urls/{id}             delete a record
//	GET    /api/urls/{id}/endpoints   list endpoint names
//	GET    /api/urls/{id}/fetch       raw schema document
//
// Any 2xx status is a success. Everything else, including transport
// failures, is reported as an *APIError.
//
// # Usage
//
//	client := registry.New("http://localhost:8000",
//	    registry.WithLogger(logger),
//	    registry.WithTimeout(10*time.Second),
//	)
//	records, err := client.ListRecords(ctx)
package registry
