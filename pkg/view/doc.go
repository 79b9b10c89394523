// Package view holds the state of the registered-API list view and the
// session that keeps it in sync with the remote registry.
//
// The state is an immutable snapshot (State). It only changes through
// Reduce, a pure function of the previous snapshot and an Action, so every
// transition can be tested without a terminal or a network. A Store guards
// the current snapshot and notifies subscribers. A Session performs the
// remote calls and dispatches their results back into its Store.
//
// Edit and delete confirmations are modelled as a dialog state machine
// rather than blocking prompts:
//
//	closed -> open(edit|delete, id) -> confirmed -> closed
//	                                 \-> cancelled
//
// Endpoint lists are cached per record. A missing cache entry means "not
// loaded"; an empty list means "loaded, no endpoints". Whether endpoint
// lists are fetched on first expansion or all at once during Init is an
// explicit EndpointPolicy.
//
// Closing a Session cancels every request it has in flight and discards any
// result that still arrives.
package view
