package view

import (
	"slices"

	"github.com/getmockd/apireg/pkg/registry"
)

// DialogKind identifies what a dialog is asking for.
type DialogKind int

// Dialog kinds.
const (
	DialogNone DialogKind = iota
	DialogEdit
	DialogDelete
)

func (k DialogKind) String() string {
	switch k {
	case DialogEdit:
		return "edit"
	case DialogDelete:
		return "delete"
	default:
		return "none"
	}
}

// DialogPhase is the position of a dialog in its lifecycle.
type DialogPhase int

// Dialog phases.
const (
	PhaseClosed DialogPhase = iota
	PhaseOpen
	PhaseConfirmed
	PhaseCancelled
)

func (p DialogPhase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "closed"
	}
}

// Dialog is the edit/delete confirmation state.
type Dialog struct {
	Phase    DialogPhase
	Kind     DialogKind
	RecordID int
	// Fields are the editable values of an edit dialog, pre-filled from the record.
	Fields registry.Draft
}

// IsOpen reports whether the dialog is open for kind.
func (d Dialog) IsOpen(kind DialogKind) bool {
	return d.Phase == PhaseOpen && d.Kind == kind
}

// Form is the create-record form.
type Form struct {
	Open  bool
	Draft registry.Draft
}

// State is an immutable snapshot of the view. Values obtained from a State
// (slices and maps included) must not be modified; Reduce never does.
type State struct {
	// Records mirrors the remote collection as of the last successful call.
	Records []registry.Record
	// Endpoints caches endpoint names by record ID. Absent means not loaded.
	Endpoints map[int][]string
	// Expanded holds the IDs whose endpoint list is shown.
	Expanded map[int]bool
	Search   string
	Form     Form
	Dialog   Dialog
	// Alert is the last validation message shown to the user.
	Alert string
	// Loaded is set once the collection has been fetched.
	Loaded bool
}

// Record returns the loaded record with the given ID.
func (s State) Record(id int) (registry.Record, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return registry.Record{}, false
	}
	return s.Records[i], true
}

// EndpointsFor returns the cached endpoint list for id and whether it is loaded.
func (s State) EndpointsFor(id int) ([]string, bool) {
	names, ok := s.Endpoints[id]
	return names, ok
}

// IsExpanded reports whether id's endpoint list is expanded.
func (s State) IsExpanded(id int) bool {
	return s.Expanded[id]
}

func (s State) indexOf(id int) int {
	return slices.IndexFunc(s.Records, func(r registry.Record) bool { return r.ID == id })
}
