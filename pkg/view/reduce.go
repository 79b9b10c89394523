package view

import (
	"maps"
	"slices"

	"github.com/getmockd/apireg/pkg/registry"
)

// Action is a state transition request handled by Reduce.
type Action interface {
	isAction()
}

// RecordsLoaded replaces the collection with a fresh listing. Endpoints, when
// set, are cached in the same step.
type RecordsLoaded struct {
	Records   []registry.Record
	Endpoints map[int][]string
}

// EndpointsLoaded caches the endpoint list of one record.
type EndpointsLoaded struct {
	ID        int
	Endpoints []string
}

// SearchChanged sets the search term.
type SearchChanged struct{ Term string }

// ExpansionToggled flips the expansion flag of a record.
type ExpansionToggled struct{ ID int }

// FormToggled opens or closes the create form. Closing discards the draft.
type FormToggled struct{}

// DraftChanged replaces the create-form draft.
type DraftChanged struct{ Draft registry.Draft }

// ValidationFailed shows a validation message.
type ValidationFailed struct{ Message string }

// RecordCreated appends a server-created record and resets the form.
type RecordCreated struct{ Record registry.Record }

// EditRequested opens the edit dialog for a record.
type EditRequested struct{ ID int }

// EditFieldsChanged replaces the values in the open edit dialog.
type EditFieldsChanged struct{ Fields registry.Draft }

// DeleteRequested opens the delete confirmation for a record.
type DeleteRequested struct{ ID int }

// DialogConfirmed confirms the open dialog.
type DialogConfirmed struct{}

// DialogCancelled cancels the open dialog.
type DialogCancelled struct{}

// DialogClosed resets the dialog.
type DialogClosed struct{}

// RecordUpdated replaces a record with the server's copy.
type RecordUpdated struct{ Record registry.Record }

// RecordDeleted removes a record.
type RecordDeleted struct{ ID int }

func (RecordsLoaded) isAction()     {}
func (EndpointsLoaded) isAction()   {}
func (SearchChanged) isAction()     {}
func (ExpansionToggled) isAction()  {}
func (FormToggled) isAction()       {}
func (DraftChanged) isAction()      {}
func (ValidationFailed) isAction()  {}
func (RecordCreated) isAction()     {}
func (EditRequested) isAction()     {}
func (EditFieldsChanged) isAction() {}
func (DeleteRequested) isAction()   {}
func (DialogConfirmed) isAction()   {}
func (DialogCancelled) isAction()   {}
func (DialogClosed) isAction()      {}
func (RecordUpdated) isAction()     {}
func (RecordDeleted) isAction()     {}

// Reduce returns the state that results from applying a to s. It does not
// modify s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case RecordsLoaded:
		s.Records = slices.Clone(a.Records)
		if s.Records == nil {
			s.Records = []registry.Record{}
		}
		s.Loaded = true
		s.Endpoints, s.Expanded = prune(s.Endpoints, s.Expanded, s.Records)
		if len(a.Endpoints) > 0 {
			s.Endpoints = withEndpoints(s.Endpoints, a.Endpoints)
		}

	case EndpointsLoaded:
		s.Endpoints = withEndpoints(s.Endpoints, map[int][]string{a.ID: a.Endpoints})

	case SearchChanged:
		s.Search = a.Term

	case ExpansionToggled:
		s.Expanded = maps.Clone(s.Expanded)
		if s.Expanded == nil {
			s.Expanded = make(map[int]bool)
		}
		if s.Expanded[a.ID] {
			delete(s.Expanded, a.ID)
		} else {
			s.Expanded[a.ID] = true
		}

	case FormToggled:
		if s.Form.Open {
			s.Form = Form{}
			s.Alert = ""
		} else {
			s.Form.Open = true
		}

	case DraftChanged:
		s.Form.Draft = a.Draft

	case ValidationFailed:
		s.Alert = a.Message

	case RecordCreated:
		s.Records = append(slices.Clone(s.Records), a.Record)
		s.Form = Form{}
		s.Alert = ""

	case EditRequested:
		if rec, ok := s.Record(a.ID); ok {
			s.Dialog = Dialog{
				Phase:    PhaseOpen,
				Kind:     DialogEdit,
				RecordID: rec.ID,
				Fields:   registry.Draft{Source: rec.Source, URL: rec.URL},
			}
		}

	case EditFieldsChanged:
		if s.Dialog.IsOpen(DialogEdit) {
			s.Dialog.Fields = a.Fields
		}

	case DeleteRequested:
		if _, ok := s.Record(a.ID); ok {
			s.Dialog = Dialog{Phase: PhaseOpen, Kind: DialogDelete, RecordID: a.ID}
		}

	case DialogConfirmed:
		if s.Dialog.Phase == PhaseOpen {
			s.Dialog.Phase = PhaseConfirmed
		}

	case DialogCancelled:
		if s.Dialog.Phase == PhaseOpen {
			s.Dialog.Phase = PhaseCancelled
		}

	case DialogClosed:
		s.Dialog = Dialog{}

	case RecordUpdated:
		i := s.indexOf(a.Record.ID)
		if i >= 0 {
			previous := s.Records[i]
			s.Records = slices.Clone(s.Records)
			s.Records[i] = a.Record
			if previous.URL != a.Record.URL {
				s.Endpoints = withoutKey(s.Endpoints, a.Record.ID)
			}
		}
		s.Dialog = Dialog{}

	case RecordDeleted:
		s.Records = slices.DeleteFunc(slices.Clone(s.Records), func(r registry.Record) bool { return r.ID == a.ID })
		s.Endpoints = withoutKey(s.Endpoints, a.ID)
		s.Expanded = withoutKey(s.Expanded, a.ID)
		s.Dialog = Dialog{}
	}
	return s
}

// withEndpoints returns a copy of cache with entries added. A nil list is
// stored as empty so that it still reads as loaded.
func withEndpoints(cache map[int][]string, entries map[int][]string) map[int][]string {
	out := maps.Clone(cache)
	if out == nil {
		out = make(map[int][]string, len(entries))
	}
	for id, names := range entries {
		if names == nil {
			names = []string{}
		}
		out[id] = slices.Clone(names)
	}
	return out
}

func withoutKey[V any](m map[int]V, id int) map[int]V {
	if _, ok := m[id]; !ok {
		return m
	}
	out := maps.Clone(m)
	delete(out, id)
	return out
}

// prune drops cache and expansion entries for records no longer listed.
func prune(endpoints map[int][]string, expanded map[int]bool, records []registry.Record) (map[int][]string, map[int]bool) {
	live := make(map[int]bool, len(records))
	for _, r := range records {
		live[r.ID] = true
	}
	if len(endpoints) > 0 {
		endpoints = maps.Clone(endpoints)
		maps.DeleteFunc(endpoints, func(id int, _ []string) bool { return !live[id] })
	}
	if len(expanded) > 0 {
		expanded = maps.Clone(expanded)
		maps.DeleteFunc(expanded, func(id int, _ bool) bool { return !live[id] })
	}
	return endpoints, expanded
}
