package view

import "errors"

var (
	// ErrValidation is returned by Session.Create when the draft is incomplete.
	ErrValidation = errors.New("source and URL are required")
	// ErrAborted is returned when an edit is confirmed with an empty field.
	ErrAborted = errors.New("cancelled")
	// ErrNoDialog is returned when confirming without a matching open dialog.
	ErrNoDialog = errors.New("no dialog is open")
	// ErrUnknownRecord is returned for an ID not in the loaded collection.
	ErrUnknownRecord = errors.New("record is not loaded")
	// ErrClosed is returned by operations on a closed Session.
	ErrClosed = errors.New("session closed")
)
