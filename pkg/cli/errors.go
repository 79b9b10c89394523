package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/apireg/pkg/cliconfig"
	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
)

// notFoundError reports an ID missing from the registry.
type notFoundError struct {
	id int
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("record not found: %d", e.id)
}

// recordNotFound converts the not-found flavours of err into a notFoundError.
func recordNotFound(err error, id int) error {
	if errors.Is(err, view.ErrUnknownRecord) || registry.IsNotFound(err) {
		return &notFoundError{id: id}
	}
	return err
}

// FormatError returns the user-facing text for an error returned by a command.
func FormatError(err error) string {
	var ce *cliconfig.ConfigError
	var nf *notFoundError
	switch {
	case errors.As(err, &ce):
		return FormatConfigError(err)
	case registry.IsConnectionError(err):
		return FormatConnectionError(err)
	case errors.As(err, &nf):
		return FormatNotFoundError(nf.id)
	case errors.Is(err, view.ErrValidation):
		return "Error: " + err.Error()
	}
	msg := "Error: " + err.Error()
	var apiErr *registry.APIError
	if errors.As(err, &apiErr) && apiErr.RequestID != "" {
		msg += "\n(request id: " + apiErr.RequestID + ")"
	}
	return msg
}

// FormatConnectionError returns a user-friendly error message for connection errors.
func FormatConnectionError(err error) string {
	var apiErr *registry.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == registry.ErrCodeConnection {
		return fmt.Sprintf(`Error: %s

Suggestions:
  • Check that the registry service is running
  • Verify the registry URL with: apireg config
  • Raise --timeout if the registry is slow to answer`, apiErr.Message)
	}
	return "Error: " + err.Error()
}

// FormatNotFoundError returns a user-friendly error message for not found errors.
func FormatNotFoundError(id int) string {
	return fmt.Sprintf(`Error: record not found: %d

Suggestions:
  • Check the ID with: apireg list
  • Verify you're connected to the right registry: apireg config`, id)
}

// FormatConfigError returns a user-friendly error message for configuration errors.
func FormatConfigError(err error) string {
	lines := strings.Split(err.Error(), "\n")
	var b strings.Builder
	b.WriteString("Error: invalid configuration")
	for _, l := range lines {
		b.WriteString("\n  • " + l)
	}
	b.WriteString(`

Suggestions:
  • Show the effective configuration with: apireg config
  • Set values with flags, APIREG_* variables, or .apiregrc.yaml`)
	return b.String()
}
