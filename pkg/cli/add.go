package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
)

func newAddCmd(a *app) *cobra.Command {
	var source, url string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new API",
		Long: `Register a new API specification with the registry.

Without --source and --url the values are asked for interactively. Both
are required and are trimmed before they are sent.`,
		Example: `  apireg add --source Billing --url https://billing.internal/openapi.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			draft := registry.Draft{Source: source, URL: url}
			if !cmd.Flags().Changed("source") && !cmd.Flags().Changed("url") {
				draft, err = a.prompt().Draft("Register an API", draft)
				if errors.Is(err, view.ErrAborted) {
					fmt.Fprintln(a.stderr, "Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
			}

			created, err := createRecord(cmd, e.session, draft)
			if err != nil {
				return err
			}
			return printRecord(a, e, *created, "Created")
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Name of the API")
	cmd.Flags().StringVar(&url, "url", "", "URL of the OpenAPI document")
	return cmd
}

// createRecord submits draft through the session's create form.
func createRecord(cmd *cobra.Command, sess *view.Session, draft registry.Draft) (*registry.Record, error) {
	if !sess.State().Form.Open {
		sess.ToggleForm()
	}
	sess.SetDraft(draft.Source, draft.URL)
	return sess.Create(cmd.Context())
}

// printRecord reports a single record after a change.
func printRecord(a *app, e *env, r registry.Record, verb string) error {
	if done, err := writeStructured(a.stdout, e.cfg.Output, recordOutput(e.session, e.session.State(), r)); done {
		return err
	}
	fmt.Fprintf(a.stdout, "%s record %d: %s (%s)\n", verb, r.ID, r.Source, r.URL)
	return nil
}
