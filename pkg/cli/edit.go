package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/view"
)

func newEditCmd(a *app) *cobra.Command {
	var source, url string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the source or URL of an API",
		Long: `Change the source or URL of a registered API.

Without --source or --url both values are asked for, pre-filled with the
current ones. Leaving either empty, or only whitespace, cancels the edit
and leaves the record unchanged. Values are trimmed before they are sent.`,
		Example: `  apireg edit 3 --url https://billing.internal/v2/openapi.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.session.Init(ctx); err != nil {
				return err
			}
			d, err := e.session.BeginEdit(id)
			if err != nil {
				return recordNotFound(err, id)
			}

			fields := d.Fields
			if cmd.Flags().Changed("source") || cmd.Flags().Changed("url") {
				if cmd.Flags().Changed("source") {
					fields.Source = source
				}
				if cmd.Flags().Changed("url") {
					fields.URL = url
				}
			} else {
				fields, err = a.prompt().Draft(fmt.Sprintf("Edit API %d", id), d.Fields)
				if errors.Is(err, view.ErrAborted) {
					e.session.CancelDialog()
					fmt.Fprintln(a.stderr, "Edit cancelled; record unchanged.")
					return nil
				}
				if err != nil {
					return err
				}
			}
			e.session.SetEditFields(fields.Source, fields.URL)

			updated, err := e.session.ConfirmEdit(ctx)
			if errors.Is(err, view.ErrAborted) {
				fmt.Fprintln(a.stderr, "Edit cancelled; record unchanged.")
				return nil
			}
			if err != nil {
				return recordNotFound(err, id)
			}
			return printRecord(a, e, *updated, "Updated")
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "New name of the API")
	cmd.Flags().StringVar(&url, "url", "", "New URL of the OpenAPI document")
	return cmd
}
