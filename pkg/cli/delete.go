package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/view"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an API from the registry",
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

			confirmed, err := confirmDelete(a, e.session, id, yes)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(a.stderr, "Deletion cancelled.")
				return nil
			}
			if err := e.session.ConfirmDelete(ctx); err != nil {
				return recordNotFound(err, id)
			}

			if done, err := writeStructured(a.stdout, e.cfg.Output, map[string]any{"id": id, "deleted": true}); done {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted record %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirmDelete opens the delete dialog for id and asks the user unless yes
// is set. A declined or cancelled prompt closes the dialog.
func confirmDelete(a *app, sess *view.Session, id int, yes bool) (bool, error) {
	if _, err := sess.BeginDelete(id); err != nil {
		return false, recordNotFound(err, id)
	}
	if yes {
		return true, nil
	}

	rec, _ := sess.State().Record(id)
	ok, err := a.prompt().Confirm(fmt.Sprintf("Delete %s (%s)?", rec.Source, rec.URL))
	if err != nil && !errors.Is(err, view.ErrAborted) {
		sess.CancelDialog()
		return false, err
	}
	if !ok {
		sess.CancelDialog()
		return false, nil
	}
	return true, nil
}
