package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newViewCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Open an API in the schema viewer",
		Long: `Open the specification of an API in the external schema viewer.

The viewer loads the document through the registry's fetch route. The record
is not looked up first; an unknown ID shows up as a load error in the viewer.`,
		Args: cobra.ExactArgs(1),
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

			if printOnly {
				fmt.Fprintln(a.stdout, e.session.ViewerURL(id))
				return nil
			}
			link, err := e.session.OpenInViewer(id)
			if err != nil {
				return fmt.Errorf("%w\nOpen it manually: %s", err, link)
			}
			fmt.Fprintf(a.stdout, "Opened %s\n", link)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the viewer link instead of opening it")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download the specification document of an API",
		Args:  cobra.ExactArgs(1),
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

			schema, err := e.client.FetchSchema(cmd.Context(), id)
			if err != nil {
				return recordNotFound(err, id)
			}

			if outFile == "" {
				_, err = a.stdout.Write(schema.Body)
				return err
			}
			if err := os.WriteFile(outFile, schema.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			fmt.Fprintf(a.stderr, "Wrote %d bytes (%s) to %s\n", len(schema.Body), schema.ContentType, outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the document to this file instead of stdout")
	return cmd
}
