package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/cli/internal/output"
	"github.com/getmockd/apireg/pkg/view"
)

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		expand []int
		where  string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered APIs",
		Long: `List the registered APIs.

--search keeps the records whose source, URL or loaded endpoint names contain
the term, ignoring case. --where filters further with an expression over
id, source, url, endpoints, loaded and expanded.`,
		Example: `  # List all APIs
  apireg list

  # Search and show the endpoints of record 3
  apireg list --search billing --expand 3

  # Load every endpoint list and keep the APIs with more than ten endpoints
  apireg list --prefetch --where 'len(endpoints) > 10'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var query *view.Query
			if where != "" {
				q, err := view.CompileQuery(where)
				if err != nil {
					return err
				}
				query = q
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
			e.session.SetSearch(search)

			for _, id := range expand {
				if _, ok := e.session.State().Record(id); !ok {
					output.Warn(a.stderr, "record %d not found", id)
					continue
				}
				// A failed fetch is logged and leaves the list unloaded.
				_ = e.session.ToggleEndpoints(ctx, id)
			}

			st := e.session.State()
			records, err := view.FilterQuery(st, query)
			if err != nil {
				return err
			}
			return renderRecords(a.stdout, e.session, st, records, e.cfg.Output)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show APIs containing this term")
	cmd.Flags().IntSliceVarP(&expand, "expand", "e", nil, "Show the endpoints of these record IDs")
	cmd.Flags().Bool("prefetch", false, "Load every endpoint list up front")
	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression, e.g. 'source startsWith \"Bill\"'")
	return cmd
}
