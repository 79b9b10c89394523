package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// EndpointsOutput is the JSON/YAML shape of the endpoints command.
type EndpointsOutput struct {
	ID        int      `json:"id" yaml:"id"`
	Source    string   `json:"source" yaml:"source"`
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
}

func newEndpointsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints <id>",
		Short: "Show the endpoint names of an API",
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

			ctx := cmd.Context()
			if err := e.session.Init(ctx); err != nil {
				return err
			}
			rec, ok := e.session.State().Record(id)
			if !ok {
				return &notFoundError{id: id}
			}
			if err := e.session.LoadEndpoints(ctx, id); err != nil {
				return recordNotFound(err, id)
			}

			st := e.session.State()
			names, _ := st.EndpointsFor(id)
			if done, err := writeStructured(a.stdout, e.cfg.Output, EndpointsOutput{ID: id, Source: rec.Source, Endpoints: names}); done {
				return err
			}
			renderEndpoints(a.stdout, st, rec)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}
