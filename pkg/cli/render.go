package cli

import (
	"fmt"
	"io"

	"github.com/getmockd/apireg/pkg/cli/internal/output"
	"github.com/getmockd/apireg/pkg/cliconfig"
	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
)

// RecordOutput is the JSON/YAML shape of one record. Endpoints is null until
// the endpoint list has been loaded.
type RecordOutput struct {
	ID              int      `json:"id" yaml:"id"`
	Source          string   `json:"source" yaml:"source"`
	URL             string   `json:"url" yaml:"url"`
	EndpointsLoaded bool     `json:"endpointsLoaded" yaml:"endpointsLoaded"`
	Endpoints       []string `json:"endpoints" yaml:"endpoints"`
	Expanded        bool     `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	ViewerURL       string   `json:"viewerUrl" yaml:"viewerUrl"`
}

func recordOutput(sess *view.Session, st view.State, r registry.Record) RecordOutput {
	names, loaded := st.EndpointsFor(r.ID)
	return RecordOutput{
		ID:              r.ID,
		Source:          r.Source,
		URL:             r.URL,
		EndpointsLoaded: loaded,
		Endpoints:       names,
		Expanded:        st.IsExpanded(r.ID),
		ViewerURL:       sess.ViewerURL(r.ID),
	}
}

// writeStructured writes v in the configured structured format. It reports
// false for table output, leaving the rendering to the caller.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case cliconfig.OutputJSON:
		return true, output.JSON(w, v)
	case cliconfig.OutputYAML:
		return true, output.YAML(w, v)
	}
	return false, nil
}

// renderRecords writes records as a table, followed by the endpoint list of
// every expanded record.
func renderRecords(w io.Writer, sess *view.Session, st view.State, records []registry.Record, format string) error {
	if format != cliconfig.OutputTable {
		out := make([]RecordOutput, 0, len(records))
		for _, r := range records {
			out = append(out, recordOutput(sess, st, r))
		}
		_, err := writeStructured(w, format, out)
		return err
	}

	if len(records) == 0 {
		if st.Search != "" {
			fmt.Fprintf(w, "No APIs match %q\n", st.Search)
		} else {
			fmt.Fprintln(w, "No APIs registered")
		}
		return nil
	}

	tw := output.Table(w)
	fmt.Fprintln(tw, "ID\tSOURCE\tURL\tENDPOINTS")
	for _, r := range records {
		count := "-"
		if names, ok := st.EndpointsFor(r.ID); ok {
			count = fmt.Sprint(len(names))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Source, r.URL, count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range records {
		if st.IsExpanded(r.ID) {
			fmt.Fprintln(w)
			renderEndpoints(w, st, r)
		}
	}
	return nil
}

// renderEndpoints writes the endpoint section of one record.
func renderEndpoints(w io.Writer, st view.State, r registry.Record) {
	fmt.Fprintf(w, "Endpoints of %s (%d):\n", r.Source, r.ID)
	names, ok := st.EndpointsFor(r.ID)
	switch {
	case !ok:
		fmt.Fprintln(w, "  (not loaded)")
	case len(names) == 0:
		fmt.Fprintln(w, "  (none)")
	default:
		for _, n := range names {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
}
