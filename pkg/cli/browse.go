package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/apireg/pkg/cli/internal/output"
	"github.com/getmockd/apireg/pkg/view"
)

const browseHelp = `Commands:
  list                 show the (filtered) list
  search [TERM]        filter by TERM; no TERM clears the filter
  expand ID            show or hide the endpoints of ID
  add                  register a new API
  edit ID              change the source or URL of ID
  delete ID            remove ID after confirmation
  open ID              open ID in the schema viewer
  reload               fetch the list again
  cancel               close the add form
  help                 show this help
  quit                 leave`

func newBrowseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive session over the API list",
		Long: `Start an interactive session over the registered APIs. The list is
loaded once and kept in sync with every change made in the session.

` + browseHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			unsubscribe := e.session.Store().Subscribe(func(st view.State) {
				e.log.Debug("view updated",
					"records", len(st.Records),
					"search", st.Search,
					"dialog", st.Dialog.Kind.String(),
					"phase", st.Dialog.Phase.String())
			})
			defer unsubscribe()

			ctx := cmd.Context()
			if err := e.session.Init(ctx); err != nil {
				return err
			}

			b := &browser{a: a, e: e}
			if err := b.list(); err != nil {
				return err
			}
			return b.loop(ctx)
		},
	}

	cmd.Flags().Bool("prefetch", false, "Load every endpoint list up front")
	return cmd
}

// browser is the read-eval loop of the browse command.
type browser struct {
	a *app
	e *env
}

func (b *browser) loop(ctx context.Context) error {
	for {
		fmt.Fprint(b.a.stderr, "apireg> ")
		line, err := b.readLine(ctx)
		if ctx.Err() != nil {
			// Interrupted: end the session without running a pending line.
			fmt.Fprintln(b.a.stderr)
			return nil
		}
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(b.a.stderr)
				return nil
			}
			return err
		}

		quit, err := b.exec(ctx, strings.Fields(line))
		if quit {
			return nil
		}
		if errors.Is(err, view.ErrClosed) || ctx.Err() != nil {
			return err
		}
		if err != nil {
			fmt.Fprintln(b.a.stderr, FormatError(err))
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine reads the next input line, giving up when ctx ends. A read cut
// short by ctx keeps its goroutine parked on stdin; the session is over by then.
func (b *browser) readLine(ctx context.Context) (string, error) {
	in := b.a.input()
	ch := make(chan lineResult, 1)
	go func() {
		line, err := in.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// exec runs one command line. It reports true when the session should end.
func (b *browser) exec(ctx context.Context, words []string) (bool, error) {
	if len(words) == 0 {
		return false, nil
	}
	sess := b.e.session
	cmd, rest := strings.ToLower(words[0]), words[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		fmt.Fprintln(b.a.stdout, browseHelp)
		return false, nil

	case "list", "ls":
		return false, b.list()

	case "search", "s":
		sess.SetSearch(strings.Join(rest, " "))
		return false, b.list()

	case "reload":
		if err := sess.Init(ctx); err != nil {
			return false, err
		}
		return false, b.list()

	case "cancel":
		if sess.State().Form.Open {
			sess.ToggleForm()
		}
		sess.CancelDialog()
		return false, nil

	case "add", "new":
		return false, b.add(ctx)
	}

	switch cmd {
	case "expand", "toggle", "e", "edit", "delete", "rm", "open", "view":
	default:
		return false, fmt.Errorf("unknown command %q (type help for commands)", cmd)
	}
	if len(rest) != 1 {
		return false, fmt.Errorf("usage: %s ID", cmd)
	}
	id, err := parseID(rest[0])
	if err != nil {
		return false, err
	}

	switch cmd {
	case "expand", "toggle", "e":
		return false, b.expand(ctx, id)
	case "edit":
		return false, b.edit(ctx, id)
	case "delete", "rm":
		return false, b.delete(ctx, id)
	case "open", "view":
		link, err := sess.OpenInViewer(id)
		if err != nil {
			return false, fmt.Errorf("%w\nOpen it manually: %s", err, link)
		}
		fmt.Fprintf(b.a.stdout, "Opened %s\n", link)
	}
	return false, nil
}

func (b *browser) list() error {
	st := b.e.session.State()
	return renderRecords(b.a.stdout, b.e.session, st, view.Filter(st), b.e.cfg.Output)
}

func (b *browser) expand(ctx context.Context, id int) error {
	sess := b.e.session
	rec, ok := sess.State().Record(id)
	if !ok {
		return &notFoundError{id: id}
	}
	err := sess.ToggleEndpoints(ctx, id)
	st := sess.State()
	if !st.IsExpanded(id) {
		fmt.Fprintf(b.a.stdout, "Collapsed %d\n", id)
		return nil
	}
	renderEndpoints(b.a.stdout, st, rec)
	return err
}

func (b *browser) add(ctx context.Context) error {
	sess := b.e.session
	if !sess.State().Form.Open {
		sess.ToggleForm()
	}

	draft, err := b.a.prompt().Draft("Register an API", sess.State().Form.Draft)
	if errors.Is(err, view.ErrAborted) {
		sess.ToggleForm()
		fmt.Fprintln(b.a.stderr, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	sess.SetDraft(draft.Source, draft.URL)
	created, err := sess.Create(ctx)
	if errors.Is(err, view.ErrValidation) {
		output.Warn(b.a.stderr, "%s (type add to try again, cancel to discard)", sess.State().Alert)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(b.a.stdout, "Created record %d: %s (%s)\n", created.ID, created.Source, created.URL)
	return nil
}

func (b *browser) edit(ctx context.Context, id int) error {
	sess := b.e.session
	d, err := sess.BeginEdit(id)
	if err != nil {
		return recordNotFound(err, id)
	}

	fields, err := b.a.prompt().Draft(fmt.Sprintf("Edit API %d", id), d.Fields)
	if err != nil {
		sess.CancelDialog()
		if errors.Is(err, view.ErrAborted) {
			fmt.Fprintln(b.a.stderr, "Edit cancelled; record unchanged.")
			return nil
		}
		return err
	}
	sess.SetEditFields(fields.Source, fields.URL)

	updated, err := sess.ConfirmEdit(ctx)
	if errors.Is(err, view.ErrAborted) {
		fmt.Fprintln(b.a.stderr, "Edit cancelled; record unchanged.")
		return nil
	}
	if err != nil {
		return recordNotFound(err, id)
	}
	fmt.Fprintf(b.a.stdout, "Updated record %d: %s (%s)\n", updated.ID, updated.Source, updated.URL)
	return nil
}

func (b *browser) delete(ctx context.Context, id int) error {
	sess := b.e.session
	ok, err := confirmDelete(b.a, sess, id, false)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(b.a.stderr, "Deletion cancelled.")
		return nil
	}
	if err := sess.ConfirmDelete(ctx); err != nil {
		return recordNotFound(err, id)
	}
	fmt.Fprintf(b.a.stdout, "Deleted record %d\n", id)
	return nil
}
