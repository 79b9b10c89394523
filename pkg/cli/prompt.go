package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
)

// Prompter collects interactive input. A prompt the user cancels returns
// view.ErrAborted.
type Prompter interface {
	// Draft asks for a source and URL, starting from initial.
	Draft(title string, initial registry.Draft) (registry.Draft, error)
	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// defaultPrompter uses huh forms on a terminal and plain line prompts
// otherwise.
func defaultPrompter(in *bufio.Reader, stdin io.Reader, out io.Writer) Prompter {
	if f, ok := stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return huhPrompter{}
	}
	return &linePrompter{in: in, out: out}
}

// huhPrompter prompts with huh forms.
type huhPrompter struct{}

func (huhPrompter) Draft(title string, initial registry.Draft) (registry.Draft, error) {
	d := initial
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Source").
				Description("Name of the API or team that owns it").
				Placeholder("Billing").
				Value(&d.Source),
			huh.NewInput().
				Title("Specification URL").
				Description("Where the registry can download the OpenAPI document").
				Placeholder("https://example.com/openapi.yaml").
				Value(&d.URL),
		).Title(title),
	)
	if err := form.Run(); err != nil {
		return registry.Draft{}, promptError(err)
	}
	return d, nil
}

func (huhPrompter) Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, promptError(err)
	}
	return ok, nil
}

func promptError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return view.ErrAborted
	}
	return fmt.Errorf("prompt: %w", err)
}

// linePrompter reads answers line by line, for pipes and scripts. In Draft
// an empty answer keeps the shown value and "-" clears it.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *linePrompter) Draft(title string, initial registry.Draft) (registry.Draft, error) {
	fmt.Fprintln(p.out, title)
	source, err := p.field("Source", initial.Source)
	if err != nil {
		return registry.Draft{}, err
	}
	url, err := p.field("Specification URL", initial.URL)
	if err != nil {
		return registry.Draft{}, err
	}
	return registry.Draft{Source: source, URL: url}, nil
}

func (p *linePrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *linePrompter) field(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	switch answer {
	case "":
		return current, nil
	case "-":
		return "", nil
	}
	return answer, nil
}

// readLine returns the next line without its terminator. End of input
// before any text cancels the prompt.
func (p *linePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", view.ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
