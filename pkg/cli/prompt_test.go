package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/view"
)

func linePrompterFor(input string) (*linePrompter, *bytes.Buffer) {
	var out bytes.Buffer
	return &linePrompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestLinePrompter_Draft(t *testing.T) {
	p, out := linePrompterFor("\n-\n")
	d, err := p.Draft("Edit API 2", registry.Draft{Source: "Shipping", URL: "https://y"})
	require.NoError(t, err)
	assert.Equal(t, registry.Draft{Source: "Shipping", URL: ""}, d)
	assert.Equal(t, "Edit API 2\nSource [Shipping]: Specification URL [https://y]: ", out.String())

	p, _ = linePrompterFor("  Payments \nhttps://p")
	d, err = p.Draft("Register an API", registry.Draft{})
	require.NoError(t, err)
	assert.Equal(t, registry.Draft{Source: "Payments", URL: "https://p"}, d)
}

func TestLinePrompter_EOFAborts(t *testing.T) {
	p, _ := linePrompterFor("Payments\n")
	_, err := p.Draft("Register an API", registry.Draft{})
	assert.ErrorIs(t, err, view.ErrAborted)

	p, _ = linePrompterFor("")
	_, err = p.Confirm("Delete?")
	assert.ErrorIs(t, err, view.ErrAborted)
}

func TestLinePrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, out := linePrompterFor(tt.input)
			ok, err := p.Confirm("Delete Billing?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, "Delete Billing? [y/N]: ", out.String())
		})
	}
}

func TestDefaultPrompter_NonTerminal(t *testing.T) {
	in := strings.NewReader("")
	p := defaultPrompter(bufio.NewReader(in), in, &bytes.Buffer{})
	assert.IsType(t, &linePrompter{}, p)
}
