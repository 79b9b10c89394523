package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apireg/pkg/registry/registrytest"
)

func TestBrowse_Session(t *testing.T) {
	srv := seeded(t)
	h := &harness{stdin: strings.Join([]string{
		"search bill",
		"expand 1",
		"expand 1",
		"search",
		"add",
		"Payments",
		"https://p/openapi.yaml",
		"edit 2",
		"Logistics",
		"",
		"delete 7",
		"y",
		"open 1",
		"quit",
		"list",
	}, "\n") + "\n"}

	res := h.run(t, srv, "browse")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "Endpoints of Billing (1):\n  listInvoices\n  createInvoice\n")
	assert.Contains(t, res.stdout, "Collapsed 1\n")
	assert.Contains(t, res.stdout, "Created record 8: Payments (https://p/openapi.yaml)\n")
	assert.Contains(t, res.stdout, "Updated record 2: Logistics (https://y/swagger.json)\n")
	assert.Contains(t, res.stdout, "Deleted record 7\n")
	assert.Contains(t, res.stdout, "Opened "+testViewer+"/?url="+srv.URL()+"/api/urls/1/fetch\n")
	assert.Contains(t, res.stderr, "Source [Shipping]: ")

	assert.Equal(t, 1, srv.Count(registrytest.RouteList), "the list is loaded once")
	assert.Equal(t, 1, srv.Count(registrytest.RouteEndpoints))
	assert.Equal(t, []int{1, 2, 8}, recordIDs(srv))
}

func TestBrowse_AddKeepsDraftAfterValidation(t *testing.T) {
	srv := seeded(t)
	h := &harness{stdin: "add\nPayments\n\nadd\n\nhttps://p\n"}

	res := h.run(t, srv, "browse")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stderr, "Warning: source and URL are required")
	assert.Contains(t, res.stderr, "Source [Payments]: ")
	assert.Equal(t, 1, srv.Count(registrytest.RouteCreate))
	assert.Contains(t, res.stdout, "Created record 8: Payments (https://p)")
}

func TestBrowse_ErrorsDoNotEndSession(t *testing.T) {
	srv := seeded(t)
	h := &harness{stdin: "bogus\nexpand\nedit 42\ndelete 2\nn\nlist\n"}

	res := h.run(t, srv, "browse")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stderr, `unknown command "bogus"`)
	assert.Contains(t, res.stderr, "usage: expand ID")
	assert.Contains(t, res.stderr, "record not found: 42")
	assert.Contains(t, res.stderr, "Deletion cancelled.")
	assert.Zero(t, srv.Count(registrytest.RouteDelete))
	assert.Equal(t, 2, strings.Count(res.stdout, "Shipping"), "initial list and final list")
}

// lockedBuffer is a bytes.Buffer that can be read while the command writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBrowse_InterruptWhileWaitingForInput(t *testing.T) {
	srv := seeded(t)
	stdin, stdinW := io.Pipe()
	t.Cleanup(func() { _ = stdinW.Close() })

	var stdout, stderr lockedBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	code := make(chan int, 1)
	go func() {
		args := []string{"--api-url", srv.URL(), "--viewer-url", testViewer, "browse"}
		code <- run(ctx, NewRootCmd(WithIO(stdin, &stdout, &stderr)), args, &stderr)
	}()

	require.Eventually(t, func() bool { return strings.Contains(stderr.String(), "apireg> ") },
		2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case c := <-code:
		assert.Equal(t, 0, c, stderr.String())
	case <-time.After(2 * time.Second):
		t.Fatal("browse did not return after its context was cancelled")
	}
	assert.Equal(t, 1, srv.Total(), "only the initial list was requested")
}

func recordIDs(srv *registrytest.Server) []int {
	var out []int
	for _, r := range srv.Records() {
		out = append(out, r.ID)
	}
	return out
}
