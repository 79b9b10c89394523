package view_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/registry/registrytest"
	"github.com/getmockd/apireg/pkg/view"
	"github.com/getmockd/apireg/pkg/viewer"
)

const viewerBase = "https://viewer.example/"

func seeded(t *testing.T) *registrytest.Server {
	t.Helper()
	srv := registrytest.New(t)
	srv.Seed(
		registry.Record{ID: 1, Source: "Billing", URL: "https://x/openapi.yaml"},
		registry.Record{ID: 2, Source: "Shipping", URL: "https://y/swagger.json"},
		registry.Record{ID: 7, Source: "Accounts", URL: "https://z/openapi.json"},
	)
	srv.SetEndpoints(1, "listInvoices", "createInvoice")
	srv.SetEndpoints(7, "getBalance")
	return srv
}

func newSession(t *testing.T, srv *registrytest.Server, opts ...view.SessionOption) *view.Session {
	t.Helper()
	opts = append([]view.SessionOption{
		view.WithOpener(viewer.OpenerFunc(func(string) error { return nil })),
	}, opts...)
	s := view.NewSession(srv.Client(), viewerBase, opts...)
	t.Cleanup(s.Close)
	return s
}

func initSession(t *testing.T, srv *registrytest.Server, opts ...view.SessionOption) *view.Session {
	t.Helper()
	s := newSession(t, srv, opts...)
	require.NoError(t, s.Init(context.Background()))
	return s
}

func recordIDs(records []registry.Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestInit_Lazy(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)

	st := s.State()
	assert.True(t, st.Loaded)
	assert.Equal(t, []int{1, 2, 7}, recordIDs(st.Records))
	assert.Empty(t, st.Endpoints)
	assert.Equal(t, 1, srv.Total())
	assert.Equal(t, view.EndpointsLazy, s.Policy())
}

func TestInit_Eager(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := newSession(t, srv, view.WithEndpointPolicy(view.EndpointsEager), view.WithPrefetchConcurrency(2))

	var snapshots int
	s.Store().Subscribe(func(view.State) { snapshots++ })

	require.NoError(t, s.Init(context.Background()))

	st := s.State()
	assert.Equal(t, 1, snapshots, "records and endpoints are applied together")
	assert.Equal(t, 3, srv.Count(registrytest.RouteEndpoints))

	names, ok := st.EndpointsFor(1)
	assert.True(t, ok)
	assert.Equal(t, []string{"listInvoices", "createInvoice"}, names)

	names, ok = st.EndpointsFor(2)
	assert.True(t, ok)
	assert.Empty(t, names)
}

func TestInit_EagerFailedFetchStaysUnloaded(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	srv.Fail(registrytest.RouteEndpoints, http.StatusBadGateway)

	s := initSession(t, srv, view.WithEndpointPolicy(view.EndpointsEager))

	st := s.State()
	assert.Len(t, st.Records, 3)
	for _, id := range []int{1, 2, 7} {
		_, ok := st.EndpointsFor(id)
		assert.False(t, ok, "record %d", id)
	}
}

func TestInit_ListFailure(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	srv.Fail(registrytest.RouteList, http.StatusInternalServerError)

	s := newSession(t, srv)
	err := s.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list records")
	assert.False(t, s.State().Loaded)
}

func TestToggleEndpoints_FetchesOnce(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	ctx := context.Background()

	require.NoError(t, s.ToggleEndpoints(ctx, 1))
	st := s.State()
	assert.True(t, st.IsExpanded(1))
	names, ok := st.EndpointsFor(1)
	require.True(t, ok)
	assert.Equal(t, []string{"listInvoices", "createInvoice"}, names)

	// Collapse and expand again: served from the cache.
	require.NoError(t, s.ToggleEndpoints(ctx, 1))
	assert.False(t, s.State().IsExpanded(1))
	require.NoError(t, s.ToggleEndpoints(ctx, 1))

	assert.Equal(t, 1, srv.Count(registrytest.RouteEndpoints))
}

func TestToggleEndpoints_EmptyListIsCached(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)

	require.NoError(t, s.ToggleEndpoints(context.Background(), 2))
	names, ok := s.State().EndpointsFor(2)
	assert.True(t, ok)
	assert.Empty(t, names)
}

func TestToggleEndpoints_FailureLeavesEntryAbsent(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	srv.Fail(registrytest.RouteEndpoints, http.StatusInternalServerError)

	err := s.ToggleEndpoints(context.Background(), 1)
	require.Error(t, err)

	st := s.State()
	assert.True(t, st.IsExpanded(1))
	_, ok := st.EndpointsFor(1)
	assert.False(t, ok)

	// A later expansion retries.
	srv.Recover(registrytest.RouteEndpoints)
	require.NoError(t, s.ToggleEndpoints(context.Background(), 1))
	require.NoError(t, s.ToggleEndpoints(context.Background(), 1))
	_, ok = s.State().EndpointsFor(1)
	assert.True(t, ok)
}

func TestToggleEndpoints_ConcurrentExpandFetchesOnce(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	release := srv.Hold(registrytest.RouteEndpoints)

	done := make(chan error, 1)
	go func() { done <- s.LoadEndpoints(context.Background(), 7) }()

	require.Eventually(t, func() bool { return srv.Count(registrytest.RouteEndpoints) == 1 },
		2*time.Second, 10*time.Millisecond)

	// Expanding while the fetch is in flight does not start another.
	require.NoError(t, s.ToggleEndpoints(context.Background(), 7))
	release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, srv.Count(registrytest.RouteEndpoints))
	names, _ := s.State().EndpointsFor(7)
	assert.Equal(t, []string{"getBalance"}, names)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	s := initSession(t, seeded(t))

	s.SetSearch("bill")
	assert.Equal(t, []int{1}, recordIDs(s.Filtered()))

	s.SetSearch("zzz")
	assert.Empty(t, s.Filtered())
	assert.Len(t, s.State().Records, 3)

	s.SetSearch("")
	assert.Equal(t, []int{1, 2, 7}, recordIDs(s.Filtered()))
}

func TestCreate_ValidationMakesNoCall(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	before := srv.Total()

	s.ToggleForm()
	s.SetDraft("", "https://p/openapi.yaml")

	_, err := s.Create(context.Background())
	require.ErrorIs(t, err, view.ErrValidation)

	st := s.State()
	assert.Equal(t, view.ErrValidation.Error(), st.Alert)
	assert.True(t, st.Form.Open)
	assert.Len(t, st.Records, 3)
	assert.Equal(t, before, srv.Total())
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)

	s.ToggleForm()
	s.SetDraft("  Payments ", "https://p/openapi.yaml")

	created, err := s.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, created.ID)

	st := s.State()
	assert.Equal(t, []int{1, 2, 7, 8}, recordIDs(st.Records))
	assert.Equal(t, "Payments", st.Records[3].Source)
	assert.False(t, st.Form.Open)
	assert.Empty(t, st.Form.Draft.Source)

	srv.Last(t, registrytest.RouteCreate).
		AssertJSONBody(t, `{"source":"Payments","url":"https://p/openapi.yaml"}`)
}

func TestCreate_FailureKeepsForm(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	srv.Fail(registrytest.RouteCreate, http.StatusInternalServerError)

	s.ToggleForm()
	s.SetDraft("Payments", "https://p")

	_, err := s.Create(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.Len(t, st.Records, 3)
	assert.True(t, st.Form.Open)
	assert.Equal(t, "Payments", st.Form.Draft.Source)
}

func TestEdit_Success(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	require.NoError(t, s.LoadEndpoints(context.Background(), 2))

	d, err := s.BeginEdit(2)
	require.NoError(t, err)
	assert.Equal(t, registry.Draft{Source: "Shipping", URL: "https://y/swagger.json"}, d.Fields)

	s.SetEditFields("Logistics", "https://y/v2.json")
	updated, err := s.ConfirmEdit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registry.Record{ID: 2, Source: "Logistics", URL: "https://y/v2.json"}, *updated)

	st := s.State()
	assert.Equal(t, *updated, st.Records[1])
	assert.Equal(t, view.Dialog{}, st.Dialog)
	_, ok := st.EndpointsFor(2)
	assert.False(t, ok, "a new URL invalidates the cached endpoints")

	srv.Last(t, registrytest.RouteUpdate).
		AssertJSONBody(t, `{"source":"Logistics","url":"https://y/v2.json"}`)
}

func TestEdit_EmptyFieldAborts(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)

	_, err := s.BeginEdit(1)
	require.NoError(t, err)
	s.SetEditFields("", "https://x/openapi.yaml")

	_, err = s.ConfirmEdit(context.Background())
	require.ErrorIs(t, err, view.ErrAborted)

	assert.Zero(t, srv.Count(registrytest.RouteUpdate))
	assert.Equal(t, "Billing", s.State().Records[0].Source)
	assert.Equal(t, view.Dialog{}, s.State().Dialog)
}

func TestEdit_Failure(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	srv.Fail(registrytest.RouteUpdate, http.StatusInternalServerError)

	_, err := s.BeginEdit(1)
	require.NoError(t, err)
	s.SetEditFields("Billing v2", "https://x/v2.yaml")

	_, err = s.ConfirmEdit(context.Background())
	require.Error(t, err)

	var apiErr *registry.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Billing", s.State().Records[0].Source)
	assert.Equal(t, view.Dialog{}, s.State().Dialog)
}

func TestEdit_UnknownRecordAndNoDialog(t *testing.T) {
	t.Parallel()
	s := initSession(t, seeded(t))

	_, err := s.BeginEdit(99)
	require.ErrorIs(t, err, view.ErrUnknownRecord)

	_, err = s.ConfirmEdit(context.Background())
	require.ErrorIs(t, err, view.ErrNoDialog)
}

func TestDelete_Confirmed(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	require.NoError(t, s.ToggleEndpoints(context.Background(), 7))

	_, err := s.BeginDelete(7)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmDelete(context.Background()))

	req := srv.Last(t, registrytest.RouteDelete)
	assert.Equal(t, "/api/urls/7", req.Path)

	st := s.State()
	assert.Equal(t, []int{1, 2}, recordIDs(st.Records))
	_, ok := st.EndpointsFor(7)
	assert.False(t, ok)
	assert.False(t, st.IsExpanded(7))
}

func TestDelete_Declined(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)

	_, err := s.BeginDelete(7)
	require.NoError(t, err)
	s.CancelDialog()

	assert.Zero(t, srv.Count(registrytest.RouteDelete))
	assert.Len(t, s.State().Records, 3)
	assert.ErrorIs(t, s.ConfirmDelete(context.Background()), view.ErrNoDialog)
}

func TestDelete_Failure(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	srv.Fail(registrytest.RouteDelete, http.StatusInternalServerError)

	_, err := s.BeginDelete(1)
	require.NoError(t, err)
	err = s.ConfirmDelete(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete record")

	assert.Len(t, s.State().Records, 3)
	assert.Len(t, srv.Records(), 3)
}

func TestOpenInViewer(t *testing.T) {
	t.Parallel()
	srv := seeded(t)

	var opened []string
	s := newSession(t, srv, view.WithOpener(viewer.OpenerFunc(func(u string) error {
		opened = append(opened, u)
		return nil
	})))

	link, err := s.OpenInViewer(7)
	require.NoError(t, err)

	want := "https://viewer.example/?url=" + srv.URL() + "/api/urls/7/fetch"
	assert.Equal(t, want, link)
	assert.Equal(t, []string{want}, opened)
	assert.Zero(t, srv.Total(), "opening the viewer does not call the registry")
}

func TestOpenInViewer_OpenerError(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := newSession(t, srv, view.WithOpener(viewer.OpenerFunc(func(string) error {
		return errors.New("no display")
	})))

	link, err := s.OpenInViewer(1)
	require.Error(t, err)
	assert.NotEmpty(t, link)
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	before := s.State()

	release := srv.Hold(registrytest.RouteEndpoints)
	defer release()

	done := make(chan error, 1)
	go func() { done <- s.ToggleEndpoints(context.Background(), 1) }()

	require.Eventually(t, func() bool { return srv.Count(registrytest.RouteEndpoints) == 1 },
		2*time.Second, 10*time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, view.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after Close")
	}

	st := s.State()
	_, ok := st.EndpointsFor(1)
	assert.False(t, ok)
	assert.Equal(t, before.Records, st.Records)
}

// closeWhileHeld runs op with route held at the fake, closes the session once
// the request has arrived and returns op's error.
func closeWhileHeld(t *testing.T, srv *registrytest.Server, s *view.Session, route registrytest.Route, op func() error) error {
	t.Helper()
	release := srv.Hold(route)
	defer release()

	done := make(chan error, 1)
	go func() { done <- op() }()

	require.Eventually(t, func() bool { return srv.Count(route) >= 1 },
		2*time.Second, 10*time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return after Close", route)
		return nil
	}
}

func TestClose_DuringEagerInit(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := newSession(t, srv, view.WithEndpointPolicy(view.EndpointsEager))

	err := closeWhileHeld(t, srv, s, registrytest.RouteEndpoints, func() error {
		return s.Init(context.Background())
	})
	assert.ErrorIs(t, err, view.ErrClosed)

	st := s.State()
	assert.False(t, st.Loaded)
	assert.Empty(t, st.Records)
	assert.Empty(t, st.Endpoints)
}

func TestClose_DuringCreate(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	s.ToggleForm()
	s.SetDraft("Payments", "https://p/openapi.yaml")
	before := s.State()

	err := closeWhileHeld(t, srv, s, registrytest.RouteCreate, func() error {
		_, err := s.Create(context.Background())
		return err
	})
	assert.ErrorIs(t, err, view.ErrClosed)

	st := s.State()
	assert.Equal(t, before.Records, st.Records)
	assert.Equal(t, before.Form, st.Form)
	assert.Equal(t, []int{1, 2, 7}, recordIDs(srv.Records()))
}

func TestClose_DuringEdit(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	require.NoError(t, s.ToggleEndpoints(context.Background(), 1))
	_, err := s.BeginEdit(1)
	require.NoError(t, err)
	s.SetEditFields("Billing v2", "https://x/v2.yaml")
	before := s.State()

	err = closeWhileHeld(t, srv, s, registrytest.RouteUpdate, func() error {
		_, err := s.ConfirmEdit(context.Background())
		return err
	})
	assert.ErrorIs(t, err, view.ErrClosed)

	st := s.State()
	assert.Equal(t, before.Records, st.Records)
	names, ok := st.EndpointsFor(1)
	assert.True(t, ok, "the endpoint cache survives")
	assert.Equal(t, []string{"listInvoices", "createInvoice"}, names)
	assert.Equal(t, "Billing", srv.Records()[0].Source)
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	t.Parallel()
	srv := seeded(t)
	s := initSession(t, srv)
	s.Close()
	total := srv.Total()

	assert.ErrorIs(t, s.Init(context.Background()), view.ErrClosed)
	assert.ErrorIs(t, s.ToggleEndpoints(context.Background(), 1), view.ErrClosed)
	_, err := s.BeginDelete(1)
	assert.ErrorIs(t, err, view.ErrClosed)
	assert.Equal(t, total, srv.Total())
}
