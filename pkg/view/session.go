package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/apireg/pkg/logging"
	"github.com/getmockd/apireg/pkg/registry"
	"github.com/getmockd/apireg/pkg/viewer"
)

// Collection is the remote registry as the view uses it.
// *registry.Client implements it.
type Collection interface {
	ListRecords(ctx context.Context) ([]registry.Record, error)
	ListEndpoints(ctx context.Context, id int) ([]string, error)
	CreateRecord(ctx context.Context, draft registry.Draft) (*registry.Record, error)
	UpdateRecord(ctx context.Context, id int, draft registry.Draft) (*registry.Record, error)
	DeleteRecord(ctx context.Context, id int) error
	SchemaURL(id int) string
}

// EndpointPolicy decides when endpoint lists are fetched.
type EndpointPolicy int

const (
	// EndpointsLazy fetches a record's endpoints the first time it is expanded.
	EndpointsLazy EndpointPolicy = iota
	// EndpointsEager fetches every record's endpoints during Init.
	EndpointsEager
)

func (p EndpointPolicy) String() string {
	if p == EndpointsEager {
		return "eager"
	}
	return "lazy"
}

// DefaultPrefetchConcurrency bounds parallel endpoint fetches under EndpointsEager.
const DefaultPrefetchConcurrency = 4

// Session keeps a Store in sync with a remote Collection.
type Session struct {
	coll       Collection
	viewerBase string
	store      *Store
	log        *slog.Logger
	opener     viewer.Opener
	policy     EndpointPolicy
	prefetchN  int

	root   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[int]bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithOpener sets how viewer links are opened.
func WithOpener(o viewer.Opener) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.opener = o
		}
	}
}

// WithEndpointPolicy sets the endpoint fetch policy.
func WithEndpointPolicy(p EndpointPolicy) SessionOption {
	return func(s *Session) {
		s.policy = p
	}
}

// WithPrefetchConcurrency bounds parallel fetches during an eager Init.
func WithPrefetchConcurrency(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.prefetchN = n
		}
	}
}

// NewSession creates a session over coll. viewerBase is the root URL of the
// external schema viewer.
func NewSession(coll Collection, viewerBase string, opts ...SessionOption) *Session {
	root, cancel := context.WithCancel(context.Background())
	s := &Session{
		coll:       coll,
		viewerBase: viewerBase,
		store:      NewStore(State{}),
		log:        logging.Nop(),
		opener:     viewer.BrowserOpener{},
		prefetchN:  DefaultPrefetchConcurrency,
		root:       root,
		cancel:     cancel,
		inflight:   make(map[int]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the session's store.
func (s *Session) Store() *Store {
	return s.store
}

// State returns the current snapshot.
func (s *Session) State() State {
	return s.store.State()
}

// Policy returns the endpoint fetch policy.
func (s *Session) Policy() EndpointPolicy {
	return s.policy
}

// Close tears the session down. In-flight requests are cancelled and their
// results discarded. Close is idempotent.
func (s *Session) Close() {
	s.store.Close()
	s.cancel()
}

// opContext derives a context that ends when either ctx or the session ends.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.store.Closed() {
		return nil, nil, ErrClosed
	}
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.root, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}, nil
}

// dispatch applies a and converts a closed store into ErrClosed.
func (s *Session) dispatch(a Action) (State, error) {
	st, ok := s.store.Dispatch(a)
	if !ok {
		return st, ErrClosed
	}
	return st, nil
}

// failed logs a remote failure and returns it wrapped. Results cut short by
// Close are reported as ErrClosed.
func (s *Session) failed(op string, id int, err error) error {
	if s.store.Closed() && errors.Is(err, context.Canceled) {
		s.log.Debug("discarded result after close", "op", op, "id", id)
		return ErrClosed
	}
	attrs := []any{"op", op, "error", err}
	if id != 0 {
		attrs = append(attrs, "id", id)
	}
	var apiErr *registry.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status", apiErr.StatusCode, "requestId", apiErr.RequestID)
	}
	s.log.Error(op+" failed", attrs...)
	return fmt.Errorf("%s: %w", op, err)
}

// Init loads the collection. Under EndpointsEager it then fetches every
// record's endpoints and applies them in one step once all requests have
// settled; records whose fetch fails stay unloaded.
func (s *Session) Init(ctx context.Context) error {
	ctx, done, err := s.opContext(ctx)
	if err != nil {
		return err
	}
	defer done()

	records, err := s.coll.ListRecords(ctx)
	if err != nil {
		return s.failed("list records", 0, err)
	}

	if s.policy != EndpointsEager {
		_, err := s.dispatch(RecordsLoaded{Records: records})
		return err
	}

	var mu sync.Mutex
	loaded := make(map[int][]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.prefetchN)
	for _, r := range records {
		id := r.ID
		g.Go(func() error {
			names, err := s.coll.ListEndpoints(gctx, id)
			if err != nil {
				_ = s.failed("list endpoints", id, err)
				return nil
			}
			mu.Lock()
			loaded[id] = names
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	_, err = s.dispatch(RecordsLoaded{Records: records, Endpoints: loaded})
	return err
}

// SetSearch updates the search term.
func (s *Session) SetSearch(term string) {
	s.store.Dispatch(SearchChanged{Term: term})
}

// Filtered returns the records matching the current search term.
func (s *Session) Filtered() []registry.Record {
	return Filter(s.store.State())
}

// ToggleEndpoints flips the expansion of id. Expanding a record whose
// endpoints are not cached, and not already being fetched, fetches them
// once. A failed fetch is logged and leaves the cache entry absent.
func (s *Session) ToggleEndpoints(ctx context.Context, id int) error {
	st, err := s.dispatch(ExpansionToggled{ID: id})
	if err != nil {
		return err
	}
	if !st.IsExpanded(id) {
		return nil
	}
	if _, cached := st.EndpointsFor(id); cached {
		return nil
	}
	return s.fetchEndpoints(ctx, id)
}

// LoadEndpoints makes sure id's endpoints are cached without touching its
// expansion flag.
func (s *Session) LoadEndpoints(ctx context.Context, id int) error {
	if _, cached := s.store.State().EndpointsFor(id); cached {
		return nil
	}
	return s.fetchEndpoints(ctx, id)
}

func (s *Session) fetchEndpoints(ctx context.Context, id int) error {
	s.mu.Lock()
	if s.inflight[id] {
		s.mu.Unlock()
		return nil
	}
	s.inflight[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}()

	ctx, done, err := s.opContext(ctx)
	if err != nil {
		return err
	}
	defer done()

	names, err := s.coll.ListEndpoints(ctx, id)
	if err != nil {
		return s.failed("list endpoints", id, err)
	}
	_, err = s.dispatch(EndpointsLoaded{ID: id, Endpoints: names})
	return err
}

// ViewerURL returns the external viewer link for id. It does not check that
// the record exists.
func (s *Session) ViewerURL(id int) string {
	return viewer.Link(s.viewerBase, s.coll.SchemaURL(id))
}

// OpenInViewer opens the viewer link for id in a new browsing context.
func (s *Session) OpenInViewer(id int) (string, error) {
	link := s.ViewerURL(id)
	if err := s.opener.Open(link); err != nil {
		s.log.Error("open viewer failed", "id", id, "url", link, "error", err)
		return link, fmt.Errorf("open viewer: %w", err)
	}
	return link, nil
}

// ToggleForm opens or closes the create form.
func (s *Session) ToggleForm() {
	s.store.Dispatch(FormToggled{})
}

// SetDraft replaces the create-form draft.
func (s *Session) SetDraft(source, url string) {
	s.store.Dispatch(DraftChanged{Draft: registry.Draft{Source: source, URL: url}})
}

// Create submits the draft. An incomplete draft sets the alert and returns
// ErrValidation without calling the registry. On success the server's record
// is appended and the form is reset; on failure the form is left as it was.
func (s *Session) Create(ctx context.Context) (*registry.Record, error) {
	draft := s.store.State().Form.Draft
	if !draft.Complete() {
		if _, err := s.dispatch(ValidationFailed{Message: ErrValidation.Error()}); err != nil {
			return nil, err
		}
		return nil, ErrValidation
	}

	ctx, done, err := s.opContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	created, err := s.coll.CreateRecord(ctx, draft.Trimmed())
	if err != nil {
		return nil, s.failed("create record", 0, err)
	}
	if _, err := s.dispatch(RecordCreated{Record: *created}); err != nil {
		return nil, err
	}
	return created, nil
}

// BeginEdit opens the edit dialog for id, pre-filled with its current values.
func (s *Session) BeginEdit(id int) (Dialog, error) {
	st, err := s.dispatch(EditRequested{ID: id})
	if err != nil {
		return Dialog{}, err
	}
	if !st.Dialog.IsOpen(DialogEdit) || st.Dialog.RecordID != id {
		return Dialog{}, fmt.Errorf("%w: %d", ErrUnknownRecord, id)
	}
	return st.Dialog, nil
}

// SetEditFields replaces the values in the open edit dialog.
func (s *Session) SetEditFields(source, url string) {
	s.store.Dispatch(EditFieldsChanged{Fields: registry.Draft{Source: source, URL: url}})
}

// ConfirmEdit submits the open edit dialog. An empty field cancels the dialog
// and returns ErrAborted without calling the registry. On success the record
// is replaced by the server's copy; on failure the collection is unchanged.
func (s *Session) ConfirmEdit(ctx context.Context) (*registry.Record, error) {
	d := s.store.State().Dialog
	if !d.IsOpen(DialogEdit) {
		return nil, ErrNoDialog
	}
	if !d.Fields.Complete() {
		s.store.Dispatch(DialogCancelled{})
		s.store.Dispatch(DialogClosed{})
		return nil, ErrAborted
	}
	if _, err := s.dispatch(DialogConfirmed{}); err != nil {
		return nil, err
	}

	ctx, done, err := s.opContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	updated, err := s.coll.UpdateRecord(ctx, d.RecordID, d.Fields.Trimmed())
	if err != nil {
		s.store.Dispatch(DialogClosed{})
		return nil, s.failed("update record", d.RecordID, err)
	}
	if _, err := s.dispatch(RecordUpdated{Record: *updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

// BeginDelete opens the delete confirmation for id.
func (s *Session) BeginDelete(id int) (Dialog, error) {
	st, err := s.dispatch(DeleteRequested{ID: id})
	if err != nil {
		return Dialog{}, err
	}
	if !st.Dialog.IsOpen(DialogDelete) || st.Dialog.RecordID != id {
		return Dialog{}, fmt.Errorf("%w: %d", ErrUnknownRecord, id)
	}
	return st.Dialog, nil
}

// ConfirmDelete deletes the record of the open delete dialog. On success it
// is removed locally; on failure the collection is unchanged.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	d := s.store.State().Dialog
	if !d.IsOpen(DialogDelete) {
		return ErrNoDialog
	}
	if _, err := s.dispatch(DialogConfirmed{}); err != nil {
		return err
	}

	ctx, done, err := s.opContext(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := s.coll.DeleteRecord(ctx, d.RecordID); err != nil {
		s.store.Dispatch(DialogClosed{})
		return s.failed("delete record", d.RecordID, err)
	}
	_, err = s.dispatch(RecordDeleted{ID: d.RecordID})
	return err
}

// CancelDialog cancels and closes any open dialog.
func (s *Session) CancelDialog() {
	s.store.Dispatch(DialogCancelled{})
	s.store.Dispatch(DialogClosed{})
}
