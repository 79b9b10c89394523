package view

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_DispatchAndSubscribe(t *testing.T) {
	s := NewStore(sample())

	var seen []string
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st.Search) })

	st, ok := s.Dispatch(SearchChanged{Term: "a"})
	assert.True(t, ok)
	assert.Equal(t, "a", st.Search)
	assert.Equal(t, "a", s.State().Search)

	unsubscribe()
	s.Dispatch(SearchChanged{Term: "b"})

	assert.Equal(t, []string{"a"}, seen)
	assert.Equal(t, "b", s.State().Search)
}

func TestStore_SubscriberMayReadState(t *testing.T) {
	s := NewStore(State{})
	var got State
	s.Subscribe(func(State) { got = s.State() })

	s.Dispatch(SearchChanged{Term: "x"})
	assert.Equal(t, "x", got.Search)
}

func TestStore_Close(t *testing.T) {
	s := NewStore(sample())
	calls := 0
	s.Subscribe(func(State) { calls++ })

	s.Close()
	s.Close()
	assert.True(t, s.Closed())

	st, ok := s.Dispatch(RecordDeleted{ID: 1})
	assert.False(t, ok)
	assert.Len(t, st.Records, 3)
	assert.Len(t, s.State().Records, 3)
	assert.Zero(t, calls)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := NewStore(sample())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(ExpansionToggled{ID: 1})
		}()
	}
	wg.Wait()

	// An even number of toggles leaves the record collapsed.
	assert.False(t, s.State().IsExpanded(1))
}

func TestStore_SubscribersSeeSnapshotsInOrder(t *testing.T) {
	s := NewStore(State{})

	var mu sync.Mutex
	var seen []string
	entered := make(chan struct{})
	release := make(chan struct{})
	s.Subscribe(func(st State) {
		if st.Search == "a" {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, st.Search)
		mu.Unlock()
	})

	first := make(chan struct{})
	go func() {
		s.Dispatch(SearchChanged{Term: "a"})
		close(first)
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		s.Dispatch(SearchChanged{Term: "ab"})
		close(second)
	}()

	// The second dispatch waits until the first one has notified everyone.
	select {
	case <-second:
		t.Fatal("second dispatch completed while the first was still notifying")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-first
	<-second

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "ab"}, seen)
	assert.Equal(t, "ab", s.State().Search)
}
