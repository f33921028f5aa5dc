// Package poststore caches the post listing with loading and error flags: a
// small request/response cache behind the dashboard's posts screens.
package poststore

import (
	"context"
	"sync"

	"github.com/dashlite/go-admin-client/api"
)

const defaultLimit = 10

// State is a snapshot of the cached posts. Mutation happens only inside the
// Store; callers treat a snapshot as read-only.
type State struct {
	Posts []api.Post
	Total int
	Skip  int
	Limit int

	Loading bool
	Err     error

	Selected        *api.Post
	SelectedLoading bool
}

// CurrentPage derives the zero-based page number from skip and limit.
func (s State) CurrentPage() int {
	if s.Limit == 0 {
		return 0
	}
	return s.Skip / s.Limit
}

// TotalPages derives the page count from total and limit.
func (s State) TotalPages() int {
	if s.Limit == 0 {
		return 0
	}
	return (s.Total + s.Limit - 1) / s.Limit
}

func (s State) HasPosts() bool {
	return len(s.Posts) > 0
}

// Store holds the cached post state and notifies subscribers on every
// change.
type Store struct {
	posts *api.PostService

	lock        sync.RWMutex
	state       State
	subscribers map[int]chan State
	nextSubID   int
}

func New(posts *api.PostService) *Store {
	return &Store{
		posts:       posts,
		state:       State{Limit: defaultLimit},
		subscribers: make(map[int]chan State),
	}
}

// Load fetches the post listing, flipping the loading flag around the call.
// A failed fetch leaves the previous posts in place and records the error.
func (st *Store) Load(ctx context.Context) error {
	st.patch(func(s *State) {
		s.Loading = true
		s.Err = nil
	})

	page, err := st.posts.List(ctx)
	if err != nil {
		st.patch(func(s *State) {
			s.Loading = false
			s.Err = err
		})
		return err
	}

	st.patch(func(s *State) {
		s.Posts = page.Posts
		s.Total = page.Total
		s.Skip = page.Skip
		if page.Limit > 0 {
			s.Limit = page.Limit
		}
		s.Loading = false
	})
	return nil
}

// LoadPost fetches a single post into the Selected slot.
func (st *Store) LoadPost(ctx context.Context, id int) error {
	st.patch(func(s *State) {
		s.Selected = nil
		s.SelectedLoading = true
		s.Err = nil
	})

	post, err := st.posts.Get(ctx, id)
	if err != nil {
		st.patch(func(s *State) {
			s.SelectedLoading = false
			s.Err = err
		})
		return err
	}

	st.patch(func(s *State) {
		s.Selected = post
		s.SelectedLoading = false
	})
	return nil
}

// Snapshot returns the current state.
func (st *Store) Snapshot() State {
	st.lock.RLock()
	defer st.lock.RUnlock()
	return st.state
}

// Subscribe returns a channel receiving a snapshot after every state change,
// and a cancel function. A slow subscriber drops updates rather than block
// the store.
func (st *Store) Subscribe() (<-chan State, func()) {
	st.lock.Lock()
	defer st.lock.Unlock()

	id := st.nextSubID
	st.nextSubID++
	ch := make(chan State, 8)
	st.subscribers[id] = ch

	cancel := func() {
		st.lock.Lock()
		defer st.lock.Unlock()
		if sub, ok := st.subscribers[id]; ok {
			delete(st.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (st *Store) patch(mutate func(*State)) {
	st.lock.Lock()
	defer st.lock.Unlock()

	mutate(&st.state)

	// Fan out while still holding the lock: cancel closes a subscriber
	// channel under the same lock, so no send can land on a closed channel.
	// The sends never block, a full subscriber just misses the update.
	for _, ch := range st.subscribers {
		select {
		case ch <- st.state:
		default:
		}
	}
}
