package poststore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dashlite/go-admin-client/api"
	"github.com/dashlite/go-admin-client/poststore"
)

type postServerState struct {
	lock      sync.Mutex
	listCalls int
	failList  bool
	failGet   bool
}

func (s *postServerState) setFailList(fail bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failList = fail
}

func (s *postServerState) setFailGet(fail bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failGet = fail
}

func newPostServer(t *testing.T) (*httptest.Server, *postServerState) {
	t.Helper()
	state := &postServerState{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		state.lock.Lock()
		state.listCalls++
		fail := state.failList
		state.lock.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "posts are down"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.PostPage{
			Posts: []api.Post{
				{ID: 1, Title: "first", UserID: 5},
				{ID: 2, Title: "second", UserID: 5},
			},
			Total: 45,
			Skip:  0,
			Limit: 30,
		})
	})
	mux.HandleFunc("GET /posts/1", func(w http.ResponseWriter, r *http.Request) {
		state.lock.Lock()
		fail := state.failGet
		state.lock.Unlock()

		if fail {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Post with id '1' not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.Post{ID: 1, Title: "first", Body: "content", UserID: 5})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, state
}

func newStore(t *testing.T) (*poststore.Store, *postServerState) {
	t.Helper()
	server, state := newPostServer(t)
	client, err := api.NewClient(server.URL, server.Client())
	require.NoError(t, err)
	return poststore.New(client.Posts), state
}

func TestStore_Load(t *testing.T) {
	t.Run("starts empty with the default page size", func(t *testing.T) {
		store, _ := newStore(t)

		snapshot := store.Snapshot()
		require.False(t, snapshot.HasPosts())
		require.False(t, snapshot.Loading)
		require.Equal(t, 10, snapshot.Limit)
	})

	t.Run("fills posts, totals and paging from the listing", func(t *testing.T) {
		store, state := newStore(t)

		require.NoError(t, store.Load(context.Background()))

		snapshot := store.Snapshot()
		require.True(t, snapshot.HasPosts())
		require.Len(t, snapshot.Posts, 2)
		require.Equal(t, 45, snapshot.Total)
		require.Equal(t, 30, snapshot.Limit)
		require.Equal(t, 0, snapshot.CurrentPage())
		require.Equal(t, 2, snapshot.TotalPages())
		require.False(t, snapshot.Loading)
		require.NoError(t, snapshot.Err)
		require.Equal(t, 1, state.listCalls)
	})

	t.Run("a failed fetch records the error and keeps the old posts", func(t *testing.T) {
		store, state := newStore(t)
		require.NoError(t, store.Load(context.Background()))

		state.setFailList(true)
		err := store.Load(context.Background())
		require.Error(t, err)

		snapshot := store.Snapshot()
		require.Error(t, snapshot.Err)
		require.False(t, snapshot.Loading)
		require.Len(t, snapshot.Posts, 2)
	})

	t.Run("a following success clears the recorded error", func(t *testing.T) {
		store, state := newStore(t)
		state.setFailList(true)
		require.Error(t, store.Load(context.Background()))

		state.setFailList(false)
		require.NoError(t, store.Load(context.Background()))
		require.NoError(t, store.Snapshot().Err)
	})
}

func TestStore_LoadPost(t *testing.T) {
	t.Run("fills the selected slot", func(t *testing.T) {
		store, _ := newStore(t)

		require.NoError(t, store.LoadPost(context.Background(), 1))

		snapshot := store.Snapshot()
		require.NotNil(t, snapshot.Selected)
		require.Equal(t, "first", snapshot.Selected.Title)
		require.False(t, snapshot.SelectedLoading)
	})

	t.Run("a missing post records the error and leaves the slot empty", func(t *testing.T) {
		store, state := newStore(t)
		state.setFailGet(true)

		err := store.LoadPost(context.Background(), 1)
		require.Error(t, err)

		snapshot := store.Snapshot()
		require.Nil(t, snapshot.Selected)
		require.False(t, snapshot.SelectedLoading)
		require.Error(t, snapshot.Err)
	})
}

func TestStore_Subscribe(t *testing.T) {
	t.Run("subscribers see the loading flip and the loaded state", func(t *testing.T) {
		store, _ := newStore(t)
		updates, cancel := store.Subscribe()
		defer cancel()

		require.NoError(t, store.Load(context.Background()))

		first := receive(t, updates)
		require.True(t, first.Loading)

		second := receive(t, updates)
		require.False(t, second.Loading)
		require.Len(t, second.Posts, 2)
	})

	t.Run("cancel closes the channel and stops updates", func(t *testing.T) {
		store, _ := newStore(t)
		updates, cancel := store.Subscribe()

		cancel()
		_, open := <-updates
		require.False(t, open)

		// A second cancel is harmless and later loads must not panic.
		cancel()
		require.NoError(t, store.Load(context.Background()))
	})

	t.Run("cancelling while loads are in flight never panics", func(t *testing.T) {
		store, _ := newStore(t)

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = store.Load(context.Background())
				}
			}
		}()

		for i := 0; i < 200; i++ {
			updates, cancel := store.Subscribe()
			go func() {
				for range updates {
				}
			}()
			cancel()
		}
		close(done)
		wg.Wait()
	})
}

func receive(t *testing.T, ch <-chan poststore.State) poststore.State {
	t.Helper()
	select {
	case state := <-ch:
		return state
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a state update")
		return poststore.State{}
	}
}
