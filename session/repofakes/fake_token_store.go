package repofakes

import (
	"sync"

	"github.com/dashlite/go-admin-client/session"
)

var _ session.TokenStore = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory TokenStore for tests.
type FakeTokenStore struct {
	lock         sync.RWMutex
	accessToken  string
	refreshToken string
	user         *session.User

	SaveTokensCallCount int
	SaveUserCallCount   int
	ClearCallCount      int

	SaveUserErr error
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

func (ts *FakeTokenStore) SaveTokens(accessToken, refreshToken string) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.SaveTokensCallCount++
	ts.accessToken = accessToken
	ts.refreshToken = refreshToken
	return nil
}

func (ts *FakeTokenStore) AccessToken() string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.accessToken
}

func (ts *FakeTokenStore) RefreshToken() string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.refreshToken
}

func (ts *FakeTokenStore) SaveUser(user *session.User) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.SaveUserCallCount++
	if ts.SaveUserErr != nil {
		return ts.SaveUserErr
	}
	ts.user = user
	return nil
}

func (ts *FakeTokenStore) User() *session.User {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	if ts.user == nil {
		return nil
	}
	user := *ts.user
	return &user
}

func (ts *FakeTokenStore) Clear() error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.ClearCallCount++
	ts.accessToken = ""
	ts.refreshToken = ""
	ts.user = nil
	return nil
}
