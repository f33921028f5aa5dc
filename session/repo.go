package session

// TokenStore persists the token pair and the logged-in user's profile across
// process restarts. Once logged in, both tokens are always persisted together.
//
// Reads fail soft: an absent or malformed value comes back as a zero value,
// never as an error. Profile data is not safety critical, and a corrupt store
// must degrade to a logged-out session rather than a crash.
type TokenStore interface {
	SaveTokens(accessToken, refreshToken string) error
	AccessToken() string
	RefreshToken() string
	SaveUser(user *User) error
	User() *User
	Clear() error
}
