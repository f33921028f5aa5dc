package session

// Credentials carries the login inputs. Credentials are transient: they are
// the input to the login call and are never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the minimal profile projected from the login response. It is the
// only user data persisted across process restarts.
type User struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Image     string   `json:"image"`
	Roles     []string `json:"roles,omitempty"`
}

// AuthResponse is the POST /auth/login reply. The API returns the token pair
// directly alongside the profile fields.
type AuthResponse struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Gender       string `json:"gender"`
	Image        string `json:"image"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is the POST /auth/refresh reply. Both tokens are opaque bearer
// strings and always rotate together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refreshRequest is the POST /auth/refresh body.
type refreshRequest struct {
	RefreshToken  string `json:"refreshToken"`
	ExpiresInMins int    `json:"expiresInMins"`
}
