// Package model defines the data structures used throughout the application.
package model

import "time"

// GitHubUser is the raw profile returned by GitHub's /user endpoint.
// Only the fields the app reads are decoded. Nullable fields are pointers
// because GitHub sends JSON null for them.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Company     *string   `json:"company"`
	Blog        string    `json:"blog"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is the application's view of a signed-in person, derived from a
// GitHubUser once per login. It is never stored server-side: it lives for the
// duration of the callback request and as the source of the session token.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Avatar      string    `json:"avatar"`
	ProfileURL  string    `json:"profileUrl"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	Company     string    `json:"company"`
	Website     string    `json:"website"`
	PublicRepos int       `json:"publicRepos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	JoinedAt    time.Time `json:"joinedAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// SessionUser is the subset of User that travels inside the session token.
// Everything else (bio, counts, timestamps) is dropped at issuance.
type SessionUser struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Avatar   string  `json:"avatar"`
}

// Session returns the token-embedded projection of u.
func (u User) Session() SessionUser {
	return SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// DisplayName prefers the full name and falls back to the login handle.
func (s SessionUser) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.Username
}
