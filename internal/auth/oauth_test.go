package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/admin-console/internal/apperror"
	"github.com/sakif/admin-console/internal/model"
)

// fakeGitHub is an httptest stand-in for github.com's token and user endpoints.
type fakeGitHub struct {
	server *httptest.Server

	tokenStatus int
	tokenBody   string
	userStatus  int
	userBody    string
	userDelay   time.Duration

	gotForm   url.Values
	gotBearer string
}

const aliceProfile = `{
	"id": 1,
	"login": "alice",
	"name": "Alice",
	"email": null,
	"avatar_url": "https://x/a.png",
	"html_url": "https://github.com/alice",
	"bio": null,
	"location": "Lisbon",
	"company": null,
	"blog": "https://alice.dev",
	"public_repos": 12,
	"followers": 5,
	"following": 2,
	"created_at": "2015-06-01T10:00:00Z"
}`

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"gho_test","token_type":"bearer","scope":"read:user,user:email"}`,
		userStatus:  http.StatusOK,
		userBody:    aliceProfile,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		fmt.Fprint(w, f.tokenBody)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		f.gotBearer = r.Header.Get("Authorization")
		if f.userDelay > 0 {
			select {
			case <-time.After(f.userDelay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.userStatus)
		fmt.Fprint(w, f.userBody)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitHub) provider(timeout time.Duration) *GitHubProvider {
	return NewGitHubProvider(ProviderConfig{
		ClientID:     "client-123",
		ClientSecret: "shh",
		RedirectURL:  "http://localhost:8080/api/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.server.URL + "/login/oauth/authorize",
			TokenURL: f.server.URL + "/login/oauth/access_token",
		},
		UserURL: f.server.URL + "/user",
		Timeout: timeout,
	})
}

func TestAuthURL(t *testing.T) {
	p := NewGitHubProvider(ProviderConfig{
		ClientID:    "client-123",
		RedirectURL: "http://localhost:8080/api/auth/callback",
	})

	raw := p.AuthURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "/login/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/api/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "read:user user:email", q.Get("scope"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestExchangeCode_Success(t *testing.T) {
	gh := newFakeGitHub(t)

	token, err := gh.provider(time.Second).ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "gho_test", token)
	assert.Equal(t, "the-code", gh.gotForm.Get("code"))
	assert.Equal(t, "client-123", gh.gotForm.Get("client_id"))
	assert.Equal(t, "shh", gh.gotForm.Get("client_secret"))
}

func TestExchangeCode_ProviderErrorBody(t *testing.T) {
	gh := newFakeGitHub(t)
	// GitHub answers a bad code with 200 and an error object.
	gh.tokenBody = `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`

	_, err := gh.provider(time.Second).ExchangeCode(context.Background(), "stale")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrTokenExchange)
	assert.Contains(t, err.Error(), "The code passed is incorrect or expired.")
}

func TestExchangeCode_ErrorCodeWithoutDescription(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.tokenStatus = http.StatusBadRequest
	gh.tokenBody = `{"error":"incorrect_client_credentials"}`

	_, err := gh.provider(time.Second).ExchangeCode(context.Background(), "code")

	assert.ErrorIs(t, err, apperror.ErrTokenExchange)
	assert.Contains(t, err.Error(), "incorrect_client_credentials")
}

func TestExchangeCode_Unreachable(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(time.Second)
	gh.server.Close()

	_, err := p.ExchangeCode(context.Background(), "code")
	assert.ErrorIs(t, err, apperror.ErrTokenExchange)
}

func TestFetchUser_Success(t *testing.T) {
	gh := newFakeGitHub(t)

	user, err := gh.provider(time.Second).FetchUser(context.Background(), "gho_test")
	require.NoError(t, err)

	assert.Equal(t, "Bearer gho_test", gh.gotBearer)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Login)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Alice", *user.Name)
	assert.Nil(t, user.Email)
	assert.Equal(t, 12, user.PublicRepos)
}

func TestFetchUser_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Bad credentials"}`},
		{name: "server error", status: http.StatusBadGateway, body: ``},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "missing id", status: http.StatusOK, body: `{"login":"ghost"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := newFakeGitHub(t)
			gh.userStatus, gh.userBody = tt.status, tt.body

			user, err := gh.provider(time.Second).FetchUser(context.Background(), "gho_test")

			assert.Nil(t, user)
			assert.ErrorIs(t, err, apperror.ErrUserFetch)
		})
	}
}

func TestFetchUser_Timeout(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.userDelay = 2 * time.Second

	_, err := gh.provider(50*time.Millisecond).FetchUser(context.Background(), "gho_test")
	assert.ErrorIs(t, err, apperror.ErrUserFetch)
}

func TestNormalizeUser(t *testing.T) {
	name := "Alice"
	location := "Lisbon"
	joined := time.Date(2015, 6, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	gh := &model.GitHubUser{
		ID:          1,
		Login:       "alice",
		Name:        &name,
		Email:       nil,
		AvatarURL:   "https://x/a.png",
		HTMLURL:     "https://github.com/alice",
		Location:    &location,
		Blog:        "https://alice.dev",
		PublicRepos: 12,
		Followers:   5,
		Following:   2,
		CreatedAt:   joined,
	}

	got := NormalizeUser(gh, now)

	assert.Equal(t, model.User{
		ID:          1,
		Username:    "alice",
		Name:        &name,
		Email:       nil,
		Avatar:      "https://x/a.png",
		ProfileURL:  "https://github.com/alice",
		Bio:         "",
		Location:    "Lisbon",
		Company:     "",
		Website:     "https://alice.dev",
		PublicRepos: 12,
		Followers:   5,
		Following:   2,
		JoinedAt:    joined,
		LastLoginAt: now,
	}, got)
}

// TestFullLoginScenario walks provider profile → normalize → issue → verify.
func TestFullLoginScenario(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(time.Second)
	ts, clock := newTestTokenService(t, 24*time.Hour)

	access, err := p.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	ghUser, err := p.FetchUser(context.Background(), access)
	require.NoError(t, err)

	user := NormalizeUser(ghUser, clock.Now())
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)

	token, err := ts.Issue(user)
	require.NoError(t, err)

	claims, ok := ts.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
}
