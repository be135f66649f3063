package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setCookieHeaders serializes cookies exactly as a handler would.
func setCookieHeaders(cookies ...*http.Cookie) []string {
	rec := httptest.NewRecorder()
	for _, c := range cookies {
		http.SetCookie(rec, c)
	}
	return rec.Result().Header.Values("Set-Cookie")
}

func TestSession_Attributes(t *testing.T) {
	f := NewCookieFactory(false)

	c := f.Session("aaa.bbb.ccc", 86400*time.Second)

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "aaa.bbb.ccc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 86400, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	header := setCookieHeaders(c)[0]
	assert.Contains(t, header, "auth_token=aaa.bbb.ccc")
	assert.Contains(t, header, "Max-Age=86400")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "SameSite=Lax")
	assert.NotContains(t, header, "Secure")
}

func TestSession_SecureInProduction(t *testing.T) {
	f := NewCookieFactory(true)

	header := setCookieHeaders(f.Session("tok", time.Hour))[0]
	assert.Contains(t, header, "Secure")
}

func TestSession_ValueIsURLEncoded(t *testing.T) {
	f := NewCookieFactory(false)

	c := f.Session("a b;c", time.Hour)
	assert.Equal(t, "a%20b%3Bc", c.Value)
}

func TestClear_ExpiresImmediately(t *testing.T) {
	f := NewCookieFactory(false)

	header := setCookieHeaders(f.Clear())[0]
	assert.True(t, strings.HasPrefix(header, "auth_token=;"), header)
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "Path=/")
}

func TestTransit_Cookies(t *testing.T) {
	f := NewCookieFactory(false)

	cookies := f.Transit("0b6c7c1e-3f5a-4a8e-9d2f-1c2b3a4d5e6f", "/dashboard?tab=users")
	require.Len(t, cookies, 2)

	state, redirect := cookies[0], cookies[1]
	assert.Equal(t, StateCookieName, state.Name)
	assert.Equal(t, "0b6c7c1e-3f5a-4a8e-9d2f-1c2b3a4d5e6f", state.Value)
	assert.Equal(t, RedirectCookieName, redirect.Name)
	assert.Equal(t, "%2Fdashboard%3Ftab=users", redirect.Value)

	for _, c := range cookies {
		assert.Equal(t, 600, c.MaxAge)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestClearTransit(t *testing.T) {
	f := NewCookieFactory(false)

	headers := setCookieHeaders(f.ClearTransit()...)
	require.Len(t, headers, 2)
	assert.True(t, strings.HasPrefix(headers[0], "oauth_state=;"))
	assert.True(t, strings.HasPrefix(headers[1], "oauth_redirect=;"))
	for _, h := range headers {
		assert.Contains(t, h, "Max-Age=0")
	}
}

func TestParseCookieHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{
			name:   "empty",
			header: "",
			want:   map[string]string{},
		},
		{
			name:   "single",
			header: "auth_token=abc.def.ghi",
			want:   map[string]string{"auth_token": "abc.def.ghi"},
		},
		{
			name:   "several with spaces",
			header: "theme=dark;  auth_token=tok ; oauth_state=s1",
			want:   map[string]string{"theme": "dark", "auth_token": "tok", "oauth_state": "s1"},
		},
		{
			name:   "url decoded",
			header: "oauth_redirect=%2Fadmin%3Ftab%3D1",
			want:   map[string]string{"oauth_redirect": "/admin?tab=1"},
		},
		{
			name:   "last value wins",
			header: "auth_token=old; auth_token=new",
			want:   map[string]string{"auth_token": "new"},
		},
		{
			name:   "value containing equals",
			header: "data=a=b=c",
			want:   map[string]string{"data": "a=b=c"},
		},
		{
			name:   "quoted value",
			header: `q="quoted"`,
			want:   map[string]string{"q": "quoted"},
		},
		{
			name:   "invalid escape kept raw",
			header: "bad=%zz",
			want:   map[string]string{"bad": "%zz"},
		},
		{
			name:   "malformed pairs skipped",
			header: "novalue; =orphan; ok=1",
			want:   map[string]string{"ok": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCookieHeader(tt.header))
		})
	}
}

func TestSessionCookie_SurvivesParse(t *testing.T) {
	ts, _ := newTestTokenService(t, time.Hour)
	token, err := ts.Issue(testUser())
	require.NoError(t, err)

	c := NewCookieFactory(true).Session(token, ts.Lifetime())
	parsed := ParseCookieHeader(c.Name + "=" + c.Value)

	assert.Equal(t, token, parsed[SessionCookieName])
}
