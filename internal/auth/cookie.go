package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names shared by the login handlers and the resolver.
const (
	SessionCookieName  = "auth_token"
	StateCookieName    = "oauth_state"
	RedirectCookieName = "oauth_redirect"
)

// TransitMaxAge bounds the time between the authorize redirect and the callback.
const TransitMaxAge = 10 * time.Minute

// CookieFactory builds the cookies of the session pipeline.
//
// Cookies are kept as typed *http.Cookie values and only serialized by
// http.SetCookie at the response boundary.
//
// ATTRIBUTES:
//   - HttpOnly: scripts cannot read the token
//   - SameSite=Lax: sent on top-level navigations (the OAuth redirect back
//     to us is one) but not on cross-site subresource requests
//   - Secure: only in production, local development runs over plain HTTP
type CookieFactory struct {
	secure bool
}

// NewCookieFactory returns a factory; secure adds the Secure attribute.
func NewCookieFactory(secure bool) *CookieFactory {
	return &CookieFactory{secure: secure}
}

// Session wraps a signed token in the auth_token cookie.
func (f *CookieFactory) Session(token string, maxAge time.Duration) *http.Cookie {
	return f.base(SessionCookieName, url.PathEscape(token), maxAge)
}

// Clear expires auth_token immediately (Max-Age=0). Used on logout.
func (f *CookieFactory) Clear() *http.Cookie {
	return f.expired(SessionCookieName)
}

// Transit returns the oauth_state and oauth_redirect cookies that bridge the
// authorize redirect and the callback.
func (f *CookieFactory) Transit(state, redirectPath string) []*http.Cookie {
	return []*http.Cookie{
		f.base(StateCookieName, url.PathEscape(state), TransitMaxAge),
		f.base(RedirectCookieName, url.PathEscape(redirectPath), TransitMaxAge),
	}
}

// ClearTransit expires both transit cookies.
func (f *CookieFactory) ClearTransit() []*http.Cookie {
	return []*http.Cookie{
		f.expired(StateCookieName),
		f.expired(RedirectCookieName),
	}
}

func (f *CookieFactory) base(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// expired builds a deletion cookie. net/http writes MaxAge<0 as "Max-Age=0".
func (f *CookieFactory) expired(name string) *http.Cookie {
	c := f.base(name, "", 0)
	c.MaxAge = -1
	return c
}

// ParseCookieHeader parses a raw Cookie request header into name → value.
// Values are URL-decoded (kept raw when they are not valid escapes), a
// repeated name keeps its last value, and pairs without "=" are skipped.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		cookies[name] = value
	}
	return cookies
}

// ReadCookie reads one cookie from r through ParseCookieHeader. Multiple
// Cookie headers are joined the way HTTP/2 splits them.
func ReadCookie(r *http.Request, name string) (string, bool) {
	header := strings.Join(r.Header.Values("Cookie"), "; ")
	if header == "" {
		return "", false
	}
	value, ok := ParseCookieHeader(header)[name]
	return value, ok && value != ""
}
