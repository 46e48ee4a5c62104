package backend

import (
	"net/http"
	"net/url"
)

// CSRFCookieName is the anti-forgery cookie issued by the backend.
const CSRFCookieName = "XSRF-TOKEN"

// CSRFHeaderName is the header the backend expects the token echoed in.
const CSRFHeaderName = "X-XSRF-TOKEN"

// csrfRelay is a RoundTripper that, before every request, copies the current
// anti-forgery cookie value out of the jar and into the CSRF header. The
// cookie value arrives URL-encoded and the backend compares against the
// decoded form, so the relay unescapes it first.
type csrfRelay struct {
	jar  http.CookieJar
	base *url.URL
	next http.RoundTripper
}

func (t *csrfRelay) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, c := range t.jar.Cookies(t.base) {
		if c.Name != CSRFCookieName || c.Value == "" {
			continue
		}
		token, err := url.PathUnescape(c.Value)
		if err != nil {
			token = c.Value
		}
		// Clone before mutating: RoundTrippers must not modify the
		// caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(CSRFHeaderName, token)
		break
	}
	return t.next.RoundTrip(req)
}
