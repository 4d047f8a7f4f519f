package apiclient

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// interceptor attaches the session credential and reacts to error statuses.
// It never retries and never touches the request body.
type interceptor struct {
	next http.RoundTripper
	c    *Client
}

func (t *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if tok, ok := t.c.tokens.Get(ctx); ok {
		if t.c.tokens.IsValid(tok) {
			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+tok)
		} else if err := t.c.tokens.Remove(ctx); err != nil {
			t.c.log.WithField("error", err).Warn("could not drop expired token")
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		t.onError(req, resp.StatusCode)
	}
	return resp, nil
}

func (t *interceptor) onError(req *http.Request, status int) {
	ctx := req.Context()
	log := t.c.log.WithFields(logrus.Fields{
		"api.method": req.Method,
		"api.path":   req.URL.Path,
		"api.status": status,
	})
	switch {
	case status == http.StatusUnauthorized:
		if err := t.c.tokens.Remove(ctx); err != nil {
			log.WithField("error", err).Warn("could not drop rejected token")
		}
		nav := navigatorFrom(ctx, t.c.nav)
		cur := nav.CurrentPath()
		if cur == t.c.loginPath || IsAuthPage(cur) {
			log.Debug("unauthorized on auth view")
			return
		}
		log.WithField("view", cur).Info("session expired, redirecting to login")
		nav.Redirect(t.c.loginPath)
	case status == http.StatusForbidden:
		log.Warn("access denied")
	case status == http.StatusNotFound:
		log.Warn("resource not found")
	case status == http.StatusUnprocessableEntity:
		log.Warn("validation rejected by api")
	case status == http.StatusTooManyRequests:
		log.Warn("rate limited by api")
	case status >= 500:
		log.Error("api server error")
	}
}
