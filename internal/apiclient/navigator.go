package apiclient

import (
	"context"
	"strings"
	"sync"
)

// Navigator is the view the client reports to: where the user is and how to
// send them elsewhere.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

type ctxKeyNavigator struct{}

// WithNavigator scopes nav to one call chain, overriding the client default.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, ctxKeyNavigator{}, nav)
}

func navigatorFrom(ctx context.Context, def Navigator) Navigator {
	if nav, ok := ctx.Value(ctxKeyNavigator{}).(Navigator); ok && nav != nil {
		return nav
	}
	return def
}

// ViewNavigator records a redirect for one request-sized view.
type ViewNavigator struct {
	mu       sync.Mutex
	path     string
	redirect string
}

func NewViewNavigator(path string) *ViewNavigator { return &ViewNavigator{path: path} }

func (v *ViewNavigator) CurrentPath() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

func (v *ViewNavigator) Redirect(path string) {
	v.mu.Lock()
	v.redirect = path
	v.path = path
	v.mu.Unlock()
}

// Redirected returns the last redirect target, if any.
func (v *ViewNavigator) Redirected() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.redirect, v.redirect != ""
}

type nopNavigator struct{}

func (nopNavigator) CurrentPath() string { return "" }
func (nopNavigator) Redirect(string)     {}

var authPages = []string{"/login", "/register", "/auth", "/forgot-password"}

// IsAuthPage reports whether path is one of the sign-in views, where a 401
// must not trigger another redirect.
func IsAuthPage(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, p := range authPages {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
