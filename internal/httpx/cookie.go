package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-food-storefront/internal/redisx"
)

const SessionCookie = "fd_session"

type ctxKeySession struct{}

// Sessions makes sure every request carries a session id, issuing a cookie
// on first visit or when the presented one is not a uuid.
func Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(redisx.TTLSessionToken.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySession{}, sid)))
	})
}

func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(ctxKeySession{}).(string)
	return sid
}
