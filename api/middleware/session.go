package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/aneebrehman51/komugybynarumii/api/web"
)

// LoadAndSave adapts the scs session manager to the web.Middleware chain so
// handlers can read and write session state through the request context.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			wrapped := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			wrapped.ServeHTTP(w, r.WithContext(ctx))

			return err
		}
		return h
	}
	return m
}
