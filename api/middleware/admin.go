package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/aneebrehman51/komugybynarumii/api/web"
	"github.com/aneebrehman51/komugybynarumii/api/weberr"
)

// Admin guards the review endpoints with a static bearer token. An empty
// configured token disables the surface entirely.
func Admin(token string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if token == "" {
				return weberr.NotFound(errors.New("admin surface disabled"))
			}

			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return weberr.NotAuthorized(errors.New("invalid admin token"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
