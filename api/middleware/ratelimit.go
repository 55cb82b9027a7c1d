package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aneebrehman51/komugybynarumii/api/web"
	"github.com/aneebrehman51/komugybynarumii/api/weberr"
	"github.com/aneebrehman51/komugybynarumii/rate"
)

// RateLimit throttles a handler per client address.
func RateLimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.Check(host) {
				err := errors.New("client rate limit exceeded")
				return weberr.NewError(err, "too many requests", http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
