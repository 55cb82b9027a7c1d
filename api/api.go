package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/aneebrehman51/komugybynarumii/api/background"
	"github.com/aneebrehman51/komugybynarumii/api/middleware"
	"github.com/aneebrehman51/komugybynarumii/api/web"
	"github.com/aneebrehman51/komugybynarumii/config"
	"github.com/aneebrehman51/komugybynarumii/core/order"
	"github.com/aneebrehman51/komugybynarumii/core/product"
	"github.com/aneebrehman51/komugybynarumii/database"
	"github.com/aneebrehman51/komugybynarumii/rate"
	"github.com/aneebrehman51/komugybynarumii/storage"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	Uploader   storage.Uploader
	Mailer     order.Mailer
	Background *background.Background
	Shop       config.Shop
	AdminToken string
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	admin := middleware.Admin(cfg.AdminToken)
	limited := middleware.RateLimit(cfg.Limiter)

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))

	a.Handle(http.MethodPost, "/orders", order.HandleCheckout(cfg.DB, cfg.Session, cfg.Mailer, cfg.Background, cfg.Shop))
	a.Handle(http.MethodGet, "/payment/session", order.HandleSession(cfg.DB, cfg.Session, cfg.Shop))
	a.Handle(http.MethodPost, "/payment/session/proof", order.HandleProof(cfg.DB, cfg.Session, cfg.Uploader, cfg.Mailer, cfg.Background, cfg.Shop), limited)

	a.Handle(http.MethodGet, "/admin/orders", order.HandleAdminList(cfg.DB), admin)

	return a.Router
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := database.StatusCheck(ctx, db); err != nil {
			return err
		}

		status := struct {
			Status string `json:"status"`
		}{Status: "ok"}

		return web.Respond(ctx, w, status, http.StatusOK)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
