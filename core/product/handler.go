package product

import (
	"context"
	"net/http"

	"github.com/aneebrehman51/komugybynarumii/api/web"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		products, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, products, http.StatusOK)
	}
}
