package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/aneebrehman51/komugybynarumii/api/background"
	"github.com/aneebrehman51/komugybynarumii/api/web"
	"github.com/aneebrehman51/komugybynarumii/api/weberr"
	"github.com/aneebrehman51/komugybynarumii/config"
	"github.com/aneebrehman51/komugybynarumii/core/product"
	"github.com/aneebrehman51/komugybynarumii/database"
	"github.com/aneebrehman51/komugybynarumii/storage"
	"github.com/aneebrehman51/komugybynarumii/validate"
	"github.com/jmoiron/sqlx"
)

// sessionTokenKey caches the buyer's order token server-side so the payment
// page can recover it when the ref query parameter is lost.
const sessionTokenKey = "order_token"

// createAttempts bounds retries on a token collision at checkout. A retry
// mints a brand new token; the collision never reaches the buyer.
const createAttempts = 3

type ItemDraft struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=50"`
}

type Draft struct {
	Name          string      `json:"name" validate:"required"`
	Email         string      `json:"email" validate:"required,email"`
	Phone         string      `json:"phone" validate:"required"`
	Address       string      `json:"address" validate:"required"`
	PaymentMethod Method      `json:"paymentMethod" validate:"required,oneof=cash online"`
	Items         []ItemDraft `json:"items" validate:"required,min=1,dive"`
}

type placed struct {
	OrderToken       Token      `json:"orderToken"`
	PaymentMethod    Method     `json:"paymentMethod"`
	Status           string     `json:"status"`
	PaymentExpiresAt *time.Time `json:"paymentExpiresAt,omitempty"`
}

// SessionView is what the payment page renders: buyer identity for display,
// the static payment destination, the server-authoritative deadline for the
// countdown, and whether the proof was already submitted.
type SessionView struct {
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	PaymentStatus        Status    `json:"paymentStatus"`
	PaymentAccountName   string    `json:"paymentAccountName"`
	PaymentAccountNumber string    `json:"paymentAccountNumber"`
	PaymentExpiresAt     time.Time `json:"paymentExpiresAt"`
	ProofSubmitted       bool      `json:"proofSubmitted"`
}

type accepted struct {
	Status        string `json:"status"`
	PaymentStatus Status `json:"paymentStatus"`
}

// errSessionExpired collapses "malformed token", "no such order" and
// "deadline passed" into the one outcome the client is allowed to see, so
// the endpoint leaks nothing about which orders exist. The wrapped cause
// still reaches the logs through the errors middleware.
func errSessionExpired(err error) error {
	return weberr.Gone(err, "payment session expired")
}

func HandleCheckout(db *sqlx.DB, session *scs.SessionManager, mailer Mailer, bg *background.Background, shop config.Shop) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var draft Draft
		if err := web.Decode(w, r, &draft); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding order draft: %w", err))
		}

		if err := validate.Check(draft); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		items, total, err := priceItems(ctx, db, draft.Items)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.Unprocessable(err, "unknown product in order")
			}
			return fmt.Errorf("pricing order items: %w", err)
		}

		ord, err := place(ctx, db, draft, items, shop.PaymentWindow)
		if err != nil {
			return fmt.Errorf("placing order: %w", err)
		}

		out := placed{OrderToken: ord.Token, PaymentMethod: ord.PaymentMethod}

		switch ord.PaymentMethod {
		case Cash:
			// Cash orders are final at creation: notify now, no session.
			dispatch(bg, mailer, Event{
				OrderID:       ord.ID,
				Token:         ord.Token,
				Name:          ord.Name,
				Email:         ord.Email,
				PaymentMethod: Cash,
				Items:         items,
				Total:         total,
			})
			out.Status = "placed"

		case Online:
			// The buyer carries the token into the payment session; cache it
			// server-side as well. No notification until the order is paid.
			session.Put(ctx, sessionTokenKey, string(ord.Token))
			out.Status = string(Pending)
			expires := ord.PaymentExpiresAt
			out.PaymentExpiresAt = &expires
		}

		return web.Respond(ctx, w, out, http.StatusCreated)
	}
}

func HandleSession(db *sqlx.DB, session *scs.SessionManager, shop config.Shop) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ord, err := resolve(ctx, db, session, r)
		if err != nil {
			return err
		}

		view := SessionView{
			Name:                 ord.Name,
			Email:                ord.Email,
			PaymentStatus:        ord.PaymentStatus,
			PaymentAccountName:   shop.PaymentAccountName,
			PaymentAccountNumber: shop.PaymentAccountNumber,
			PaymentExpiresAt:     ord.PaymentExpiresAt,
			ProofSubmitted:       ord.ProofSubmitted(),
		}

		return web.Respond(ctx, w, view, http.StatusOK)
	}
}

func HandleProof(db *sqlx.DB, session *scs.SessionManager, up storage.Uploader, mailer Mailer, bg *background.Background, shop config.Shop) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		// The deadline is re-checked here no matter what the client-side
		// countdown believed.
		ord, err := resolve(ctx, db, session, r)
		if err != nil {
			return err
		}

		if ord.ProofSubmitted() {
			// A proof already won; this is a retry. Accept without touching
			// storage or the dispatcher.
			return web.Respond(ctx, w, accepted{Status: "accepted", PaymentStatus: ord.PaymentStatus}, http.StatusOK)
		}

		file, ext, err := proofFile(w, r, shop.MaxProofBytes)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		key := storage.ProofKey(string(ord.Token), now, ext)
		url, err := up.Upload(ctx, key, bytes.NewReader(file.data), file.contentType)
		if err != nil {
			return fmt.Errorf("storing payment proof for order[%s]: %w", ord.ID, err)
		}

		err = MarkPaid(ctx, db, ProofUp{
			ID:          ord.ID,
			ProofURL:    url,
			SubmittedAt: now,
			UpdatedAt:   now,
		})
		switch {
		case errors.Is(err, ErrAlreadyPaid):
			// Lost the race to a concurrent submission. The extra upload is
			// an accepted cost; the transition and the notification already
			// happened exactly once on the winning request.
			return web.Respond(ctx, w, accepted{Status: "accepted", PaymentStatus: Paid}, http.StatusOK)

		case err != nil:
			return fmt.Errorf("marking order[%s] paid: %w", ord.ID, err)
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			// The transition is committed; item details only enrich the
			// notification body.
			items = nil
		}

		dispatch(bg, mailer, Event{
			OrderID:       ord.ID,
			Token:         ord.Token,
			Name:          ord.Name,
			Email:         ord.Email,
			PaymentMethod: Online,
			ProofURL:      url,
			Items:         items,
			Total:         itemsTotal(items),
		})

		return web.Respond(ctx, w, accepted{Status: "accepted", PaymentStatus: Paid}, http.StatusOK)
	}
}

// priceItems resolves the drafted product ids against the catalog. Prices
// always come from the catalog row, never from the client.
func priceItems(ctx context.Context, db *sqlx.DB, drafts []ItemDraft) ([]Item, int, error) {
	now := time.Now().UTC()

	items := make([]Item, 0, len(drafts))
	total := 0
	for _, d := range drafts {
		prd, err := product.Fetch(ctx, db, d.ProductID)
		if err != nil {
			return nil, 0, fmt.Errorf("fetching product[%s]: %w", d.ProductID, err)
		}

		items = append(items, Item{
			ProductName: prd.Name,
			Price:       prd.Price,
			Quantity:    d.Quantity,
			CreatedAt:   now,
		})
		total += prd.Price * d.Quantity
	}

	return items, total, nil
}

// place persists the order and its items as one transaction, stamping the
// payment deadline exactly once. On a token collision the whole insert is
// retried with a fresh token.
func place(ctx context.Context, db *sqlx.DB, draft Draft, items []Item, window time.Duration) (Order, error) {
	var ord Order

	for attempt := 0; attempt < createAttempts; attempt++ {
		token, err := NewToken()
		if err != nil {
			return Order{}, err
		}

		now := time.Now().UTC()
		ord = Order{
			ID:               validate.GenerateID(),
			Token:            token,
			Name:             draft.Name,
			Email:            draft.Email,
			Phone:            draft.Phone,
			Address:          draft.Address,
			PaymentMethod:    draft.PaymentMethod,
			PaymentStatus:    Pending,
			PaymentExpiresAt: now.Add(window),
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, ord); err != nil {
				return err
			}
			for _, it := range items {
				it.OrderID = ord.ID
				if err := CreateItem(ctx, tx, it); err != nil {
					return err
				}
			}
			return nil
		})

		if err == nil {
			return ord, nil
		}
		if !IsTokenConflict(err) {
			return Order{}, err
		}
	}

	return Order{}, fmt.Errorf("exhausted %d attempts to issue a unique order token", createAttempts)
}

// resolve turns raw client input into a live payment session. Every failure
// mode on this path looks identical to the client.
func resolve(ctx context.Context, db *sqlx.DB, session *scs.SessionManager, r *http.Request) (Order, error) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		ref = session.GetString(ctx, sessionTokenKey)
	}

	token, err := ParseToken(ref)
	if err != nil {
		return Order{}, errSessionExpired(err)
	}

	ord, err := FetchByToken(ctx, db, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, errSessionExpired(err)
		}
		return Order{}, fmt.Errorf("resolving payment session: %w", err)
	}

	// Cash orders never have a payment session.
	if ord.PaymentMethod != Online {
		return Order{}, errSessionExpired(fmt.Errorf("order[%s] has no payment session", ord.ID))
	}

	if ord.Expired(time.Now().UTC()) {
		return Order{}, errSessionExpired(fmt.Errorf("order[%s] deadline passed", ord.ID))
	}

	return ord, nil
}

type proofUpload struct {
	data        []byte
	contentType string
}

// proofFile extracts and screens the uploaded proof. Anything other than a
// reasonably sized image is rejected before the uploader is ever touched.
func proofFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (proofUpload, string, error) {
	// Allow some slack for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)

	f, _, err := r.FormFile("proof")
	if err != nil {
		return proofUpload{}, "", weberr.Unprocessable(fmt.Errorf("reading proof file: %w", err), "a payment proof image is required")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return proofUpload{}, "", weberr.BadRequest(fmt.Errorf("reading proof body: %w", err))
	}
	if int64(len(data)) > maxBytes {
		err := fmt.Errorf("proof file exceeds %d bytes", maxBytes)
		return proofUpload{}, "", weberr.Unprocessable(err, "the proof image is too large")
	}

	// Sniff the real content type; the client-declared one is not trusted.
	contentType := http.DetectContentType(data)
	ext, ok := imageExts[contentType]
	if !ok {
		err := fmt.Errorf("proof file has content type %s", contentType)
		return proofUpload{}, "", weberr.Unprocessable(err, "the proof must be an image")
	}

	return proofUpload{data: data, contentType: contentType}, ext, nil
}

var imageExts = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

func itemsTotal(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Price * it.Quantity
	}
	return total
}

// dispatch hands the notification to the background runner so a slow or
// failing sink never blocks the buyer response.
func dispatch(bg *background.Background, mailer Mailer, evt Event) {
	bg.Run(func() error {
		if err := mailer.SendOrderNotification(evt); err != nil {
			return fmt.Errorf("dispatching notification for order[%s]: %w", evt.OrderID, err)
		}
		return nil
	})
}

// HandleAdminList exposes recent orders for manual review.
func HandleAdminList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orders, err := FetchAll(ctx, db, 100)
		if err != nil {
			return err
		}

		type adminOrder struct {
			Order
			PaymentProofURL string `json:"paymentProofUrl,omitempty"`
		}

		out := make([]adminOrder, 0, len(orders))
		for _, ord := range orders {
			out = append(out, adminOrder{Order: ord, PaymentProofURL: ord.PaymentProofURL.String})
		}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}
