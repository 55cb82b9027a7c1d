package test

import (
	"net/http"
	"testing"

	"github.com/aneebrehman51/komugybynarumii/core/order"
)

func TestCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	t.Run("cash order is final at creation", func(t *testing.T) {
		out := env.createOrderOK(t, "cash")

		if out.Status != "placed" {
			t.Fatalf("expected status placed, got %q", out.Status)
		}
		if out.PaymentExpiresAt != nil {
			t.Fatal("cash orders must not expose a payment deadline")
		}

		env.waitMails(t, 1)
		evt := env.Mails.Events()[0]
		if evt.PaymentMethod != order.Cash {
			t.Fatalf("expected cash notification, got %q", evt.PaymentMethod)
		}
		if evt.Name != "Aneeb" || evt.Email != "aneeb@x.com" {
			t.Fatalf("notification carries wrong buyer: %+v", evt)
		}
		if string(evt.Token) != out.OrderToken {
			t.Fatal("notification token differs from the issued one")
		}

		// No payment session exists for a cash order.
		if _, code := env.resolveSession(t, out.OrderToken); code != http.StatusGone {
			t.Fatalf("expected 410 resolving a cash order, got %d", code)
		}
	})

	t.Run("online order opens a pending session", func(t *testing.T) {
		before := env.Mails.Count()
		out := env.createOrderOK(t, "online")

		if out.Status != "pending" {
			t.Fatalf("expected status pending, got %q", out.Status)
		}
		if len(out.OrderToken) != order.TokenLength {
			t.Fatalf("expected a %d-char token, got %q", order.TokenLength, out.OrderToken)
		}
		if out.PaymentExpiresAt == nil {
			t.Fatal("online orders must expose the payment deadline")
		}

		// No notification until the order is paid.
		if got := env.Mails.Count(); got != before {
			t.Fatalf("online checkout dispatched %d early notifications", got-before)
		}
	})

	t.Run("tokens are unique across creations", func(t *testing.T) {
		seen := map[string]struct{}{}
		for i := 0; i < 25; i++ {
			out := env.createOrderOK(t, "online")
			if _, ok := seen[out.OrderToken]; ok {
				t.Fatalf("token %q issued twice", out.OrderToken)
			}
			seen[out.OrderToken] = struct{}{}
		}
	})

	t.Run("rejects incomplete drafts", func(t *testing.T) {
		for _, field := range []string{"name", "email", "phone", "address"} {
			draft := env.draft(t, "online")
			delete(draft, field)
			if _, code := env.createOrder(t, draft); code != http.StatusUnprocessableEntity {
				t.Errorf("draft without %s: expected 422, got %d", field, code)
			}
		}

		draft := env.draft(t, "card")
		if _, code := env.createOrder(t, draft); code != http.StatusUnprocessableEntity {
			t.Errorf("unknown payment method: expected 422, got %d", code)
		}

		draft = env.draft(t, "online")
		draft["items"] = []map[string]any{}
		if _, code := env.createOrder(t, draft); code != http.StatusUnprocessableEntity {
			t.Errorf("empty items: expected 422, got %d", code)
		}
	})

	t.Run("rejects unknown products", func(t *testing.T) {
		draft := env.draft(t, "online")
		draft["items"] = []map[string]any{
			{"productId": "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee", "quantity": 1},
		}
		if _, code := env.createOrder(t, draft); code != http.StatusUnprocessableEntity {
			t.Errorf("unknown product: expected 422, got %d", code)
		}
	})
}

func TestAdminOrders(t *testing.T) {
	env, err := NewTestEnv(t, "admin_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	out := env.createOrderOK(t, "online")

	if code, _ := env.adminOrders(t, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", code)
	}
	if code, _ := env.adminOrders(t, "wrong"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a wrong token, got %d", code)
	}

	code, orders := env.adminOrders(t, "test-admin-token")
	if code != http.StatusOK {
		t.Fatalf("expected 200 with the admin token, got %d", code)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0]["orderToken"] != out.OrderToken {
		t.Fatal("admin listing misses the created order")
	}
}
