package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/aneebrehman51/komugybynarumii/core/product"
)

// pngFile is a minimal payload http.DetectContentType sniffs as image/png.
var pngFile = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type placedResponse struct {
	OrderToken       string     `json:"orderToken"`
	PaymentMethod    string     `json:"paymentMethod"`
	Status           string     `json:"status"`
	PaymentExpiresAt *time.Time `json:"paymentExpiresAt"`
}

type sessionResponse struct {
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	PaymentStatus        string    `json:"paymentStatus"`
	PaymentAccountName   string    `json:"paymentAccountName"`
	PaymentAccountNumber string    `json:"paymentAccountNumber"`
	PaymentExpiresAt     time.Time `json:"paymentExpiresAt"`
	ProofSubmitted       bool      `json:"proofSubmitted"`
}

func (env *TestEnv) listProductsOK(t *testing.T) []product.Product {
	t.Helper()

	w, err := env.Client().Get(env.URL + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list products: status code %s", w.Status)
	}

	var products []product.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("cannot unmarshal products: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected seeded products")
	}
	return products
}

func (env *TestEnv) draft(t *testing.T, method string) map[string]any {
	t.Helper()

	products := env.listProductsOK(t)
	return map[string]any{
		"name":          "Aneeb",
		"email":         "aneeb@x.com",
		"phone":         "0301-1111111",
		"address":       "House 1, Street 2, Lahore",
		"paymentMethod": method,
		"items": []map[string]any{
			{"productId": products[0].ID, "quantity": 2},
		},
	}
}

func (env *TestEnv) createOrder(t *testing.T, body map[string]any) (placedResponse, int) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	w, err := env.Client().Post(env.URL+"/orders", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	var out placedResponse
	if w.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatalf("cannot unmarshal placed order: %v", err)
		}
	}
	return out, w.StatusCode
}

func (env *TestEnv) createOrderOK(t *testing.T, method string) placedResponse {
	t.Helper()

	out, code := env.createOrder(t, env.draft(t, method))
	if code != http.StatusCreated {
		t.Fatalf("can't create %s order: status code %d", method, code)
	}
	return out
}

func (env *TestEnv) resolveSession(t *testing.T, ref string) (sessionResponse, int) {
	t.Helper()

	url := env.URL + "/payment/session"
	if ref != "" {
		url += "?ref=" + ref
	}

	w, err := env.Client().Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	var out sessionResponse
	if w.StatusCode == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatalf("cannot unmarshal session view: %v", err)
		}
	}
	return out, w.StatusCode
}

func (env *TestEnv) submitProof(t *testing.T, ref string, file []byte, filename string) int {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("proof", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(part, bytes.NewReader(file)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	url := env.URL + "/payment/session/proof"
	if ref != "" {
		url += "?ref=" + ref
	}

	w, err := env.Client().Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	return w.StatusCode
}

// waitMails blocks until the dispatcher has delivered n notifications, since
// dispatch happens off the request path.
func (env *TestEnv) waitMails(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if env.Mails.Count() >= n {
			if got := env.Mails.Count(); got != n {
				t.Fatalf("expected %d notifications, got %d", n, got)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications, got %d after waiting", n, env.Mails.Count())
}

// expireOrder backdates the stored deadline, simulating the wall clock
// moving past it.
func (env *TestEnv) expireOrder(t *testing.T, token string) {
	t.Helper()

	res, err := env.DB.Exec(`UPDATE orders SET payment_expires_at = now() - interval '1 minute' WHERE order_token = $1`, token)
	if err != nil {
		t.Fatalf("backdating order deadline: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("expected to backdate 1 order, got %d", n)
	}
}

func (env *TestEnv) fetchOrderRow(t *testing.T, token string) (status string, proofURL *string) {
	t.Helper()

	row := env.DB.QueryRow(`SELECT payment_status, payment_proof_url FROM orders WHERE order_token = $1`, token)
	if err := row.Scan(&status, &proofURL); err != nil {
		t.Fatalf("selecting order row: %v", err)
	}
	return status, proofURL
}

func (env *TestEnv) adminOrders(t *testing.T, token string) (int, []map[string]any) {
	t.Helper()

	r, err := http.NewRequest(http.MethodGet, env.URL+"/admin/orders", nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	var out []map[string]any
	if w.StatusCode == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatalf("cannot unmarshal admin orders: %v", err)
		}
	}
	return w.StatusCode, out
}
