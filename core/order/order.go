package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Status string

const (
	Pending Status = "pending"
	Paid    Status = "paid"
)

type Method string

const (
	Cash   Method = "cash"
	Online Method = "online"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrAlreadyPaid is the already-applied signal from MarkPaid: some other
	// request won the transition first. Callers treat it as success.
	ErrAlreadyPaid = errors.New("order already paid")
)

type Order struct {
	ID                      string         `json:"-" db:"order_id"`
	Token                   Token          `json:"orderToken" db:"order_token"`
	Name                    string         `json:"name" db:"name"`
	Email                   string         `json:"email" db:"email"`
	Phone                   string         `json:"phone" db:"phone"`
	Address                 string         `json:"address" db:"address"`
	PaymentMethod           Method         `json:"paymentMethod" db:"payment_method"`
	PaymentStatus           Status         `json:"paymentStatus" db:"payment_status"`
	PaymentExpiresAt        time.Time      `json:"paymentExpiresAt" db:"payment_expires_at"`
	PaymentProofURL         sql.NullString `json:"-" db:"payment_proof_url"`
	PaymentProofSubmittedAt sql.NullTime   `json:"-" db:"payment_proof_submitted_at"`
	CreatedAt               time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time      `json:"-" db:"updated_at"`
}

// Expired is the single authority on the payment deadline. Expiry is derived
// on every read, never stored: a pending order is dead the instant now moves
// strictly past the deadline, no matter what any client-side countdown says.
func (o Order) Expired(now time.Time) bool {
	return now.After(o.PaymentExpiresAt)
}

// ProofSubmitted reports whether the write-once proof pair is present.
func (o Order) ProofSubmitted() bool {
	return o.PaymentProofURL.Valid
}

type Item struct {
	OrderID     string    `json:"-" db:"order_id"`
	ProductName string    `json:"productName" db:"product_name"`
	Price       int       `json:"price" db:"price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ProofUp carries the one allowed mutation of an order: the pending -> paid
// transition together with the write-once proof fields.
type ProofUp struct {
	ID          string    `db:"order_id"`
	ProofURL    string    `db:"payment_proof_url"`
	SubmittedAt time.Time `db:"payment_proof_submitted_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func Create(ctx context.Context, tx sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, order_token, name, email, phone, address, payment_method,
		payment_status, payment_expires_at, created_at, updated_at)
	VALUES
		(:order_id, :order_token, :name, :email, :phone, :address, :payment_method,
		:payment_status, :payment_expires_at, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, tx sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_name, price, quantity, created_at)
	VALUES
		(:order_id, :product_name, :price, :quantity, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

// FetchByToken is the only read path reachable from client input. It selects
// exactly the fields the session flow needs and never looks up by order_id.
func FetchByToken(ctx context.Context, db *sqlx.DB, tk Token) (Order, error) {
	const q = `
	SELECT
		order_id, order_token, name, email, phone, address, payment_method,
		payment_status, payment_expires_at, payment_proof_url,
		payment_proof_submitted_at, created_at, updated_at
	FROM orders
	WHERE order_token = $1`

	var ord Order
	if err := db.GetContext(ctx, &ord, q, tk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order by token: %w", err)
	}
	return ord, nil
}

func FetchItems(ctx context.Context, db *sqlx.DB, orderID string) ([]Item, error) {
	const q = `
	SELECT order_id, product_name, price, quantity, created_at
	FROM order_items
	WHERE order_id = $1
	ORDER BY product_name`

	items := []Item{}
	if err := db.SelectContext(ctx, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting order items: %w", err)
	}
	return items, nil
}

// MarkPaid performs the conditional pending -> paid transition. The WHERE
// clause on payment_status is the only mutual exclusion in the system: of
// any number of concurrent submissions exactly one sees a row updated, and
// everyone else gets ErrAlreadyPaid. Zero rows with the order present is
// never treated as success.
func MarkPaid(ctx context.Context, db *sqlx.DB, up ProofUp) error {
	const q = `
	UPDATE orders SET
		payment_status = 'paid',
		payment_proof_url = :payment_proof_url,
		payment_proof_submitted_at = :payment_proof_submitted_at,
		updated_at = :updated_at
	WHERE order_id = :order_id AND payment_status = 'pending'`

	res, err := sqlx.NamedExecContext(ctx, db, q, up)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

// FetchAll lists recent orders for manual review.
func FetchAll(ctx context.Context, db *sqlx.DB, limit int) ([]Order, error) {
	const q = `
	SELECT
		order_id, order_token, name, email, phone, address, payment_method,
		payment_status, payment_expires_at, payment_proof_url,
		payment_proof_submitted_at, created_at, updated_at
	FROM orders
	ORDER BY created_at DESC
	LIMIT $1`

	orders := []Order{}
	if err := db.SelectContext(ctx, &orders, q, limit); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}
	return orders, nil
}

// IsTokenConflict reports whether err is the unique violation on the token
// column, so checkout can retry with a freshly issued token.
func IsTokenConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == "orders_order_token_key"
	}
	return false
}
