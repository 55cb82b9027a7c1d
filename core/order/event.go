package order

// Event is the payload handed to the notification sink when an order is
// placed (cash) or paid (online). It carries everything the shop needs to
// act on the order without another lookup.
type Event struct {
	OrderID       string
	Token         Token
	Name          string
	Email         string
	PaymentMethod Method
	ProofURL      string
	Items         []Item
	Total         int
}

// Mailer is the notification sink. Implementations are expected to be safe
// to call more than once per order; the conditional transition in MarkPaid
// is what keeps that from happening in practice.
type Mailer interface {
	SendOrderNotification(evt Event) error
}
