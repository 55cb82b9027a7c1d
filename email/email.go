// Package email delivers order notifications over SMTP. Delivery is
// best-effort; callers run it off the request path and log failures.
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/aneebrehman51/komugybynarumii/core/order"
)

type Mailer struct {
	address  string
	password string
	host     string
	port     string

	// notify receives the order placed/paid notifications.
	notify string
}

func New(address, password, host, port, notify string) *Mailer {
	return &Mailer{
		address:  address,
		password: password,
		host:     host,
		port:     port,
		notify:   notify,
	}
}

// SendOrderNotification emails a single structured order event to the shop
// inbox. The caller guarantees it is invoked at most once per order.
func (m *Mailer) SendOrderNotification(evt order.Event) error {
	msg := message(m.address, m.notify, subject(evt), body(evt))

	auth := smtp.PlainAuth("", m.address, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.address, []string{m.notify}, msg); err != nil {
		return fmt.Errorf("sending order notification[%s]: %w", evt.OrderID, err)
	}
	return nil
}

func subject(evt order.Event) string {
	if evt.PaymentMethod == order.Cash {
		return fmt.Sprintf("New cash order from %s", evt.Name)
	}
	return fmt.Sprintf("Payment received from %s", evt.Name)
}

func body(evt order.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order reference: %s\r\n", evt.Token)
	fmt.Fprintf(&b, "Buyer: %s <%s>\r\n", evt.Name, evt.Email)
	fmt.Fprintf(&b, "Payment method: %s\r\n", evt.PaymentMethod)
	if evt.ProofURL != "" {
		fmt.Fprintf(&b, "Payment proof: %s\r\n", evt.ProofURL)
	}

	b.WriteString("\r\nItems:\r\n")
	for _, it := range evt.Items {
		fmt.Fprintf(&b, "  %dx %s - Rs. %d\r\n", it.Quantity, it.ProductName, it.Price*it.Quantity)
	}
	fmt.Fprintf(&b, "\r\nTotal: Rs. %d\r\n", evt.Total)

	return b.String()
}

func message(from, to, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
